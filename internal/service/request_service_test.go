package service

import (
	"context"
	"errors"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

func testRequestService(reqRepo repository.RequestRepository, appRepo repository.ApprovalRepository, users repository.UserRepository, audit repository.AuditRepository) RequestService {
	chain := NewApprovalChain(nil, users, appRepo)
	return NewRequestService(fakeTxManager{}, reqRepo, appRepo, nil, nil, audit, nil, chain, NewEventBroadcaster(nil))
}

func ownerOf(r *model.Request) model.Principal {
	companyID, departmentID := r.CompanyID, r.DepartmentID
	return model.Principal{
		UserID:       r.UserID,
		CompanyID:    &companyID,
		DepartmentID: &departmentID,
		Roles:        []string{model.RoleUser},
	}
}

func TestSubmitRequiresItems(t *testing.T) {
	request := submittedRequest()
	request.Status = model.StatusDraft
	owner := ownerOf(request)

	reqRepo := &fakeWorkflowRequests{request: request, itemCount: 0}
	svc := testRequestService(reqRepo, &fakeWorkflowApprovals{}, &fakeApproverDirectory{}, &fakeAuditTrail{})

	_, err := svc.SubmitRequest(context.Background(), owner, request.ID.String())
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("zero-item submit: want ValidationError, got %v", err)
	}
	if request.Status != model.StatusDraft {
		t.Errorf("request status = %s, must stay draft", request.Status)
	}
}

func TestSubmitFansOutApprovals(t *testing.T) {
	request := submittedRequest()
	request.Status = model.StatusDraft
	owner := ownerOf(request)

	users := &fakeApproverDirectory{byRole: map[string][]model.User{
		model.RoleSectionHead: {{ID: uuid.New()}, {ID: uuid.New()}},
		model.RoleSCMHead:     {{ID: uuid.New()}},
		model.RolePJO:         {{ID: uuid.New()}},
	}}
	appRepo := &fakeWorkflowApprovals{}
	reqRepo := &fakeWorkflowRequests{request: request, itemCount: 2}
	svc := testRequestService(reqRepo, appRepo, users, &fakeAuditTrail{})

	if _, err := svc.SubmitRequest(context.Background(), owner, request.ID.String()); err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}
	if request.Status != model.StatusSubmitted {
		t.Errorf("request status = %s, want submitted", request.Status)
	}
	if len(appRepo.rows) != 4 {
		t.Fatalf("fan-out created %d approvals, want one per eligible approver (4)", len(appRepo.rows))
	}
	for _, row := range appRepo.rows {
		if row.Status != model.ApprovalPending {
			t.Errorf("approval for %s created as %s, want pending", row.Role, row.Status)
		}
	}
}

func TestSubmitByNonOwnerIsAuthorizationError(t *testing.T) {
	request := submittedRequest()
	request.Status = model.StatusDraft
	admin := model.Principal{UserID: uuid.New(), Roles: []string{model.RoleAdmin}}

	reqRepo := &fakeWorkflowRequests{request: request, itemCount: 2}
	svc := testRequestService(reqRepo, &fakeWorkflowApprovals{}, &fakeApproverDirectory{}, &fakeAuditTrail{})

	_, err := svc.SubmitRequest(context.Background(), admin, request.ID.String())
	var authErr *AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("non-owner submit: want AuthorizationError, got %v", err)
	}
}

func TestCancelMarksPendingsCancelled(t *testing.T) {
	request := submittedRequest()
	owner := ownerOf(request)
	sectionRow := pendingApproval(request, sectionHeadFor(request), model.RoleSectionHead)
	pjoRow := pendingApproval(request, sectionHeadFor(request), model.RolePJO)

	appRepo := &fakeWorkflowApprovals{rows: []*model.Approval{sectionRow, pjoRow}}
	reqRepo := &fakeWorkflowRequests{request: request}
	svc := testRequestService(reqRepo, appRepo, &fakeApproverDirectory{}, &fakeAuditTrail{})

	var validationErr *ValidationError
	if _, err := svc.CancelRequest(context.Background(), owner, request.ID.String(), ""); !errors.As(err, &validationErr) {
		t.Fatalf("empty reason: want ValidationError, got %v", err)
	}

	if _, err := svc.CancelRequest(context.Background(), owner, request.ID.String(), "budget cut"); err != nil {
		t.Fatalf("CancelRequest: %v", err)
	}
	if request.Status != model.StatusCancelled {
		t.Errorf("request status = %s, want cancelled", request.Status)
	}
	if request.CancellationReason != "budget cut" {
		t.Errorf("cancellation reason = %q, want the given reason", request.CancellationReason)
	}
	for _, row := range appRepo.rows {
		if row.Status != model.ApprovalCancelled {
			t.Errorf("approval for %s = %s, want cancelled", row.Role, row.Status)
		}
	}
}

func TestResubmitOnlyFromRevisionRequested(t *testing.T) {
	request := submittedRequest()
	owner := ownerOf(request)

	reqRepo := &fakeWorkflowRequests{request: request}
	svc := testRequestService(reqRepo, &fakeWorkflowApprovals{}, &fakeApproverDirectory{}, &fakeAuditTrail{})

	_, err := svc.ResubmitRequest(context.Background(), owner, request.ID.String())
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("resubmit from submitted: want ValidationError, got %v", err)
	}
}

func TestResubmitRestartsChain(t *testing.T) {
	request := submittedRequest()
	request.Status = model.StatusRevisionRequested
	owner := ownerOf(request)

	resolved := pendingApproval(request, sectionHeadFor(request), model.RoleSectionHead)
	resolved.Status = model.ApprovalApproved
	resolved.SignatureRef = "sig-stale"
	superseded := pendingApproval(request, sectionHeadFor(request), model.RoleSectionHead)
	superseded.Status = model.ApprovalCancelled

	appRepo := &fakeWorkflowApprovals{rows: []*model.Approval{resolved, superseded}}
	reqRepo := &fakeWorkflowRequests{request: request}
	svc := testRequestService(reqRepo, appRepo, &fakeApproverDirectory{}, &fakeAuditTrail{})

	if _, err := svc.ResubmitRequest(context.Background(), owner, request.ID.String()); err != nil {
		t.Fatalf("ResubmitRequest: %v", err)
	}
	if request.Status != model.StatusSubmitted {
		t.Errorf("request status = %s, want submitted", request.Status)
	}
	for _, row := range appRepo.rows {
		if row.Status != model.ApprovalPending {
			t.Errorf("approval = %s after resubmit, want pending", row.Status)
		}
		if row.SignatureRef != "" {
			t.Error("stale signature reference must be cleared on resubmit")
		}
	}
}

func TestValidateItems(t *testing.T) {
	valid := []RequestItemDTO{
		{ItemNumber: 1, Description: "Cable tray", Specification: "HDG 200mm", Quantity: 10, UnitOfMeasurement: "m"},
		{ItemNumber: 2, Description: "Bolts", Specification: "M12x50", Quantity: 200, UnitOfMeasurement: "pcs"},
	}
	if err := validateItems(valid); err != nil {
		t.Fatalf("validateItems: %v", err)
	}

	var validationErr *ValidationError

	zeroQty := []RequestItemDTO{{ItemNumber: 1, Description: "Cable", Specification: "x", Quantity: 0, UnitOfMeasurement: "m"}}
	if err := validateItems(zeroQty); !errors.As(err, &validationErr) {
		t.Errorf("zero quantity: want ValidationError, got %v", err)
	}

	negativeQty := []RequestItemDTO{{ItemNumber: 1, Description: "Cable", Specification: "x", Quantity: -3, UnitOfMeasurement: "m"}}
	if err := validateItems(negativeQty); !errors.As(err, &validationErr) {
		t.Errorf("negative quantity: want ValidationError, got %v", err)
	}

	duplicate := []RequestItemDTO{
		{ItemNumber: 1, Description: "Cable", Specification: "x", Quantity: 1, UnitOfMeasurement: "m"},
		{ItemNumber: 1, Description: "More cable", Specification: "y", Quantity: 2, UnitOfMeasurement: "m"},
	}
	if err := validateItems(duplicate); !errors.As(err, &validationErr) {
		t.Errorf("duplicate item number: want ValidationError, got %v", err)
	}

	if err := validateItems(nil); err != nil {
		t.Errorf("empty item list is valid at draft time, got %v", err)
	}
}

func TestNotFoundHelper(t *testing.T) {
	if NotFound(errors.New("boom")) {
		t.Error("arbitrary errors are not not-found")
	}
	if NotFound(nil) {
		t.Error("nil is not not-found")
	}
}
