package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/signature"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory fakes for the lifecycle and resolution services. The embedded
// interfaces cover the surface the tests never touch.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeWorkflowRequests struct {
	repository.RequestRepository
	request   *model.Request
	itemCount int64
}

func (f *fakeWorkflowRequests) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	if f.request == nil || f.request.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.request, nil
}

func (f *fakeWorkflowRequests) GetByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	return f.GetForUpdate(ctx, id)
}

func (f *fakeWorkflowRequests) Update(ctx context.Context, request *model.Request) error {
	return nil
}

func (f *fakeWorkflowRequests) CountItems(ctx context.Context, requestID uuid.UUID) (int64, error) {
	return f.itemCount, nil
}

type fakeWorkflowApprovals struct {
	repository.ApprovalRepository
	rows []*model.Approval
}

func (f *fakeWorkflowApprovals) CreateBatch(ctx context.Context, approvals []model.Approval) error {
	for i := range approvals {
		a := approvals[i]
		f.rows = append(f.rows, &a)
	}
	return nil
}

func (f *fakeWorkflowApprovals) GetPendingForUpdate(ctx context.Context, requestID uuid.UUID, role model.ApprovalRole, userID uuid.UUID) (*model.Approval, error) {
	for _, a := range f.rows {
		if a.RequestID == requestID && a.Role == role && a.UserID == userID && a.Status == model.ApprovalPending {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeWorkflowApprovals) GetForUser(ctx context.Context, requestID uuid.UUID, role model.ApprovalRole, userID uuid.UUID) (*model.Approval, error) {
	for _, a := range f.rows {
		if a.RequestID == requestID && a.Role == role && a.UserID == userID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeWorkflowApprovals) ListPendingForUser(ctx context.Context, userID uuid.UUID) ([]model.Approval, error) {
	var out []model.Approval
	for _, a := range f.rows {
		if a.UserID == userID && a.Status == model.ApprovalPending {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeWorkflowApprovals) Update(ctx context.Context, approval *model.Approval) error {
	return nil
}

func (f *fakeWorkflowApprovals) CancelSiblingPendings(ctx context.Context, requestID uuid.UUID, role model.ApprovalRole, winnerID uuid.UUID) error {
	for _, a := range f.rows {
		if a.RequestID == requestID && a.Role == role && a.ID != winnerID && a.Status == model.ApprovalPending {
			a.Status = model.ApprovalCancelled
		}
	}
	return nil
}

func (f *fakeWorkflowApprovals) CancelAllPending(ctx context.Context, requestID uuid.UUID) error {
	for _, a := range f.rows {
		if a.RequestID == requestID && a.Status == model.ApprovalPending {
			a.Status = model.ApprovalCancelled
		}
	}
	return nil
}

func (f *fakeWorkflowApprovals) ResetForRequest(ctx context.Context, requestID uuid.UUID) error {
	for _, a := range f.rows {
		if a.RequestID == requestID {
			a.Status = model.ApprovalPending
			a.Comments = ""
			a.SignatureRef = ""
			a.ApprovedAt = nil
		}
	}
	return nil
}

type fakeAuditTrail struct {
	repository.AuditRepository
	entries []model.AuditLog
}

func (f *fakeAuditTrail) Create(ctx context.Context, entry *model.AuditLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

type fakeApproverDirectory struct {
	repository.UserRepository
	byRole map[string][]model.User
}

func (f *fakeApproverDirectory) ListByRole(ctx context.Context, role string, companyID, departmentID *uuid.UUID) ([]model.User, error) {
	return f.byRole[role], nil
}

func testApprovalService(reqRepo repository.RequestRepository, appRepo repository.ApprovalRepository, audit repository.AuditRepository) ApprovalService {
	chain := NewApprovalChain(nil, nil, appRepo)
	return NewApprovalService(fakeTxManager{}, reqRepo, appRepo, audit, chain, signature.NewHashStamp(), NewEventBroadcaster(nil))
}

func submittedRequest() *model.Request {
	return &model.Request{
		ID:            uuid.New(),
		RequestNumber: "ACME-ENG-202603-0001",
		CompanyID:     uuid.New(),
		DepartmentID:  uuid.New(),
		UserID:        uuid.New(),
		Status:        model.StatusSubmitted,
	}
}

func sectionHeadFor(r *model.Request) model.Principal {
	companyID, departmentID := r.CompanyID, r.DepartmentID
	return model.Principal{
		UserID:       uuid.New(),
		CompanyID:    &companyID,
		DepartmentID: &departmentID,
		Roles:        []string{model.RoleSectionHead},
	}
}

func pendingApproval(r *model.Request, p model.Principal, role model.ApprovalRole) *model.Approval {
	return &model.Approval{
		ID:        uuid.New(),
		RequestID: r.ID,
		UserID:    p.UserID,
		Role:      role,
		Status:    model.ApprovalPending,
	}
}

func TestApproveAdvancesStatusAndStamps(t *testing.T) {
	request := submittedRequest()
	approver := sectionHeadFor(request)
	row := pendingApproval(request, approver, model.RoleSectionHead)

	appRepo := &fakeWorkflowApprovals{rows: []*model.Approval{row}}
	audit := &fakeAuditTrail{}
	svc := testApprovalService(&fakeWorkflowRequests{request: request}, appRepo, audit)

	resp, err := svc.Approve(context.Background(), approver, request.ID.String(), "looks good")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if request.Status != model.StatusSectionApproved {
		t.Errorf("request status = %s, want section_approved", request.Status)
	}
	if row.Status != model.ApprovalApproved {
		t.Errorf("approval status = %s, want approved", row.Status)
	}
	if row.SignatureRef == "" {
		t.Error("approval must carry a signature reference after approval")
	}
	if row.ApprovedAt == nil {
		t.Error("approval must record the approval time")
	}
	if len(audit.entries) != 1 {
		t.Errorf("audit entries = %d, want 1", len(audit.entries))
	}
	if resp.Status != string(model.StatusSectionApproved) {
		t.Errorf("response status = %s, want section_approved", resp.Status)
	}
}

func TestApproveSupersedesSiblingPendings(t *testing.T) {
	request := submittedRequest()
	winner := sectionHeadFor(request)
	loser := sectionHeadFor(request)
	winnerRow := pendingApproval(request, winner, model.RoleSectionHead)
	loserRow := pendingApproval(request, loser, model.RoleSectionHead)

	appRepo := &fakeWorkflowApprovals{rows: []*model.Approval{winnerRow, loserRow}}
	svc := testApprovalService(&fakeWorkflowRequests{request: request}, appRepo, &fakeAuditTrail{})

	if _, err := svc.Approve(context.Background(), winner, request.ID.String(), ""); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if winnerRow.Status != model.ApprovalApproved {
		t.Errorf("winner row status = %s, want approved", winnerRow.Status)
	}
	if loserRow.Status != model.ApprovalCancelled {
		t.Errorf("sibling row status = %s, want cancelled", loserRow.Status)
	}
}

func TestApproveRaceLoserGetsConflict(t *testing.T) {
	// The winning sibling already advanced the request, so the loser's row
	// sits superseded and the status no longer gates section_head.
	request := submittedRequest()
	loser := sectionHeadFor(request)
	loserRow := pendingApproval(request, loser, model.RoleSectionHead)
	loserRow.Status = model.ApprovalCancelled
	request.Status = model.StatusSectionApproved

	appRepo := &fakeWorkflowApprovals{rows: []*model.Approval{loserRow}}
	svc := testApprovalService(&fakeWorkflowRequests{request: request}, appRepo, &fakeAuditTrail{})

	_, err := svc.Approve(context.Background(), loser, request.ID.String(), "")
	var conflict *AlreadyResolvedError
	if !errors.As(err, &conflict) {
		t.Fatalf("want AlreadyResolvedError, got %v", err)
	}
}

func TestApproveAfterCancelIsValidationError(t *testing.T) {
	request := submittedRequest()
	approver := sectionHeadFor(request)
	row := pendingApproval(request, approver, model.RoleSectionHead)
	row.Status = model.ApprovalCancelled
	request.Status = model.StatusCancelled

	appRepo := &fakeWorkflowApprovals{rows: []*model.Approval{row}}
	svc := testApprovalService(&fakeWorkflowRequests{request: request}, appRepo, &fakeAuditTrail{})

	_, err := svc.Approve(context.Background(), approver, request.ID.String(), "")
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("want ValidationError for a cancelled request, got %v", err)
	}
}

func TestApproveWithoutAssignmentIsAuthorizationError(t *testing.T) {
	request := submittedRequest()
	approver := sectionHeadFor(request)

	svc := testApprovalService(&fakeWorkflowRequests{request: request}, &fakeWorkflowApprovals{}, &fakeAuditTrail{})

	_, err := svc.Approve(context.Background(), approver, request.ID.String(), "")
	var authErr *AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("want AuthorizationError without a pending assignment, got %v", err)
	}
}

func TestRejectSetsRejected(t *testing.T) {
	request := submittedRequest()
	approver := sectionHeadFor(request)
	row := pendingApproval(request, approver, model.RoleSectionHead)

	appRepo := &fakeWorkflowApprovals{rows: []*model.Approval{row}}
	svc := testApprovalService(&fakeWorkflowRequests{request: request}, appRepo, &fakeAuditTrail{})

	if _, err := svc.Reject(context.Background(), approver, request.ID.String(), "over budget"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if request.Status != model.StatusRejected {
		t.Errorf("request status = %s, want rejected", request.Status)
	}
	if row.Status != model.ApprovalRejected {
		t.Errorf("approval status = %s, want rejected", row.Status)
	}
}

func TestRequestRevision(t *testing.T) {
	request := submittedRequest()
	approver := sectionHeadFor(request)
	row := pendingApproval(request, approver, model.RoleSectionHead)

	appRepo := &fakeWorkflowApprovals{rows: []*model.Approval{row}}
	svc := testApprovalService(&fakeWorkflowRequests{request: request}, appRepo, &fakeAuditTrail{})

	var validationErr *ValidationError
	if _, err := svc.RequestRevision(context.Background(), approver, request.ID.String(), ""); !errors.As(err, &validationErr) {
		t.Fatalf("empty reason: want ValidationError, got %v", err)
	}

	if _, err := svc.RequestRevision(context.Background(), approver, request.ID.String(), "split into two requests"); err != nil {
		t.Fatalf("RequestRevision: %v", err)
	}
	if request.Status != model.StatusRevisionRequested {
		t.Errorf("request status = %s, want revision_requested", request.Status)
	}
	if !strings.Contains(request.Notes, "split into two requests") {
		t.Errorf("revision reason not recorded in notes: %q", request.Notes)
	}
}

func TestListPendingOnlyActionable(t *testing.T) {
	actionable := submittedRequest()
	notYet := submittedRequest()
	approver := model.Principal{UserID: uuid.New(), Roles: []string{model.RoleSectionHead, model.RolePJO}}

	gated := pendingApproval(actionable, approver, model.RoleSectionHead)
	gated.Request = actionable
	early := pendingApproval(notYet, approver, model.RolePJO)
	early.Request = notYet
	orphan := pendingApproval(submittedRequest(), approver, model.RoleSectionHead)
	// Request preload missing: the row must be skipped, not surfaced ungated
	orphan.Request = nil

	appRepo := &fakeWorkflowApprovals{rows: []*model.Approval{gated, early, orphan}}
	svc := testApprovalService(&fakeWorkflowRequests{}, appRepo, &fakeAuditTrail{})

	pending, err := svc.ListPending(context.Background(), approver)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d entries, want only the actionable one", len(pending))
	}
	if pending[0].RequestID != actionable.ID.String() {
		t.Errorf("pending entry = %s, want request %s", pending[0].RequestID, actionable.ID)
	}
}
