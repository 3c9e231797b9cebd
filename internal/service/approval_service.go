package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/signature"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type ApproveRequestDTO struct {
	Comments string `json:"comments"`
}

type RejectRequestDTO struct {
	Reason string `json:"reason"`
}

type RevisionRequestDTO struct {
	Reason string `json:"reason" binding:"required"`
}

type PendingApprovalResponse struct {
	ApprovalID    string `json:"approval_id"`
	RequestID     string `json:"request_id"`
	RequestNumber string `json:"request_number"`
	Role          string `json:"role"`
	RequestStatus string `json:"request_status"`
	CompanyCode   string `json:"company_code,omitempty"`
	DepartmentCode string `json:"department_code,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// --- Interface ---

// ApprovalService resolves pending approvals: approve, reject, request
// revision. Resolution is first-approver-wins per role; the race loser
// receives AlreadyResolvedError, never a silent double-advance.
type ApprovalService interface {
	Approve(ctx context.Context, p model.Principal, requestID string, comments string) (*RequestResponse, error)
	Reject(ctx context.Context, p model.Principal, requestID string, reason string) (*RequestResponse, error)
	RequestRevision(ctx context.Context, p model.Principal, requestID string, reason string) (*RequestResponse, error)
	ListForRequest(ctx context.Context, p model.Principal, requestID string) ([]ApprovalResponse, error)
	ListPending(ctx context.Context, p model.Principal) ([]PendingApprovalResponse, error)
}

type approvalService struct {
	txManager    repository.TransactionManager
	requestRepo  repository.RequestRepository
	approvalRepo repository.ApprovalRepository
	auditRepo    repository.AuditRepository
	chain        *ApprovalChain
	stamp        signature.Stamp
	events       EventBroadcaster
	now          func() time.Time
}

func NewApprovalService(
	txManager repository.TransactionManager,
	requestRepo repository.RequestRepository,
	approvalRepo repository.ApprovalRepository,
	auditRepo repository.AuditRepository,
	chain *ApprovalChain,
	stamp signature.Stamp,
	events EventBroadcaster,
) ApprovalService {
	return &approvalService{
		txManager:    txManager,
		requestRepo:  requestRepo,
		approvalRepo: approvalRepo,
		auditRepo:    auditRepo,
		chain:        chain,
		stamp:        stamp,
		events:       events,
		now:          time.Now,
	}
}

// --- Implementation ---

func (s *approvalService) Approve(ctx context.Context, p model.Principal, requestID string, comments string) (*RequestResponse, error) {
	return s.resolve(ctx, p, requestID, resolution{
		action:   model.ActionApproveRequest,
		event:    "request_approved",
		comments: comments,
		apply: func(txCtx context.Context, request *model.Request, approval *model.Approval) error {
			now := s.now()
			ref, err := s.stamp.Issue(request.ID, approval.UserID, approval.Role, now)
			if err != nil {
				return err
			}
			approval.Status = model.ApprovalApproved
			approval.ApprovedAt = &now
			approval.SignatureRef = ref

			next, ok := s.chain.StatusAfter(approval.Role)
			if !ok || !request.Status.CanTransitionTo(next) {
				return validationErrorf("request %s cannot advance from status %s", request.RequestNumber, request.Status)
			}
			request.Status = next
			return nil
		},
	})
}

func (s *approvalService) Reject(ctx context.Context, p model.Principal, requestID string, reason string) (*RequestResponse, error) {
	return s.resolve(ctx, p, requestID, resolution{
		action:   model.ActionRejectRequest,
		event:    "request_rejected",
		comments: reason,
		apply: func(txCtx context.Context, request *model.Request, approval *model.Approval) error {
			approval.Status = model.ApprovalRejected
			request.Status = model.StatusRejected
			return nil
		},
	})
}

func (s *approvalService) RequestRevision(ctx context.Context, p model.Principal, requestID string, reason string) (*RequestResponse, error) {
	if reason == "" {
		return nil, validationErrorf("revision reason is required")
	}
	return s.resolve(ctx, p, requestID, resolution{
		action:   model.ActionRequestRevision,
		event:    "revision_requested",
		comments: reason,
		apply: func(txCtx context.Context, request *model.Request, approval *model.Approval) error {
			approval.Status = model.ApprovalRevisionRequested
			request.Status = model.StatusRevisionRequested
			if request.Notes != "" {
				request.Notes += "\n"
			}
			request.Notes += "[Revision requested] " + reason
			return nil
		},
	})
}

// resolution describes how one approver action mutates the approval and the
// request. The surrounding transaction handles locking, supersession and
// auditing identically for approve/reject/revision.
type resolution struct {
	action   string
	event    string
	comments string
	apply    func(txCtx context.Context, request *model.Request, approval *model.Approval) error
}

func (s *approvalService) resolve(ctx context.Context, p model.Principal, id string, res resolution) (*RequestResponse, error) {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationErrorf("invalid request id: %v", err)
	}

	var resolved *model.Request
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.requestRepo.GetForUpdate(txCtx, reqID)
		if err != nil {
			return err
		}
		// A lost race must surface as a conflict, not a not-found: once the
		// winner advanced the status the loser may no longer even see the
		// request, so this check runs before the visibility mask.
		if err := s.checkAlreadyResolved(txCtx, p, request); err != nil {
			return err
		}
		if !CanView(p, request) {
			return gorm.ErrRecordNotFound
		}

		role, ok := s.chain.NextRole(request.Status)
		if !ok {
			return validationErrorf("request %s is not awaiting approval (status %s)", request.RequestNumber, request.Status)
		}
		if !p.HasRole(string(role)) {
			return authorizationErrorf("action requires an active %s approval", role)
		}

		approval, err := s.approvalRepo.GetPendingForUpdate(txCtx, request.ID, role, p.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return authorizationErrorf("action requires an active %s approval", role)
			}
			return err
		}

		approval.Comments = res.comments
		if err := res.apply(txCtx, request, approval); err != nil {
			return err
		}
		if err := s.approvalRepo.Update(txCtx, approval); err != nil {
			return err
		}
		// First-approver-wins: supersede sibling pendings of the same role
		if err := s.approvalRepo.CancelSiblingPendings(txCtx, request.ID, role, approval.ID); err != nil {
			return err
		}
		if err := s.requestRepo.Update(txCtx, request); err != nil {
			return err
		}

		details, _ := json.Marshal(map[string]interface{}{
			"request_number": request.RequestNumber,
			"role":           role,
			"status":         request.Status,
			"comments":       res.comments,
		})
		userID := p.UserID
		audit := model.AuditLog{
			UserID:     &userID,
			Action:     res.action,
			EntityID:   request.ID.String(),
			EntityName: request.RequestNumber,
			Details:    string(details),
		}
		if err := s.auditRepo.Create(txCtx, &audit); err != nil {
			return err
		}

		resolved = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.BroadcastEvent(res.event, resolved)

	request, err := s.requestRepo.GetByID(ctx, reqID)
	if err != nil {
		return nil, err
	}
	resp := toRequestResponse(request)
	return &resp, nil
}

// checkAlreadyResolved detects an approver acting on a stage that has moved
// on without them: the caller holds a resolved approval row for a chain role
// the request no longer sits at. A superseded sibling gets
// AlreadyResolvedError; an attempt against a cancelled request gets a
// validation error.
func (s *approvalService) checkAlreadyResolved(txCtx context.Context, p model.Principal, request *model.Request) error {
	gating, gated := s.chain.NextRole(request.Status)
	for _, role := range s.chain.RequiredRoles() {
		if !p.HasRole(string(role)) {
			continue
		}
		if gated && gating == role {
			// Still this role's turn; normal resolution applies
			continue
		}
		existing, err := s.approvalRepo.GetForUser(txCtx, request.ID, role, p.UserID)
		if err != nil || existing.Status == model.ApprovalPending {
			continue
		}
		if request.Status == model.StatusCancelled {
			return validationErrorf("request %s has been cancelled", request.RequestNumber)
		}
		return &AlreadyResolvedError{
			Msg: "approval for request " + request.RequestNumber + " was already resolved (" + string(existing.Status) + ")",
		}
	}
	return nil
}

func (s *approvalService) ListForRequest(ctx context.Context, p model.Principal, requestID string) ([]ApprovalResponse, error) {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return nil, validationErrorf("invalid request id: %v", err)
	}

	request, err := s.requestRepo.GetByID(ctx, reqID)
	if err != nil {
		return nil, err
	}
	if !CanView(p, request) {
		return nil, gorm.ErrRecordNotFound
	}

	approvals, err := s.approvalRepo.ListByRequest(ctx, reqID)
	if err != nil {
		return nil, err
	}

	result := make([]ApprovalResponse, 0, len(approvals))
	for i := range approvals {
		result = append(result, toApprovalResponse(&approvals[i]))
	}
	return result, nil
}

func (s *approvalService) ListPending(ctx context.Context, p model.Principal) ([]PendingApprovalResponse, error) {
	approvals, err := s.approvalRepo.ListPendingForUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	result := make([]PendingApprovalResponse, 0, len(approvals))
	for _, a := range approvals {
		// Only surface approvals actionable right now: the request must
		// actually sit at this approval's role
		if a.Request == nil {
			continue
		}
		if gating, ok := s.chain.NextRole(a.Request.Status); !ok || gating != a.Role {
			continue
		}

		resp := PendingApprovalResponse{
			ApprovalID:    a.ID.String(),
			RequestID:     a.RequestID.String(),
			Role:          string(a.Role),
			RequestNumber: a.Request.RequestNumber,
			RequestStatus: string(a.Request.Status),
			CreatedAt:     a.CreatedAt.Format(time.RFC3339),
		}
		if a.Request.Company != nil {
			resp.CompanyCode = a.Request.Company.Code
		}
		if a.Request.Department != nil {
			resp.DepartmentCode = a.Request.Department.Code
		}
		result = append(result, resp)
	}
	return result, nil
}
