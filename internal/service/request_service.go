package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type RequestItemDTO struct {
	ItemNumber        int    `json:"item_number" binding:"required,gt=0"`
	Description       string `json:"description" binding:"required"`
	Specification     string `json:"specification" binding:"required"`
	Quantity          int    `json:"quantity" binding:"required,gt=0"`
	UnitOfMeasurement string `json:"unit_of_measurement" binding:"required"`
	Remarks           string `json:"remarks"`
}

type CreateRequestDTO struct {
	RequestDate string           `json:"request_date" binding:"omitempty,datetime=2006-01-02"`
	Notes       string           `json:"notes"`
	Items       []RequestItemDTO `json:"items" binding:"dive"`
}

type UpdateRequestDTO struct {
	Notes string           `json:"notes"`
	Items []RequestItemDTO `json:"items" binding:"dive"`
}

type CancelRequestDTO struct {
	Reason string `json:"reason" binding:"required"`
}

type RequestListFilter struct {
	Status       string
	CompanyID    string
	DepartmentID string
	Page         int
	Limit        int
}

type RequestItemResponse struct {
	ItemNumber        int    `json:"item_number"`
	Description       string `json:"description"`
	Specification     string `json:"specification"`
	Quantity          int    `json:"quantity"`
	UnitOfMeasurement string `json:"unit_of_measurement"`
	Remarks           string `json:"remarks,omitempty"`
}

type ApprovalResponse struct {
	ID           string  `json:"id"`
	Role         string  `json:"role"`
	Status       string  `json:"status"`
	ApproverName string  `json:"approver_name,omitempty"`
	Comments     string  `json:"comments,omitempty"`
	SignatureRef string  `json:"signature_ref,omitempty"`
	ApprovedAt   *string `json:"approved_at,omitempty"`
}

type RequestResponse struct {
	ID                 string                `json:"id"`
	RequestNumber      string                `json:"request_number"`
	RequestDate        string                `json:"request_date"`
	CompanyCode        string                `json:"company_code,omitempty"`
	CompanyName        string                `json:"company_name,omitempty"`
	DepartmentCode     string                `json:"department_code,omitempty"`
	DepartmentName     string                `json:"department_name,omitempty"`
	RequesterName      string                `json:"requester_name,omitempty"`
	Status             string                `json:"status"`
	Notes              string                `json:"notes,omitempty"`
	CancellationReason string                `json:"cancellation_reason,omitempty"`
	CancelledAt        *string               `json:"cancelled_at,omitempty"`
	Items              []RequestItemResponse `json:"items,omitempty"`
	Approvals          []ApprovalResponse    `json:"approvals,omitempty"`
	CreatedAt          string                `json:"created_at"`
}

// RequestExport is the frozen document payload of a completed request:
// everything a renderer needs, nothing mutable.
type RequestExport struct {
	Request     RequestResponse `json:"request"`
	GeneratedAt string          `json:"generated_at"`
}

// --- Interface ---

// RequestService owns every owner-side lifecycle operation of a request.
// Each method takes the acting principal explicitly and runs all-or-nothing
// in one transaction.
type RequestService interface {
	CreateRequest(ctx context.Context, p model.Principal, req CreateRequestDTO) (*RequestResponse, error)
	GetRequest(ctx context.Context, p model.Principal, id string) (*RequestResponse, error)
	ListRequests(ctx context.Context, p model.Principal, filter RequestListFilter) ([]RequestResponse, int64, error)
	UpdateRequest(ctx context.Context, p model.Principal, id string, req UpdateRequestDTO) (*RequestResponse, error)
	SubmitRequest(ctx context.Context, p model.Principal, id string) (*RequestResponse, error)
	CancelRequest(ctx context.Context, p model.Principal, id string, reason string) (*RequestResponse, error)
	ResubmitRequest(ctx context.Context, p model.Principal, id string) (*RequestResponse, error)
	DeleteRequest(ctx context.Context, p model.Principal, id string) error
	// ListStuck surfaces requests stalled at a role with no eligible approver
	ListStuck(ctx context.Context, p model.Principal) ([]RequestResponse, error)
	// ExportRequest returns the finalized read-only payload of a completed
	// request, for downstream document rendering.
	ExportRequest(ctx context.Context, p model.Principal, id string) (*RequestExport, error)
}

type requestService struct {
	txManager      repository.TransactionManager
	requestRepo    repository.RequestRepository
	approvalRepo   repository.ApprovalRepository
	companyRepo    repository.CompanyRepository
	departmentRepo repository.DepartmentRepository
	auditRepo      repository.AuditRepository
	allocator      RequestNumberAllocator
	chain          *ApprovalChain
	events         EventBroadcaster
}

func NewRequestService(
	txManager repository.TransactionManager,
	requestRepo repository.RequestRepository,
	approvalRepo repository.ApprovalRepository,
	companyRepo repository.CompanyRepository,
	departmentRepo repository.DepartmentRepository,
	auditRepo repository.AuditRepository,
	allocator RequestNumberAllocator,
	chain *ApprovalChain,
	events EventBroadcaster,
) RequestService {
	return &requestService{
		txManager:      txManager,
		requestRepo:    requestRepo,
		approvalRepo:   approvalRepo,
		companyRepo:    companyRepo,
		departmentRepo: departmentRepo,
		auditRepo:      auditRepo,
		allocator:      allocator,
		chain:          chain,
		events:         events,
	}
}

// --- Implementation ---

func (s *requestService) CreateRequest(ctx context.Context, p model.Principal, req CreateRequestDTO) (*RequestResponse, error) {
	if p.CompanyID == nil || p.DepartmentID == nil {
		return nil, validationErrorf("requester must belong to a company and department")
	}
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	requestDate := time.Now()
	if req.RequestDate != "" {
		parsed, err := time.Parse("2006-01-02", req.RequestDate)
		if err != nil {
			return nil, validationErrorf("invalid request_date: %v", err)
		}
		requestDate = parsed
	}

	var request model.Request
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		company, err := s.companyRepo.GetByID(txCtx, *p.CompanyID)
		if err != nil {
			return err
		}
		department, err := s.departmentRepo.GetByID(txCtx, *p.DepartmentID)
		if err != nil {
			return err
		}

		number, err := s.allocator.Allocate(txCtx, company, department)
		if err != nil {
			return err
		}

		request = model.Request{
			RequestNumber: number,
			RequestDate:   requestDate,
			CompanyID:     company.ID,
			DepartmentID:  department.ID,
			UserID:        p.UserID,
			Status:        model.StatusDraft,
			Notes:         req.Notes,
			Items:         itemsFromDTO(req.Items),
		}
		if err := s.requestRepo.Create(txCtx, &request); err != nil {
			return err
		}

		return s.writeAudit(txCtx, p, model.ActionCreateRequest, &request, map[string]interface{}{
			"item_count": len(req.Items),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, request.ID)
}

func (s *requestService) GetRequest(ctx context.Context, p model.Principal, id string) (*RequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationErrorf("invalid request id: %v", err)
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	// Out-of-scope reads look identical to missing records
	if !CanView(p, request) {
		return nil, gorm.ErrRecordNotFound
	}

	resp := toRequestResponse(request)
	return &resp, nil
}

func (s *requestService) ListRequests(ctx context.Context, p model.Principal, filter RequestListFilter) ([]RequestResponse, int64, error) {
	repoFilter := repository.RequestFilter{}
	if filter.Status != "" {
		status := model.RequestStatus(filter.Status)
		if !status.Valid() {
			return nil, 0, validationErrorf("unknown status %q", filter.Status)
		}
		repoFilter.Status = status
	}
	if filter.CompanyID != "" {
		companyID, err := uuid.Parse(filter.CompanyID)
		if err != nil {
			return nil, 0, validationErrorf("invalid company id: %v", err)
		}
		repoFilter.CompanyID = &companyID
	}
	if filter.DepartmentID != "" {
		departmentID, err := uuid.Parse(filter.DepartmentID)
		if err != nil {
			return nil, 0, validationErrorf("invalid department id: %v", err)
		}
		repoFilter.DepartmentID = &departmentID
	}

	requests, total, err := s.requestRepo.List(ctx, VisibleRequests(p), repoFilter, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		result = append(result, toRequestResponse(&requests[i]))
	}
	return result, total, nil
}

func (s *requestService) UpdateRequest(ctx context.Context, p model.Principal, id string, req UpdateRequestDTO) (*RequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationErrorf("invalid request id: %v", err)
	}
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.requestRepo.GetForUpdate(txCtx, requestID)
		if err != nil {
			return err
		}
		if !CanView(p, request) {
			return gorm.ErrRecordNotFound
		}
		if !CanEdit(p, request) {
			return validationErrorf("request %s cannot be edited in status %s", request.RequestNumber, request.Status)
		}

		request.Notes = req.Notes
		if err := s.requestRepo.Update(txCtx, request); err != nil {
			return err
		}
		if err := s.requestRepo.ReplaceItems(txCtx, request.ID, itemsFromDTO(req.Items)); err != nil {
			return err
		}

		return s.writeAudit(txCtx, p, model.ActionUpdateRequest, request, map[string]interface{}{
			"item_count": len(req.Items),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, requestID)
}

func (s *requestService) SubmitRequest(ctx context.Context, p model.Principal, id string) (*RequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationErrorf("invalid request id: %v", err)
	}

	var submitted *model.Request
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.requestRepo.GetForUpdate(txCtx, requestID)
		if err != nil {
			return err
		}
		if !CanView(p, request) {
			return gorm.ErrRecordNotFound
		}
		if !CanSubmit(p, request) {
			if !request.IsOwnedBy(p) {
				return authorizationErrorf("only the request owner may submit")
			}
			return validationErrorf("request %s cannot be submitted from status %s", request.RequestNumber, request.Status)
		}

		itemCount, err := s.requestRepo.CountItems(txCtx, request.ID)
		if err != nil {
			return err
		}
		if itemCount == 0 {
			return validationErrorf("request %s has no items and cannot be submitted", request.RequestNumber)
		}

		request.Status = model.StatusSubmitted
		if err := s.requestRepo.Update(txCtx, request); err != nil {
			return err
		}
		if err := s.chain.CreateApprovalRecords(txCtx, request); err != nil {
			return err
		}

		submitted = request
		return s.writeAudit(txCtx, p, model.ActionSubmitRequest, request, nil)
	})
	if err != nil {
		return nil, err
	}

	s.events.BroadcastEvent("request_submitted", submitted)
	return s.reload(ctx, requestID)
}

func (s *requestService) CancelRequest(ctx context.Context, p model.Principal, id string, reason string) (*RequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationErrorf("invalid request id: %v", err)
	}
	if reason == "" {
		return nil, validationErrorf("cancellation reason is required")
	}

	var cancelled *model.Request
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.requestRepo.GetForUpdate(txCtx, requestID)
		if err != nil {
			return err
		}
		if !CanView(p, request) {
			return gorm.ErrRecordNotFound
		}
		if !CanCancel(p, request) {
			if !request.IsOwnedBy(p) {
				return authorizationErrorf("only the request owner may cancel")
			}
			return validationErrorf("request %s cannot be cancelled from status %s", request.RequestNumber, request.Status)
		}

		now := time.Now()
		request.Status = model.StatusCancelled
		request.CancellationReason = reason
		request.CancelledAt = &now
		if err := s.requestRepo.Update(txCtx, request); err != nil {
			return err
		}
		if err := s.approvalRepo.CancelAllPending(txCtx, request.ID); err != nil {
			return err
		}

		cancelled = request
		return s.writeAudit(txCtx, p, model.ActionCancelRequest, request, map[string]interface{}{
			"reason": reason,
		})
	})
	if err != nil {
		return nil, err
	}

	s.events.BroadcastEvent("request_cancelled", cancelled)
	return s.reload(ctx, requestID)
}

func (s *requestService) ResubmitRequest(ctx context.Context, p model.Principal, id string) (*RequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationErrorf("invalid request id: %v", err)
	}

	var resubmitted *model.Request
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.requestRepo.GetForUpdate(txCtx, requestID)
		if err != nil {
			return err
		}
		if !CanView(p, request) {
			return gorm.ErrRecordNotFound
		}
		if !request.IsOwnedBy(p) {
			return authorizationErrorf("only the request owner may resubmit")
		}
		if request.Status != model.StatusRevisionRequested {
			return validationErrorf("request %s is not awaiting revision (status %s)", request.RequestNumber, request.Status)
		}

		// Restart, not resume: the whole chain goes back to pending
		if err := s.chain.ResetForResubmission(txCtx, request.ID); err != nil {
			return err
		}
		request.Status = model.StatusSubmitted
		if err := s.requestRepo.Update(txCtx, request); err != nil {
			return err
		}

		resubmitted = request
		return s.writeAudit(txCtx, p, model.ActionResubmitRequest, request, nil)
	})
	if err != nil {
		return nil, err
	}

	s.events.BroadcastEvent("request_resubmitted", resubmitted)
	return s.reload(ctx, requestID)
}

func (s *requestService) DeleteRequest(ctx context.Context, p model.Principal, id string) error {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return validationErrorf("invalid request id: %v", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.requestRepo.GetForUpdate(txCtx, requestID)
		if err != nil {
			return err
		}
		if !CanView(p, request) {
			return gorm.ErrRecordNotFound
		}
		if !CanDelete(p, request) {
			return validationErrorf("request %s cannot be deleted in status %s", request.RequestNumber, request.Status)
		}

		if err := s.requestRepo.Delete(txCtx, request.ID); err != nil {
			return err
		}
		return s.writeAudit(txCtx, p, model.ActionDeleteRequest, request, nil)
	})
}

func (s *requestService) ListStuck(ctx context.Context, p model.Principal) ([]RequestResponse, error) {
	if !p.IsAdmin() {
		return nil, authorizationErrorf("only administrators may list stuck requests")
	}

	requests, err := s.requestRepo.ListStuck(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		result = append(result, toRequestResponse(&requests[i]))
	}
	return result, nil
}

func (s *requestService) ExportRequest(ctx context.Context, p model.Principal, id string) (*RequestExport, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationErrorf("invalid request id: %v", err)
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !CanView(p, request) {
		return nil, gorm.ErrRecordNotFound
	}
	if request.Status != model.StatusCompleted {
		return nil, validationErrorf("request %s is not completed and cannot be exported", request.RequestNumber)
	}

	return &RequestExport{
		Request:     toRequestResponse(request),
		GeneratedAt: time.Now().Format(time.RFC3339),
	}, nil
}

// --- Helpers ---

func validateItems(items []RequestItemDTO) error {
	seen := make(map[int]bool, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return validationErrorf("item %d: quantity must be positive", item.ItemNumber)
		}
		if seen[item.ItemNumber] {
			return validationErrorf("duplicate item number %d", item.ItemNumber)
		}
		seen[item.ItemNumber] = true
	}
	return nil
}

func itemsFromDTO(items []RequestItemDTO) []model.RequestItem {
	result := make([]model.RequestItem, 0, len(items))
	for _, item := range items {
		result = append(result, model.RequestItem{
			ItemNumber:        item.ItemNumber,
			Description:       item.Description,
			Specification:     item.Specification,
			Quantity:          item.Quantity,
			UnitOfMeasurement: item.UnitOfMeasurement,
			Remarks:           item.Remarks,
		})
	}
	return result
}

func (s *requestService) reload(ctx context.Context, id uuid.UUID) (*RequestResponse, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toRequestResponse(request)
	return &resp, nil
}

func (s *requestService) writeAudit(txCtx context.Context, p model.Principal, action string, request *model.Request, extra map[string]interface{}) error {
	payload := map[string]interface{}{
		"request_number": request.RequestNumber,
		"status":         request.Status,
	}
	for k, v := range extra {
		payload[k] = v
	}
	details, _ := json.Marshal(payload)

	userID := p.UserID
	entry := model.AuditLog{
		UserID:     &userID,
		Action:     action,
		EntityID:   request.ID.String(),
		EntityName: request.RequestNumber,
		Details:    string(details),
	}
	return s.auditRepo.Create(txCtx, &entry)
}

func toRequestResponse(r *model.Request) RequestResponse {
	resp := RequestResponse{
		ID:                 r.ID.String(),
		RequestNumber:      r.RequestNumber,
		RequestDate:        r.RequestDate.Format("2006-01-02"),
		Status:             string(r.Status),
		Notes:              r.Notes,
		CancellationReason: r.CancellationReason,
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
	}
	if r.Company != nil {
		resp.CompanyCode = r.Company.Code
		resp.CompanyName = r.Company.Name
	}
	if r.Department != nil {
		resp.DepartmentCode = r.Department.Code
		resp.DepartmentName = r.Department.Name
	}
	if r.User != nil {
		resp.RequesterName = r.User.Name
	}
	if r.CancelledAt != nil {
		s := r.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &s
	}
	for _, item := range r.Items {
		resp.Items = append(resp.Items, RequestItemResponse{
			ItemNumber:        item.ItemNumber,
			Description:       item.Description,
			Specification:     item.Specification,
			Quantity:          item.Quantity,
			UnitOfMeasurement: item.UnitOfMeasurement,
			Remarks:           item.Remarks,
		})
	}
	for _, approval := range r.Approvals {
		resp.Approvals = append(resp.Approvals, toApprovalResponse(&approval))
	}
	return resp
}

func toApprovalResponse(a *model.Approval) ApprovalResponse {
	resp := ApprovalResponse{
		ID:           a.ID.String(),
		Role:         string(a.Role),
		Status:       string(a.Status),
		Comments:     a.Comments,
		SignatureRef: a.SignatureRef,
	}
	if a.User != nil {
		resp.ApproverName = a.User.Name
	}
	if a.ApprovedAt != nil {
		s := a.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &s
	}
	return resp
}

// NotFound reports whether err is the record-not-found sentinel (also used
// to mask out-of-scope reads)
func NotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
