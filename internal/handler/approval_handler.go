package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approvals := router.Group("/api/approvals")
	approvals.Use(middleware.RequireAuth())
	{
		approvals.GET("/pending", middleware.RequireRole(
			model.RoleSectionHead, model.RoleSCMHead, model.RolePJO,
		), h.ListPending)
		approvals.GET("/requests/:id", h.ListForRequest)
		approvals.PUT("/requests/:id/approve", h.Approve)
		approvals.PUT("/requests/:id/reject", h.Reject)
		approvals.PUT("/requests/:id/request-revision", h.RequestRevision)
	}
}

// ListPending returns the caller's actionable pending approvals
// @Summary      List pending approvals for the caller
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.PendingApprovalResponse}
// @Router       /api/approvals/pending [get]
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	result, err := h.approvalService.ListPending(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ListForRequest returns the approval trail of one request
// @Summary      List approvals of a request
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=[]service.ApprovalResponse}
// @Router       /api/approvals/requests/{id} [get]
func (h *ApprovalHandler) ListForRequest(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	result, err := h.approvalService.ListForRequest(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Approve resolves the caller's pending approval as approved
// @Summary      Approve a request at the current chain role
// @Tags         approvals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true   "Request ID"
// @Param        payload  body      service.ApproveRequestDTO  false  "Optional comments"
// @Success      200      {object}  response.Response{data=service.RequestResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/approvals/requests/{id}/approve [put]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	var req service.ApproveRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		// Allow empty body — comments are optional
		req.Comments = ""
	}

	result, err := h.approvalService.Approve(c.Request.Context(), principal, c.Param("id"), req.Comments)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Reject resolves the caller's pending approval as rejected
// @Summary      Reject a request at the current chain role
// @Tags         approvals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true   "Request ID"
// @Param        payload  body      service.RejectRequestDTO  false  "Optional reason"
// @Success      200      {object}  response.Response{data=service.RequestResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/approvals/requests/{id}/reject [put]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	var req service.RejectRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		// Allow empty body — reason is optional for rejection
		req.Reason = ""
	}

	result, err := h.approvalService.Reject(c.Request.Context(), principal, c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// RequestRevision sends the request back to the owner for changes
// @Summary      Request revision of a request
// @Tags         approvals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Request ID"
// @Param        payload  body      service.RevisionRequestDTO  true  "Mandatory reason"
// @Success      200      {object}  response.Response{data=service.RequestResponse}
// @Router       /api/approvals/requests/{id}/request-revision [put]
func (h *ApprovalHandler) RequestRevision(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	var req service.RevisionRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	result, err := h.approvalService.RequestRevision(c.Request.Context(), principal, c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
