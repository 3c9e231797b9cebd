package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type DepartmentHandler struct {
	departmentService service.DepartmentService
}

func NewDepartmentHandler(departmentService service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departmentService: departmentService}
}

func (h *DepartmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	departments := router.Group("/api/departments")
	departments.Use(middleware.RequireAuth())
	{
		departments.GET("", h.ListDepartments)
		departments.GET("/missing-section-heads", middleware.RequireRole(model.RoleAdmin), h.ListMissingSectionHeads)
		departments.GET("/:id", h.GetDepartment)
		departments.POST("", middleware.RequireRole(model.RoleAdmin), h.CreateDepartment)
		departments.PUT("/:id/section-head", middleware.RequireRole(model.RoleAdmin), h.AssignSectionHead)
	}
}

// CreateDepartment registers a department under an active company
// @Summary      Create department
// @Tags         departments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        department  body      service.CreateDepartmentDTO  true  "Department payload"
// @Success      201         {object}  response.Response{data=service.DepartmentResponse}
// @Router       /api/departments [post]
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	var req service.CreateDepartmentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	department, err := h.departmentService.CreateDepartment(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, department))
}

// ListDepartments returns departments, optionally filtered by company
// @Summary      List departments
// @Tags         departments
// @Security     BearerAuth
// @Produce      json
// @Param        company_id  query  string  false  "Filter by company"
// @Success      200  {object}  response.Response{data=[]service.DepartmentResponse}
// @Router       /api/departments [get]
func (h *DepartmentHandler) ListDepartments(c *gin.Context) {
	departments, err := h.departmentService.ListDepartments(c.Request.Context(), c.Query("company_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, departments))
}

// GetDepartment returns one department by id
// @Summary      Get department
// @Tags         departments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Department ID"
// @Success      200  {object}  response.Response{data=service.DepartmentResponse}
// @Router       /api/departments/{id} [get]
func (h *DepartmentHandler) GetDepartment(c *gin.Context) {
	department, err := h.departmentService.GetDepartment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, department))
}

// AssignSectionHead makes a user the department's single section head
// @Summary      Assign section head
// @Tags         departments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Department ID"
// @Param        payload  body      service.AssignSectionHeadDTO  true  "User to promote"
// @Success      200      {object}  response.Response{data=service.DepartmentResponse}
// @Router       /api/departments/{id}/section-head [put]
func (h *DepartmentHandler) AssignSectionHead(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	var req service.AssignSectionHeadDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	department, err := h.departmentService.AssignSectionHead(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, department))
}

// ListMissingSectionHeads reports departments whose submissions would stall
// @Summary      List departments without a section head
// @Tags         departments
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.DepartmentResponse}
// @Router       /api/departments/missing-section-heads [get]
func (h *DepartmentHandler) ListMissingSectionHeads(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	departments, err := h.departmentService.ListMissingSectionHeads(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, departments))
}
