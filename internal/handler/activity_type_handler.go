package handler

import (
	"net/http"

	"occ-api/internal/middleware"
	"occ-api/internal/model"
	"occ-api/internal/service"
	"occ-api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ActivityTypeHandler struct {
	activityService service.ActivityTypeService
}

func NewActivityTypeHandler(activityService service.ActivityTypeService) *ActivityTypeHandler {
	return &ActivityTypeHandler{activityService: activityService}
}

func (h *ActivityTypeHandler) RegisterRoutes(router *gin.RouterGroup) {
	write := middleware.RequirePermission(model.PermActivityTypesWrite)

	types := router.Group("/activity-types")
	types.Use(middleware.RequireAuth())
	{
		types.GET("", h.List)
		types.GET("/:id", h.Get)
		types.GET("/:id/presuncao", h.Presumption)
		types.POST("", write, h.Create)
		types.PUT("/:id", write, h.Update)
		types.DELETE("/:id", write, h.Deactivate)
	}
}

// List handles GET /activity-types
// @Summary      List activity types
// @Tags         activity-types
// @Produce      json
// @Security     BearerAuth
// @Param        include_inactive  query     bool  false  "Include deactivated types (staff only)"
// @Success      200               {object}  response.Response{data=[]model.ActivityType}
// @Router       /activity-types [get]
func (h *ActivityTypeHandler) List(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true" && actor(c).IsStaff()
	items, err := h.activityService.List(c.Request.Context(), includeInactive)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// Get handles GET /activity-types/:id
// @Summary      Get activity type
// @Tags         activity-types
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Activity type ID"
// @Success      200  {object}  response.Response{data=model.ActivityType}
// @Failure      404  {object}  response.Response
// @Router       /activity-types/{id} [get]
func (h *ActivityTypeHandler) Get(c *gin.Context) {
	at, err := h.activityService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, at))
}

// Presumption handles GET /activity-types/:id/presuncao
// @Summary      Presumption for a revenue figure
// @Description  Resolves the variable IRPJ presumption against the annual revenue
// @Tags         activity-types
// @Produce      json
// @Security     BearerAuth
// @Param        id           path      string  true  "Activity type ID"
// @Param        faturamento  query     string  true  "Annual revenue"
// @Success      200          {object}  response.Response{data=service.PresumptionResult}
// @Failure      400          {object}  response.Response
// @Router       /activity-types/{id}/presuncao [get]
func (h *ActivityTypeHandler) Presumption(c *gin.Context) {
	revenue, err := decimal.NewFromString(c.Query("faturamento"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.FieldError(http.StatusBadRequest, "faturamento must be a number", "faturamento", ""))
		return
	}
	res, err := h.activityService.Presumption(c.Request.Context(), c.Param("id"), revenue)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Create handles POST /activity-types
// @Summary      Create activity type
// @Tags         activity-types
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ActivityTypeRequest  true  "Activity type"
// @Success      201      {object}  response.Response{data=model.ActivityType}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /activity-types [post]
func (h *ActivityTypeHandler) Create(c *gin.Context) {
	var req service.ActivityTypeRequest
	if !bindJSON(c, &req) {
		return
	}
	at, err := h.activityService.Create(c.Request.Context(), actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, at))
}

// Update handles PUT /activity-types/:id
// @Summary      Update activity type
// @Tags         activity-types
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Activity type ID"
// @Param        payload  body      service.ActivityTypeRequest  true  "Activity type"
// @Success      200      {object}  response.Response{data=model.ActivityType}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /activity-types/{id} [put]
func (h *ActivityTypeHandler) Update(c *gin.Context) {
	var req service.ActivityTypeRequest
	if !bindJSON(c, &req) {
		return
	}
	at, err := h.activityService.Update(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, at))
}

// Deactivate handles DELETE /activity-types/:id
// @Summary      Deactivate activity type
// @Description  Sets ativo=false; the row is kept
// @Tags         activity-types
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Activity type ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /activity-types/{id} [delete]
func (h *ActivityTypeHandler) Deactivate(c *gin.Context) {
	if err := h.activityService.Deactivate(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Activity type deactivated"}))
}
