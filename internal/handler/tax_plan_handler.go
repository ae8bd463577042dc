package handler

import (
	"net/http"
	"strconv"

	"occ-api/internal/middleware"
	"occ-api/internal/model"
	"occ-api/internal/service"
	"occ-api/pkg/pagination"
	"occ-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaxPlanHandler struct {
	planService service.TaxPlanService
}

func NewTaxPlanHandler(planService service.TaxPlanService) *TaxPlanHandler {
	return &TaxPlanHandler{planService: planService}
}

// RegisterRoutes lets clients read their own plans; changes need tax_plans.manage.
func (h *TaxPlanHandler) RegisterRoutes(router *gin.RouterGroup) {
	manage := middleware.RequirePermission(model.PermTaxPlansManage)

	plans := router.Group("/tax-plans")
	plans.Use(middleware.RequireAuth())
	{
		plans.GET("", h.ListPlans)
		plans.GET("/:id", h.GetPlan)
		plans.GET("/:id/summary", h.Summary)
		plans.POST("", manage, h.CreatePlan)
		plans.PUT("/:id", manage, h.UpdatePlan)
		plans.DELETE("/:id", manage, h.DeletePlan)

		plans.POST("/:id/revenues", manage, h.AddRevenue)
		plans.DELETE("/:id/revenues/:entryId", manage, h.DeleteRevenue)
		plans.POST("/:id/expenses", manage, h.AddExpense)
		plans.DELETE("/:id/expenses/:entryId", manage, h.DeleteExpense)
	}
}

// ListPlans handles GET /tax-plans
// @Summary      List tax plans
// @Tags         tax-plans
// @Produce      json
// @Security     BearerAuth
// @Param        client_id  query     string  false  "Client ID (staff only)"
// @Param        year       query     int     false  "Year"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20, max 100)"
// @Success      200        {object}  response.Response{data=[]model.TaxPlan}
// @Router       /tax-plans [get]
func (h *TaxPlanHandler) ListPlans(c *gin.Context) {
	filter := service.TaxPlanFilter{ClientID: c.Query("client_id")}
	filter.Year, _ = strconv.Atoi(c.Query("year"))

	p := pagination.Parse(c)
	plans, total, err := h.planService.ListPlans(c.Request.Context(), actor(c), filter, p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, plans, response.NewMeta(p.Page, p.Limit, total)))
}

// GetPlan handles GET /tax-plans/:id
// @Summary      Get tax plan with entries
// @Tags         tax-plans
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Plan ID"
// @Success      200  {object}  response.Response{data=model.TaxPlan}
// @Failure      404  {object}  response.Response
// @Router       /tax-plans/{id} [get]
func (h *TaxPlanHandler) GetPlan(c *gin.Context) {
	plan, err := h.planService.GetPlan(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, plan))
}

// Summary handles GET /tax-plans/:id/summary
// @Summary      Tax plan summary
// @Description  Totals, monthly balance and estimated PIS/COFINS credits of creditable expenses
// @Tags         tax-plans
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Plan ID"
// @Success      200  {object}  response.Response{data=service.TaxPlanSummary}
// @Failure      404  {object}  response.Response
// @Router       /tax-plans/{id}/summary [get]
func (h *TaxPlanHandler) Summary(c *gin.Context) {
	sum, err := h.planService.Summary(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sum))
}

// CreatePlan handles POST /tax-plans
// @Summary      Create tax plan
// @Tags         tax-plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.TaxPlanRequest  true  "Plan"
// @Success      201      {object}  response.Response{data=model.TaxPlan}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /tax-plans [post]
func (h *TaxPlanHandler) CreatePlan(c *gin.Context) {
	var req service.TaxPlanRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.planService.CreatePlan(c.Request.Context(), actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, plan))
}

// UpdatePlan handles PUT /tax-plans/:id
// @Summary      Update tax plan
// @Tags         tax-plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Plan ID"
// @Param        payload  body      service.TaxPlanRequest  true  "Plan"
// @Success      200      {object}  response.Response{data=model.TaxPlan}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /tax-plans/{id} [put]
func (h *TaxPlanHandler) UpdatePlan(c *gin.Context) {
	var req service.TaxPlanRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.planService.UpdatePlan(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, plan))
}

// DeletePlan handles DELETE /tax-plans/:id
// @Summary      Delete tax plan
// @Tags         tax-plans
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Plan ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /tax-plans/{id} [delete]
func (h *TaxPlanHandler) DeletePlan(c *gin.Context) {
	if err := h.planService.DeletePlan(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Tax plan deleted"}))
}

// AddRevenue handles POST /tax-plans/:id/revenues
// @Summary      Add revenue to a plan
// @Tags         tax-plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Plan ID"
// @Param        payload  body      service.PlanRevenueRequest  true  "Revenue"
// @Success      201      {object}  response.Response{data=model.PlanRevenue}
// @Failure      400      {object}  response.Response
// @Router       /tax-plans/{id}/revenues [post]
func (h *TaxPlanHandler) AddRevenue(c *gin.Context) {
	var req service.PlanRevenueRequest
	if !bindJSON(c, &req) {
		return
	}
	rev, err := h.planService.AddRevenue(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rev))
}

// DeleteRevenue handles DELETE /tax-plans/:id/revenues/:entryId
// @Summary      Remove revenue from a plan
// @Tags         tax-plans
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Plan ID"
// @Param        entryId  path      string  true  "Revenue ID"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /tax-plans/{id}/revenues/{entryId} [delete]
func (h *TaxPlanHandler) DeleteRevenue(c *gin.Context) {
	if err := h.planService.DeleteRevenue(c.Request.Context(), actor(c), c.Param("id"), c.Param("entryId")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Revenue deleted"}))
}

// AddExpense handles POST /tax-plans/:id/expenses
// @Summary      Add expense to a plan
// @Tags         tax-plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Plan ID"
// @Param        payload  body      service.PlanExpenseRequest  true  "Expense"
// @Success      201      {object}  response.Response{data=model.PlanExpense}
// @Failure      400      {object}  response.Response
// @Router       /tax-plans/{id}/expenses [post]
func (h *TaxPlanHandler) AddExpense(c *gin.Context) {
	var req service.PlanExpenseRequest
	if !bindJSON(c, &req) {
		return
	}
	exp, err := h.planService.AddExpense(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, exp))
}

// DeleteExpense handles DELETE /tax-plans/:id/expenses/:entryId
// @Summary      Remove expense from a plan
// @Tags         tax-plans
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Plan ID"
// @Param        entryId  path      string  true  "Expense ID"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /tax-plans/{id}/expenses/{entryId} [delete]
func (h *TaxPlanHandler) DeleteExpense(c *gin.Context) {
	if err := h.planService.DeleteExpense(c.Request.Context(), actor(c), c.Param("id"), c.Param("entryId")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Expense deleted"}))
}
