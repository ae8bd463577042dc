package handler

import (
	"errors"
	"net/http"
	"strconv"

	"occ-api/internal/middleware"
	"occ-api/internal/model"
	"occ-api/internal/service"
	"occ-api/pkg/pagination"
	"occ-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaxCalculationHandler struct {
	taxService service.TaxCalculationService
}

func NewTaxCalculationHandler(taxService service.TaxCalculationService) *TaxCalculationHandler {
	return &TaxCalculationHandler{taxService: taxService}
}

func (h *TaxCalculationHandler) RegisterRoutes(router *gin.RouterGroup) {
	tax := router.Group("/tax-calculations")
	tax.Use(middleware.RequireAuth())
	{
		tax.POST("", h.Calculate)
		tax.POST("/simulate", middleware.RequirePermission(model.PermTaxSimulate), h.Simulate)
		tax.GET("", h.ListReports)
		tax.GET("/:id", h.GetReport)
		tax.DELETE("/:id", h.DeleteReport)
	}
}

// Calculate handles POST /tax-calculations
// @Summary      Compare tax regimes
// @Description  Computes Simples Nacional, Lucro Presumido and Lucro Real for a company, stores the report and notifies staff.
// @Description  When the report cannot be stored the comparison is still returned with a warning.
// @Tags         tax-calculations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.TaxCalculationRequest  true  "Company and financial figures"
// @Success      200      {object}  response.Response{data=service.CalculationResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /tax-calculations [post]
func (h *TaxCalculationHandler) Calculate(c *gin.Context) {
	var req service.TaxCalculationRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.taxService.Calculate(c.Request.Context(), actor(c), req)
	var persistErr *service.ReportPersistenceError
	if errors.As(err, &persistErr) {
		_ = c.Error(err)
		c.JSON(http.StatusOK, response.SuccessWithWarning(http.StatusOK, res, "Calculation completed but the report could not be saved"))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Simulate handles POST /tax-calculations/simulate
// @Summary      Simulate a comparison
// @Description  Runs the comparison without a company and without storing anything
// @Tags         tax-calculations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.TaxInputRequest  true  "Financial figures"
// @Success      200      {object}  response.Response{data=taxcalc.Comparison}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /tax-calculations/simulate [post]
func (h *TaxCalculationHandler) Simulate(c *gin.Context) {
	var req service.TaxInputRequest
	if !bindJSON(c, &req) {
		return
	}

	cmp, err := h.taxService.Simulate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cmp))
}

// ListReports handles GET /tax-calculations
// @Summary      List stored reports
// @Description  Clients only see reports of their own company
// @Tags         tax-calculations
// @Produce      json
// @Security     BearerAuth
// @Param        company_id  query     string  false  "Company ID"
// @Param        year        query     int     false  "Fiscal year"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Items per page (default 20, max 100)"
// @Success      200         {object}  response.Response{data=[]service.ReportSummary}
// @Router       /tax-calculations [get]
func (h *TaxCalculationHandler) ListReports(c *gin.Context) {
	filter := service.ReportListFilter{CompanyID: c.Query("company_id")}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.FieldError(http.StatusBadRequest, "year must be a number", "year", ""))
			return
		}
		filter.Year = year
	}

	p := pagination.Parse(c)
	reports, total, err := h.taxService.ListReports(c.Request.Context(), actor(c), filter, p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, reports, response.NewMeta(p.Page, p.Limit, total)))
}

// GetReport handles GET /tax-calculations/:id
// @Summary      Get a stored report
// @Tags         tax-calculations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=service.ReportDetail}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /tax-calculations/{id} [get]
func (h *TaxCalculationHandler) GetReport(c *gin.Context) {
	report, err := h.taxService.GetReport(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// DeleteReport handles DELETE /tax-calculations/:id
// @Summary      Delete a stored report
// @Description  Allowed for staff and for the user who created the report
// @Tags         tax-calculations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /tax-calculations/{id} [delete]
func (h *TaxCalculationHandler) DeleteReport(c *gin.Context) {
	if err := h.taxService.DeleteReport(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Report deleted"}))
}
