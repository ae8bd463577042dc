package handler

import (
	"net/http"

	"occ-api/internal/middleware"
	"occ-api/internal/model"
	"occ-api/internal/repository"
	"occ-api/internal/service"
	"occ-api/pkg/pagination"
	"occ-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/audit-logs")
	group.Use(middleware.RequirePermission(model.PermAuditRead))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs retrieves paginated records with the acting user's name
// @Summary      Get audit logs
// @Description  Newest first, filterable by entity and action
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        entity_name  query     string  false  "Entity name, e.g. client"
// @Param        action       query     string  false  "Action, e.g. CREATE_CLIENT"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200          {object}  response.Response{data=[]service.AuditLogResponse}
// @Router       /audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	filter := repository.AuditFilter{
		EntityName: c.Query("entity_name"),
		Action:     c.Query("action"),
	}
	p := pagination.Parse(c)

	logs, total, err := h.auditService.List(c.Request.Context(), filter, p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, logs, response.NewMeta(p.Page, p.Limit, total)))
}
