package handler

import (
	"net/http"

	"occ-api/internal/middleware"
	"occ-api/internal/model"
	"occ-api/internal/service"
	"occ-api/pkg/pagination"
	"occ-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type CNAEHandler struct {
	cnaeService service.CNAEService
}

func NewCNAEHandler(cnaeService service.CNAEService) *CNAEHandler {
	return &CNAEHandler{cnaeService: cnaeService}
}

func (h *CNAEHandler) RegisterRoutes(router *gin.RouterGroup) {
	cnae := router.Group("/cnae")
	cnae.Use(middleware.RequireAuth())
	{
		cnae.GET("/search", h.Search)
		cnae.GET("/code/:code", h.GetByCode)
		cnae.GET("/anexos/:anexo", h.ByAnnex)
		cnae.GET("/cache/stats", middleware.RequirePermission(model.PermCNAECacheManage), h.CacheStats)
		cnae.DELETE("/cache", middleware.RequirePermission(model.PermCNAECacheManage), h.ClearCache)
	}
}

// Search handles GET /cnae/search
// @Summary      Search CNAE activities
// @Description  Accent and case insensitive search over code and description
// @Tags         cnae
// @Produce      json
// @Security     BearerAuth
// @Param        q      query     string  false  "Search term (max 100 characters)"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20, max 100)"
// @Success      200    {object}  response.Response{data=service.CNAESearchResult}
// @Failure      400    {object}  response.Response
// @Router       /cnae/search [get]
func (h *CNAEHandler) Search(c *gin.Context) {
	res, err := h.cnaeService.Search(c.Request.Context(), c.Query("q"), pagination.Parse(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, res.Items, response.NewMeta(res.Page, res.Limit, int64(res.Total))))
}

// GetByCode handles GET /cnae/code/:code
// @Summary      Get CNAE by code
// @Tags         cnae
// @Produce      json
// @Security     BearerAuth
// @Param        code  path      string  true  "7-digit CNAE code, punctuation allowed"
// @Success      200   {object}  response.Response{data=service.CNAEDetail}
// @Failure      404   {object}  response.Response
// @Router       /cnae/code/{code} [get]
func (h *CNAEHandler) GetByCode(c *gin.Context) {
	detail, err := h.cnaeService.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// ByAnnex handles GET /cnae/anexos/:anexo
// @Summary      Activities and brackets of an annex
// @Tags         cnae
// @Produce      json
// @Security     BearerAuth
// @Param        anexo  path      string  true  "Roman numeral I to V"
// @Success      200    {object}  response.Response{data=service.AnnexActivities}
// @Failure      400    {object}  response.Response
// @Router       /cnae/anexos/{anexo} [get]
func (h *CNAEHandler) ByAnnex(c *gin.Context) {
	res, err := h.cnaeService.ByAnnex(c.Request.Context(), c.Param("anexo"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// CacheStats handles GET /cnae/cache/stats
// @Summary      CNAE cache statistics
// @Tags         cnae
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.CacheStats}
// @Router       /cnae/cache/stats [get]
func (h *CNAEHandler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.cnaeService.CacheStats()))
}

// ClearCache handles DELETE /cnae/cache
// @Summary      Clear the CNAE cache
// @Tags         cnae
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /cnae/cache [delete]
func (h *CNAEHandler) ClearCache(c *gin.Context) {
	n := h.cnaeService.ClearCache(c.Request.Context(), actor(c))
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"removed": n}))
}
