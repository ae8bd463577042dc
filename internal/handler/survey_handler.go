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

type SurveyHandler struct {
	surveyService service.SurveyService
}

func NewSurveyHandler(surveyService service.SurveyService) *SurveyHandler {
	return &SurveyHandler{surveyService: surveyService}
}

func (h *SurveyHandler) RegisterRoutes(router *gin.RouterGroup) {
	write := middleware.RequirePermission(model.PermSurveysWrite)

	surveys := router.Group("/surveys")
	surveys.Use(middleware.RequireAuth())
	{
		surveys.GET("", h.ListSurveys)
		surveys.GET("/:id", h.GetSurvey)
		surveys.POST("", write, h.CreateSurvey)
		surveys.PUT("/:id", write, h.UpdateSurvey)
		surveys.DELETE("/:id", write, h.DeleteSurvey)

		surveys.POST("/:id/responses", h.SubmitResponse)
		surveys.GET("/:id/responses", middleware.RequirePermission(model.PermSurveyResponsesRead), h.ListResponses)
	}
}

// ListSurveys handles GET /surveys
// @Summary      List surveys
// @Description  Clients only see active surveys
// @Tags         surveys
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20, max 100)"
// @Success      200    {object}  response.Response{data=[]model.Survey}
// @Router       /surveys [get]
func (h *SurveyHandler) ListSurveys(c *gin.Context) {
	p := pagination.Parse(c)
	surveys, total, err := h.surveyService.ListSurveys(c.Request.Context(), actor(c), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, surveys, response.NewMeta(p.Page, p.Limit, total)))
}

// GetSurvey handles GET /surveys/:id
// @Summary      Get survey with questions
// @Tags         surveys
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Survey ID"
// @Success      200  {object}  response.Response{data=model.Survey}
// @Failure      404  {object}  response.Response
// @Router       /surveys/{id} [get]
func (h *SurveyHandler) GetSurvey(c *gin.Context) {
	survey, err := h.surveyService.GetSurvey(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, survey))
}

// CreateSurvey handles POST /surveys
// @Summary      Create survey
// @Tags         surveys
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SurveyRequest  true  "Survey with questions"
// @Success      201      {object}  response.Response{data=model.Survey}
// @Failure      400      {object}  response.Response
// @Router       /surveys [post]
func (h *SurveyHandler) CreateSurvey(c *gin.Context) {
	var req service.SurveyRequest
	if !bindJSON(c, &req) {
		return
	}
	survey, err := h.surveyService.CreateSurvey(c.Request.Context(), actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, survey))
}

// UpdateSurvey handles PUT /surveys/:id
// @Summary      Update survey
// @Description  Sending questions replaces the whole question set
// @Tags         surveys
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Survey ID"
// @Param        payload  body      service.SurveyRequest  true  "Survey"
// @Success      200      {object}  response.Response{data=model.Survey}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /surveys/{id} [put]
func (h *SurveyHandler) UpdateSurvey(c *gin.Context) {
	var req service.SurveyRequest
	if !bindJSON(c, &req) {
		return
	}
	survey, err := h.surveyService.UpdateSurvey(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, survey))
}

// DeleteSurvey handles DELETE /surveys/:id
// @Summary      Delete survey
// @Tags         surveys
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Survey ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /surveys/{id} [delete]
func (h *SurveyHandler) DeleteSurvey(c *gin.Context) {
	if err := h.surveyService.DeleteSurvey(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Survey deleted"}))
}

// SubmitResponse handles POST /surveys/:id/responses
// @Summary      Answer a survey
// @Description  Each user answers a survey once
// @Tags         surveys
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Survey ID"
// @Param        payload  body      service.SubmitResponseRequest  true  "Answers"
// @Success      201      {object}  response.Response{data=model.SurveyResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /surveys/{id}/responses [post]
func (h *SurveyHandler) SubmitResponse(c *gin.Context) {
	var req service.SubmitResponseRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.surveyService.SubmitResponse(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, resp))
}

// ListResponses handles GET /surveys/:id/responses
// @Summary      List survey responses
// @Tags         surveys
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Survey ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20, max 100)"
// @Success      200    {object}  response.Response{data=[]model.SurveyResponse}
// @Router       /surveys/{id}/responses [get]
func (h *SurveyHandler) ListResponses(c *gin.Context) {
	p := pagination.Parse(c)
	responses, total, err := h.surveyService.ListResponses(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, responses, response.NewMeta(p.Page, p.Limit, total)))
}
