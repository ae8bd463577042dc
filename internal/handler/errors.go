package handler

import (
	"errors"
	"net/http"

	"occ-api/internal/middleware"
	"occ-api/internal/service"
	"occ-api/internal/taxcalc"
	"occ-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError maps service and calculator errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var (
		vErr  *taxcalc.ValidationError
		inErr *service.InputError
	)
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, response.FieldError(http.StatusBadRequest, vErr.Message, vErr.Field, vErr.Bound))
	case errors.As(err, &inErr):
		c.JSON(http.StatusBadRequest, response.FieldError(http.StatusBadRequest, inErr.Message, inErr.Field, ""))
	case errors.Is(err, taxcalc.ErrZeroRevenue), errors.Is(err, taxcalc.ErrRevenueAboveCeiling):
		c.JSON(http.StatusUnprocessableEntity, response.Error(http.StatusUnprocessableEntity, err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrInactiveUser):
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Internal server error"))
	}
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return false
	}
	return true
}

// actor returns the authenticated caller. Anonymous requests get the zero Actor.
func actor(c *gin.Context) service.Actor {
	id, role, ok := middleware.CurrentUser(c)
	if !ok {
		return service.Actor{}
	}
	return service.Actor{ID: id, Role: role}
}
