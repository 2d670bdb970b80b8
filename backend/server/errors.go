package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"skysafe/backend/authz"
	"skysafe/backend/db"
	"skysafe/backend/report"
	"skysafe/backend/server/api"
)

// respondError maps the service error taxonomy onto HTTP. The
// redirect hint names the safe listing a client should fall back to,
// so forbidden and missing resources never render as hard failures.
func respondError(c *gin.Context, err error, redirect string) {
	var validation report.ValidationErrors
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  "validation failed",
			Fields: validation,
		})
	case errors.Is(err, authz.ErrForbidden):
		c.JSON(http.StatusForbidden, api.ErrorResponse{
			Error:    "you do not have access to this resource",
			Redirect: redirect,
		})
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Error:    err.Error(),
			Redirect: redirect,
		})
	case errors.Is(err, db.ErrDuplicateUsername):
		c.JSON(http.StatusConflict, api.ErrorResponse{
			Error:  "username is taken",
			Fields: map[string]string{"username": "already in use"},
		})
	case errors.Is(err, db.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, api.ErrorResponse{
			Error:  "email is taken",
			Fields: map[string]string{"email": "already in use"},
		})
	case errors.Is(err, db.ErrDuplicate):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal error"})
	}
}
