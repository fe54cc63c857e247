package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hrbackend/internal/engine"
	"hrbackend/pkg/response"
)

// writeError maps engine errors onto HTTP statuses: validation 400, forbidden
// 403, not found 404, conflicts (stale status, closed run, terminal header,
// no eligible options) 409, everything else 500.
func writeError(c *gin.Context, err error) {
	var verr *engine.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, verr.Error()))
	case errors.Is(err, engine.ErrForbidden):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, err.Error()))
	case errors.Is(err, engine.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, engine.ErrConflict), errors.Is(err, engine.ErrNoEligibleOptions):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}

// actorID reads the authenticated user id the auth middleware stored.
func actorID(c *gin.Context) (uuid.UUID, bool) {
	raw, _ := c.Get("userID")
	str, _ := raw.(string)
	id, err := uuid.Parse(str)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid user identity"))
		return uuid.Nil, false
	}
	return id, true
}

// pathID parses the :id route parameter.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid id"))
		return uuid.Nil, false
	}
	return id, true
}
