package handlers

import (
	"net/http"

	"tajeats-api/apperr"
	"tajeats-api/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError writes the JSON error for err. Unclassified errors are logged
// and reported as 500 without leaking their text.
func respondError(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok {
		logger.FromGin(c).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	body := gin.H{"error": e.Error()}
	status := http.StatusInternalServerError
	switch e.Kind {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindAlreadyExists:
		status = http.StatusConflict
	case apperr.KindInvalidArgument:
		status = http.StatusBadRequest
	case apperr.KindInvalidCredentials:
		status = http.StatusUnauthorized
	case apperr.KindPendingApproval:
		status = http.StatusForbidden
		if e.Profile != nil {
			body["user"] = e.Profile
		}
	case apperr.KindInvalidTransition:
		status = http.StatusUnprocessableEntity
		body["error"] = "Invalid state transition"
		body["reason"] = e.Error()
		for k, v := range e.Details {
			body[k] = v
		}
	case apperr.KindForbidden:
		status = http.StatusForbidden
	}
	c.JSON(status, body)
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, gin.H{"error": msg})
}
