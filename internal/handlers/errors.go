package handlers

import (
	"net/http"

	"studygenie/internal/errs"

	"github.com/gin-gonic/gin"
)

// writeError translates a taxonomy error into an HTTP response. Anything
// unclassified is reported as a bad gateway: the failure happened past
// the client's own boundary.
func writeError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	if kind, ok := errs.KindOf(err); ok {
		switch kind {
		case errs.Validation:
			status = http.StatusBadRequest
		case errs.Auth:
			status = http.StatusUnauthorized
		case errs.Conflict:
			status = http.StatusConflict
		case errs.Definition:
			status = http.StatusUnprocessableEntity
		case errs.Transport:
			status = http.StatusBadGateway
		}
	}
	c.JSON(status, gin.H{"message": err.Error()})
}
