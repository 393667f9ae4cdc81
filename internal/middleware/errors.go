package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cleanspin/laundry-ops/pkg/apperr"
)

// ErrorBody renders err the way every endpoint reports failures:
// {"error": "already_claimed", "message": "...", "code": "ALREADY_CLAIMED"}
func ErrorBody(err error) gin.H {
	kind := apperr.KindOf(err)
	msg := apperr.DefaultMessage(kind)
	if e, ok := err.(*apperr.Error); ok && e.Message != "" && kind != apperr.Internal {
		msg = e.Message
	}
	return gin.H{
		"error":   strings.ToLower(string(kind)),
		"message": msg,
		"code":    string(kind),
	}
}

// AbortWithError writes err with the status of its kind and stops the chain
func AbortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(apperr.KindOf(err)), ErrorBody(err))
}
