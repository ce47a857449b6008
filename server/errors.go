package server

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/authgate/authgate/errs"
)

// errorBody is the uniform error envelope every failed request returns.
type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

func newErrorBody(status int, message string) errorBody {
	return errorBody{
		StatusCode: status,
		Message:    message,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

// writeError classifies err and writes the envelope. Typed errors map
// directly; plain errors are inspected by message content; anything else is
// a 500 whose detail is logged but not returned.
func writeError(c *gin.Context, err error) {
	if e, ok := errs.As(err); ok {
		c.AbortWithStatusJSON(e.Status(), newErrorBody(e.Status(), e.Message))
		return
	}

	msg := err.Error()
	upper := strings.ToUpper(msg)
	switch {
	case strings.Contains(upper, "UNAUTHORIZED"):
		c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorBody(http.StatusUnauthorized, msg))
	case strings.Contains(upper, "NOT_FOUND"), strings.Contains(upper, "DOES_NOT_EXIST"):
		c.AbortWithStatusJSON(http.StatusNotFound, newErrorBody(http.StatusNotFound, msg))
	case strings.Contains(upper, "INVALID"), strings.Contains(upper, "BAD_REQUEST"):
		c.AbortWithStatusJSON(http.StatusBadRequest, newErrorBody(http.StatusBadRequest, msg))
	default:
		log.Printf("internal error: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			newErrorBody(http.StatusInternalServerError, "Internal server error"))
	}
}

// writeBindError wraps gin binding failures into the common envelope.
func writeBindError(c *gin.Context, err error) {
	writeError(c, errs.InvalidInput("INVALID_REQUEST_BODY: "+err.Error()))
}
