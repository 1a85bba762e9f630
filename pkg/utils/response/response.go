// Package response writes the JSON envelopes returned by the HTTP API.
//
// Successful payloads are written as flat objects owned by each handler.
// Failures always use the same shape:
//
//	{"error": "Failed to extract text from document: malformed PDF", "code": 2001002}
package response

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-report/pkg/utils/errors"
)

// ErrorBody is the payload written for any failed request.
type ErrorBody struct {
	// Error is a human-readable message
	Error string `json:"error"`

	// Code is the business error code
	Code int `json:"code,omitempty"`

	// RequestID is the unique request identifier for tracing
	RequestID string `json:"request_id,omitempty"`
}

// RequestIDKey is the gin context key holding the request ID.
const RequestIDKey = "request_id"

// Err builds the error body for an Errno.
func Err(e *errors.Errno) *ErrorBody {
	if e == nil {
		e = errors.ErrInternal
	}
	return &ErrorBody{
		Error: e.Detail(),
		Code:  e.Code,
	}
}

// Fail writes err as an error response and aborts the handler chain.
// Errors outside the errno registry are reported as internal errors.
func Fail(c *gin.Context, err error) {
	e := errors.FromError(err)
	body := Err(e)
	if id := c.GetString(RequestIDKey); id != "" {
		body.RequestID = id
	}

	if errors.IsServerError(e.Code) {
		logger.Errorw("request failed",
			"path", c.Request.URL.Path,
			"code", e.Code,
			"error", err.Error(),
			"request_id", body.RequestID,
		)
	}

	c.AbortWithStatusJSON(e.HTTPStatus(), body)
}

// OK writes data with HTTP 200.
func OK(c *gin.Context, data any) {
	c.JSON(200, data)
}
