package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope consumed by the intake form and the dashboard
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// SuccessResponse returns a successful JSON response. extra keys are merged
// at the top level so that contracts like {success, reports} stay flat.
func SuccessResponse(c *gin.Context, message string, extra gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// ErrorResponse returns an error JSON response. err is only echoed outside
// release mode so that store internals never reach a submitter.
func ErrorResponse(c *gin.Context, status int, message string, err error) {
	resp := APIResponse{
		Success: false,
		Message: message,
		Code:    getErrorCode(status),
	}
	if err != nil && gin.Mode() != gin.ReleaseMode {
		resp.Error = err.Error()
	}
	c.JSON(status, resp)
}

// getErrorCode generates error code from HTTP status
func getErrorCode(status int) string {
	switch status {
	case 400:
		return "BAD_REQUEST"
	case 401:
		return "UNAUTHORIZED"
	case 403:
		return "FORBIDDEN"
	case 404:
		return "NOT_FOUND"
	case 409:
		return "CONFLICT"
	case 413:
		return "PAYLOAD_TOO_LARGE"
	case 429:
		return "RATE_LIMITED"
	case 500:
		return "INTERNAL_SERVER_ERROR"
	case 503:
		return "SERVICE_UNAVAILABLE"
	default:
		return "ERROR"
	}
}
