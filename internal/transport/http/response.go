package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sleepvoice-server-go/internal/platform/errors"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
	Code    int         `json:"code"`
}

// RespondSuccess writes a success envelope.
func RespondSuccess(c *gin.Context, httpStatus int, data interface{}, message string) {
	if message == "" {
		message = "ok"
	}
	c.JSON(httpStatus, APIResponse{
		Success: true,
		Message: message,
		Code:    httpStatus,
		Data:    data,
	})
}

// RespondError writes a failure envelope.
func RespondError(c *gin.Context, httpStatus int, message string, data interface{}) {
	c.JSON(httpStatus, APIResponse{
		Success: false,
		Message: message,
		Code:    httpStatus,
		Data:    data,
	})
}

// RespondErr maps a typed error to a status: malformed requests are 400,
// everything else is 500 with the detail kept out of the body.
func RespondErr(c *gin.Context, err error) {
	_ = c.Error(err)
	switch errors.KindOf(err) {
	case errors.KindDomain, errors.KindTransport:
		RespondError(c, http.StatusBadRequest, err.Error(), gin.H{})
	default:
		RespondError(c, http.StatusInternalServerError, "internal error", gin.H{})
	}
}
