package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/curve-route-engine/internal/common"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Error(c *gin.Context, status int, err string) {
	c.JSON(status, Response{
		Success: false,
		Error:   err,
	})
}

func BadRequest(c *gin.Context, err string) {
	HandleHttpError(c, common.HTTPErrorBadRequest(err))
}

func NotFound(c *gin.Context, err string) {
	HandleHttpError(c, common.HTTPErrorNotFound(err))
}

// HandleHttpError writes e with its status and code
func HandleHttpError(c *gin.Context, e *common.HttpError) {
	c.JSON(e.StatusCode, Response{
		Success: false,
		Code:    e.Code,
		Error:   e.Message,
	})
}

// Aliases for compatibility
func HandleSuccess(c *gin.Context, data interface{}) {
	Success(c, data)
}

func HandleBadRequest(c *gin.Context, err string) {
	BadRequest(c, err)
}

func HandleNotFound(c *gin.Context, err string) {
	NotFound(c, err)
}
