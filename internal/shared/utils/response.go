package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openpublisher/openpublisher/internal/shared/errors"
)

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Result  string     `json:"result"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

type ErrorInfo struct {
	Type    string `json:"type"`
	Details string `json:"details,omitempty"`
}

type ListResponse struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"page_size"`
}

// SuccessResponse sends a successful response with custom status code
func SuccessResponse(c *gin.Context, statusCode int, message string, data any) {
	c.JSON(statusCode, APIResponse{
		Result:  ResultSuccess,
		Message: message,
		Data:    data,
	})
}

func CreatedResponse(c *gin.Context, data any, message string) {
	SuccessResponse(c, http.StatusCreated, message, data)
}

func ListSuccessResponse(c *gin.Context, items any, total int64, page, pageSize int) {
	SuccessResponse(c, http.StatusOK, "", ListResponse{
		Items: items,
		Total: total,
		Page:  page,
		Size:  pageSize,
	})
}

// ErrorResponse sends an error response with custom status code and message
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, APIResponse{
		Result:  ResultError,
		Message: message,
		Error:   &ErrorInfo{Type: "error"},
	})
}

// ErrorResponseWithError maps err onto the envelope. Anything that is not an
// AppError is reported as a generic internal error so driver or RPC text
// never reaches the client.
func ErrorResponseWithError(c *gin.Context, err error) {
	appErr := errors.GetAppError(err)
	if appErr == nil {
		c.JSON(http.StatusInternalServerError, APIResponse{
			Result:  ResultError,
			Message: "Internal server error occurred",
			Error:   &ErrorInfo{Type: string(errors.ErrorTypeInternal)},
		})
		return
	}

	info := &ErrorInfo{Type: string(appErr.Type), Details: appErr.Details}
	if appErr.Code >= http.StatusInternalServerError && appErr.Type == errors.ErrorTypeInternal {
		info.Details = ""
	}
	c.JSON(appErr.Code, APIResponse{
		Result:  ResultError,
		Message: appErr.Message,
		Error:   info,
	})
}
