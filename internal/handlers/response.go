// internal/handlers/response.go
package handlers

import (
	"agv-simulator/internal/common/apperr"
	"agv-simulator/internal/utils"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// StandardResponse API 응답 봉투
type StandardResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SuccessResponse 성공 응답
func SuccessResponse(message string, data interface{}) StandardResponse {
	return StandardResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
}

// ErrorResponse 실패 응답
func ErrorResponse(message string, data interface{}) StandardResponse {
	return StandardResponse{
		Status:  "error",
		Message: message,
		Data:    data,
	}
}

// StatusFor 도메인 에러를 HTTP 상태 코드로
func StatusFor(err error) int {
	switch {
	case apperr.IsValidationError(err):
		return http.StatusBadRequest
	case apperr.IsConcurrencyViolation(err):
		return http.StatusConflict
	case apperr.IsPreconditionError(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorHandler echo 중앙 에러 핸들러
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := StatusFor(err)
	message := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}

	log := utils.Component("http").WithField("path", c.Path())
	if code >= http.StatusInternalServerError {
		log.Errorf("Request failed: %v", err)
	} else {
		log.Debugf("Request rejected (%d): %v", code, err)
	}

	if err := c.JSON(code, ErrorResponse(message, nil)); err != nil {
		log.Errorf("Failed to write error response: %v", err)
	}
}
