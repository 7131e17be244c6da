// Package common содержит общие типы для HTTP слоя.
//
// Вынесен в отдельный пакет чтобы избежать циклических импортов
// между handlers и основным http пакетом.
package common

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wallethub/ledgercore/internal/domain/apperrors"
)

// ============================================
// Request ID
// ============================================

const RequestIDKey = "X-Request-ID"

// GetRequestID возвращает Request ID из контекста.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		return id.(string)
	}
	return ""
}

// SetRequestID устанавливает Request ID в контекст.
func SetRequestID(c *gin.Context, id string) {
	c.Set(RequestIDKey, id)
	c.Header(RequestIDKey, id)
}

// errorEnvelope is the wire shape of every error response rendered through
// this package: a flat {"error": {"code", "message", "details"}} object, no
// success wrapper. The recovery and rate-limit middleware write their own
// error bodies and do not use it.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    apperrors.Code         `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RenderAppError writes an *AppError using its own HTTPStatus and the
// literal error envelope. This is the single place the HTTP layer turns a
// domain error into bytes on the wire.
func RenderAppError(c *gin.Context, appErr *apperrors.AppError) {
	c.JSON(appErr.HTTPStatus, errorEnvelope{
		Error: errorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		},
	})
}

// RenderError converts any error to an AppError (wrapping unrecognized
// errors as CodeInternal) and writes it.
func RenderError(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok {
		RenderAppError(c, appErr)
		return
	}
	RenderAppError(c, apperrors.NewInternal(err))
}

// RenderNotFound writes the route-not-found response used by the router's
// NoRoute handler.
func RenderNotFound(c *gin.Context) {
	RenderAppError(c, apperrors.NewRouteNotFound())
}

// RenderJSONBody writes a pre-serialized JSON body (as produced by the
// mutation engine) verbatim with the given status code, setting the
// content type explicitly since the body is already encoded.
func RenderJSONBody(c *gin.Context, statusCode int, body string) {
	c.Data(statusCode, "application/json; charset=utf-8", []byte(body))
}

// RenderJSON marshals an arbitrary value as the success response body.
func RenderJSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// RenderValidation renders a 400 VALIDATION_ERROR with field-level details,
// used by handlers binding/validating request DTOs.
func RenderValidation(c *gin.Context, message string, details map[string]interface{}) {
	appErr := apperrors.NewValidation(message)
	if details != nil {
		appErr.Details = details
	}
	RenderAppError(c, appErr)
}

// StatusOK re-exports http.StatusOK so handlers only need to import this
// package for status codes used alongside RenderJSONBody/RenderJSON.
const StatusOK = http.StatusOK
