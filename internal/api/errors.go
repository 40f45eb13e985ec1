package api

import (
	"net/http"
)

const (
	CodeValidationError  = "VALIDATION_ERROR"
	CodeAuthRequired     = "AUTHENTICATION_REQUIRED"
	CodeInvalidCreds     = "INVALID_CREDENTIALS"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeResourceNotFound = "RESOURCE_NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeAccountLocked    = "ACCOUNT_LOCKED"
	CodeInvalidState     = "INVALID_STATE"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeInternalError    = "INTERNAL_ERROR"
)

type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// additional error context
type ErrorContext map[string]interface{}

type ErrorBody struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
	Context ErrorContext  `json:"context,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// builder pattern
type ErrorBuilder struct {
	Status  int
	Code    string
	Message string
	Details []ErrorDetail
	Context ErrorContext
}

func NewError(status int, code, message string) *ErrorBuilder {
	return &ErrorBuilder{Status: status, Code: code, Message: message}
}

func (e *ErrorBuilder) WithDetails(details []ErrorDetail) *ErrorBuilder {
	e.Details = details
	return e
}

func (e *ErrorBuilder) WithContext(context ErrorContext) *ErrorBuilder {
	e.Context = context
	return e
}

func (e *ErrorBuilder) Create() ErrorResponse {
	return ErrorResponse{Error: ErrorBody{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Context: e.Context,
	}}
}

func (e *ErrorBuilder) Write(w http.ResponseWriter) {
	writeJSON(w, e.Status, e.Create())
}

// builder pattern extensions

func Unauthorized(msg string) *ErrorBuilder {
	return NewError(http.StatusUnauthorized, CodeAuthRequired, msg)
}

func PermissionDenied(msg string) *ErrorBuilder {
	return NewError(http.StatusForbidden, CodePermissionDenied, msg)
}

func NotFound(resource string) *ErrorBuilder {
	return NewError(http.StatusNotFound, CodeResourceNotFound, resource+" not found")
}

func ValidationErr(msg string, details []ErrorDetail) *ErrorBuilder {
	return NewError(http.StatusBadRequest, CodeValidationError, msg).WithDetails(details)
}

func InvalidStateErr(msg string) *ErrorBuilder {
	return NewError(http.StatusConflict, CodeInvalidState, msg)
}

func InternalError(msg string) *ErrorBuilder {
	return NewError(http.StatusInternalServerError, CodeInternalError, msg)
}

func ConflictErr(msg string) *ErrorBuilder {
	return NewError(http.StatusConflict, CodeConflict, msg)
}
