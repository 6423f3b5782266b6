package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeUnavailable  ErrorType = "UNAVAILABLE"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"

	ErrCodeUserNotFound           ErrorCode = "USER_NOT_FOUND"
	ErrCodeMenuNotFound           ErrorCode = "MENU_NOT_FOUND"
	ErrCodeGrantNotFound          ErrorCode = "GRANT_NOT_FOUND"
	ErrCodeInvalidGrantTarget     ErrorCode = "INVALID_GRANT_TARGET"
	ErrCodeInvalidPermissionLevel ErrorCode = "INVALID_PERMISSION_LEVEL"
	ErrCodeInvalidTargetType      ErrorCode = "INVALID_TARGET_TYPE"
	ErrCodeCategoryNotGrantable   ErrorCode = "CATEGORY_NOT_GRANTABLE"

	ErrCodeMenuCodeTaken         ErrorCode = "MENU_CODE_TAKEN"
	ErrCodeMenuHierarchyInvalid  ErrorCode = "MENU_HIERARCHY_INVALID"
	ErrCodeMenuHasChildren       ErrorCode = "MENU_HAS_CHILDREN"
	ErrCodeMenuHasGrants         ErrorCode = "MENU_HAS_GRANTS"
	ErrCodeInvalidMenuType       ErrorCode = "INVALID_MENU_TYPE"
	ErrCodeCacheUnavailable      ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeUnauthorizedAccess    ErrorCode = "UNAUTHORIZED_ACCESS"
	ErrCodeInvalidToken          ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired          ErrorCode = "TOKEN_EXPIRED"
	ErrCodeMissingAuthentication ErrorCode = "MISSING_AUTHENTICATION"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same code, so sentinels survive WithCause copies and %w wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy; sentinels are shared and must not be mutated.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewUnavailableError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnavailable,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
	}
}

var (
	ErrUserNotFound           = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrMenuNotFound           = NewNotFoundError("menu not found", ErrCodeMenuNotFound)
	ErrGrantNotFound          = NewNotFoundError("no active grant for menu and target", ErrCodeGrantNotFound)
	ErrInvalidGrantTarget     = NewValidationError("grant target does not exist", ErrCodeInvalidGrantTarget)
	ErrInvalidPermissionLevel = NewValidationError("invalid permission level", ErrCodeInvalidPermissionLevel)
	ErrInvalidTargetType      = NewValidationError("invalid grant target type", ErrCodeInvalidTargetType)
	ErrCategoryNotGrantable   = NewValidationError("category menus cannot carry grants", ErrCodeCategoryNotGrantable)

	ErrMenuCodeTaken        = NewConflictError("menu code already exists", ErrCodeMenuCodeTaken)
	ErrMenuHierarchyInvalid = NewValidationError("invalid menu hierarchy", ErrCodeMenuHierarchyInvalid)
	ErrMenuHasChildren      = NewConflictError("menu has active children", ErrCodeMenuHasChildren)
	ErrMenuHasGrants        = NewConflictError("menu has active grants", ErrCodeMenuHasGrants)
	ErrInvalidMenuType      = NewValidationError("invalid menu type", ErrCodeInvalidMenuType)

	ErrCacheUnavailable   = NewUnavailableError("permission cache unavailable", ErrCodeCacheUnavailable)
	ErrUnauthorizedAccess = NewForbiddenError("insufficient permissions", ErrCodeUnauthorizedAccess)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
	ErrMissingToken       = NewUnauthorizedError("missing authorization token", ErrCodeMissingAuthentication)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
