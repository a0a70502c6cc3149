package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	invitationdomain "github.com/homelet/tenantlink/internal/invitation/domain"
	linkingdomain "github.com/homelet/tenantlink/internal/linking/domain"
	propertydomain "github.com/homelet/tenantlink/internal/property/domain"
	tenantdomain "github.com/homelet/tenantlink/internal/tenant/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(err),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, invitationdomain.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, invitationdomain.ErrExpired):
		return http.StatusGone, errorPayload{
			Type:    "invitation_expired",
			Message: "this invitation has expired",
		}
	case errors.Is(err, invitationdomain.ErrAlreadyResolved):
		return http.StatusConflict, errorPayload{
			Type:    "already_resolved",
			Message: "this invitation has already been accepted or declined",
		}
	case errors.Is(err, invitationdomain.ErrPendingExists):
		return http.StatusConflict, errorPayload{
			Type:    "pending_invitation_exists",
			Message: "a pending invitation already exists for this tenant",
		}
	case errors.Is(err, tenantdomain.ErrIdentityConflict):
		return http.StatusConflict, errorPayload{
			Type:    "identity_conflict",
			Message: "this tenant record is linked to another account",
		}
	case isNoMatchError(err):
		// Ambiguity and plain mismatch look identical from outside so a
		// prober cannot learn which tenant fields exist.
		return http.StatusNotFound, errorPayload{
			Type:    "no_match",
			Message: "no matching tenant record was found",
		}
	case errors.Is(err, invitationdomain.ErrInvalidToken):
		return http.StatusNotFound, errorPayload{
			Type:    "invalid_token",
			Message: "invitation not found",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, invitationdomain.ErrPropertyRequired),
		errors.Is(err, invitationdomain.ErrTenantRequired),
		errors.Is(err, invitationdomain.ErrEmailRequired),
		errors.Is(err, invitationdomain.ErrTokenRequired),
		errors.Is(err, linkingdomain.ErrPropertyRequired),
		errors.Is(err, linkingdomain.ErrTenantRequired),
		errors.Is(err, linkingdomain.ErrUserRequired),
		errors.Is(err, linkingdomain.ErrEmailRequired),
		errors.Is(err, linkingdomain.ErrNameRequired):
		return true
	default:
		return false
	}
}

func isNoMatchError(err error) bool {
	return errors.Is(err, linkingdomain.ErrNoMatch) ||
		errors.Is(err, tenantdomain.ErrAmbiguousTenant)
}

func isNotFoundError(err error) bool {
	return errors.Is(err, tenantdomain.ErrNotFound) || propertydomain.IsNotFound(err)
}

func validationErrorCode(err error) string {
	msg := err.Error()
	if strings.Contains(msg, " is required") {
		return "required"
	}
	return "invalid_request"
}

func validationErrorField(err error) string {
	msg := err.Error()
	if field, _, ok := strings.Cut(msg, " is required"); ok {
		return field
	}
	return "request"
}

// classifyErrorForLog reduces an error to a (type, code) pair for request
// logs without leaking tokens or tenant PII.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	return payload.Type, strconv.Itoa(status)
}
