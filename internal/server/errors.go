package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldforge/fieldforge/internal/authz"
	companydomain "github.com/fieldforge/fieldforge/internal/company/domain"
	invoicedomain "github.com/fieldforge/fieldforge/internal/invoice/domain"
	"github.com/fieldforge/fieldforge/internal/notification"
	orderdomain "github.com/fieldforge/fieldforge/internal/order/domain"
	"github.com/fieldforge/fieldforge/internal/tenant"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidRequest     = errors.New("invalid_request")
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

// mapError renders a cross-tenant mismatch exactly like a missing entity so
// external callers cannot probe for companies in other tenants. The two
// remain distinct in logs via classifyErrorForLog.
func mapError(err error) (int, errorPayload) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	case errors.Is(err, orderdomain.ErrCustomerNotFound):
		return http.StatusNotFound, errorPayload{Type: "customer_not_found", Message: "customer not found"}
	case isNotFoundError(err), errors.Is(err, tenant.ErrTenantMismatch):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: "not found"}
	case errors.Is(err, orderdomain.ErrInvalidTransition):
		return http.StatusConflict, errorPayload{Type: "invalid_transition", Message: "transition not allowed from current status"}
	case errors.Is(err, authz.ErrDenied):
		return http.StatusForbidden, errorPayload{Type: "forbidden", Message: "forbidden"}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, tenant.ErrMissingCaller),
		errors.Is(err, orderdomain.ErrMissingCaller),
		errors.Is(err, companydomain.ErrMissingCaller):
		return http.StatusUnauthorized, errorPayload{Type: "unauthorized", Message: "unauthorized"}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{Type: "validation_error", Message: err.Error()}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{Type: "service_unavailable", Message: "service unavailable"}
	default:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, tenant.ErrNotFound),
		errors.Is(err, companydomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound):
		return true
	default:
		return false
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, notification.ErrMalformedRequest),
		errors.Is(err, orderdomain.ErrInvalidID),
		errors.Is(err, orderdomain.ErrInvalidStatus),
		errors.Is(err, orderdomain.ErrInvalidSchedule),
		errors.Is(err, orderdomain.ErrInvalidWindow),
		errors.Is(err, invoicedomain.ErrInvalidID),
		errors.Is(err, invoicedomain.ErrCustomerMissing),
		errors.Is(err, companydomain.ErrInvalidID),
		errors.Is(err, companydomain.ErrInvalidName),
		errors.Is(err, companydomain.ErrInvalidDomain),
		errors.Is(err, companydomain.ErrInvalidEmail),
		errors.Is(err, companydomain.ErrInvalidToken),
		errors.Is(err, companydomain.ErrInviteNotOpen),
		errors.Is(err, companydomain.ErrDomainMismatch),
		errors.Is(err, companydomain.ErrRoleNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog labels request log lines. Unlike the response body it
// keeps tenant_mismatch distinct from not_found.
func classifyErrorForLog(err error) (string, string) {
	switch {
	case errors.Is(err, tenant.ErrTenantMismatch):
		return "tenant_mismatch", "tenant_mismatch"
	case errors.Is(err, orderdomain.ErrCustomerNotFound):
		return "customer_not_found", "customer_not_found"
	case isNotFoundError(err):
		return "not_found", "not_found"
	case errors.Is(err, orderdomain.ErrInvalidTransition):
		return "invalid_transition", "invalid_transition"
	case errors.Is(err, authz.ErrDenied):
		return "forbidden", "permission_denied"
	case isValidationError(err):
		return "validation_error", err.Error()
	default:
		return "internal_error", "internal_error"
	}
}
