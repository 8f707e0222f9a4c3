package httpapi

import "net/http"

// Kind is one of the four response-shaping error kinds from spec §7.
type Kind string

const (
	KindValidation             Kind = "validation"
	KindCapacityInfeasible     Kind = "capacity_infeasible"
	KindAssignmentInfeasible   Kind = "assignment_infeasible"
	KindInternal               Kind = "internal"
)

// APIError carries enough context for the envelope shaper to produce the
// `{error, error_type, context}` body spec §6 requires.
type APIError struct {
	Kind    Kind
	Message string
	Context map[string]any
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) statusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func newValidationError(msg string, ctx map[string]any) *APIError {
	return &APIError{Kind: KindValidation, Message: msg, Context: ctx}
}

func newInternalError(msg string, ctx map[string]any) *APIError {
	return &APIError{Kind: KindInternal, Message: msg, Context: ctx}
}
