package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/warp/vacation-engine/vacation"
)

// statusFor maps the vacation error taxonomy to an HTTP status and a stable
// machine-readable code. Order matters: a TransitionError also matches
// ErrValidation.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, vacation.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, vacation.ErrPermissionDenied):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, vacation.ErrOverlap):
		return http.StatusConflict, "overlap"
	case errors.Is(err, vacation.ErrTypeLimitExceeded):
		return http.StatusConflict, "type_limit_exceeded"
	case errors.Is(err, vacation.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, vacation.ErrBridgeNotAllowed):
		return http.StatusUnprocessableEntity, "bridge_not_allowed"
	case errors.Is(err, vacation.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, "insufficient_balance"
	case errors.Is(err, vacation.ErrInvalidPeriodType):
		return http.StatusUnprocessableEntity, "invalid_period_type"
	case errors.Is(err, vacation.ErrValidation):
		return http.StatusUnprocessableEntity, "validation"
	}
	return http.StatusInternalServerError, "internal"
}

// details exposes the structured fields of a business error.
func details(err error) any {
	var (
		ve *vacation.ValidationError
		be *vacation.BridgeError
		ib *vacation.InsufficientBalanceError
		oe *vacation.OverlapError
		te *vacation.TypeLimitError
	)
	switch {
	case errors.As(err, &be):
		return map[string]any{"end": be.End, "holiday": be.Holiday, "holiday_name": be.HolidayName}
	case errors.As(err, &ib):
		return map[string]any{"available": ib.Available, "requested": ib.Requested}
	case errors.As(err, &oe):
		return map[string]any{"conflicting_period": oe.Conflicting}
	case errors.As(err, &te):
		return map[string]any{"type_period": te.TypePeriod, "year": te.Year, "existing_id": te.ExistingID}
	case errors.As(err, &ve):
		return map[string]any{"field": ve.Field}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError renders an error returned by the vacation service.
// Internal errors are logged and hidden from the client.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, status, ErrorResponse{Error: "internal error", Code: code})
		return
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code, Details: details(err)})
}
