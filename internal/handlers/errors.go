package handlers

import (
	"errors"
	"net/http"

	"insurance-service/internal/models"
)

// statusForError maps operation errors to HTTP status codes. Anything not
// listed is treated as an internal failure.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, models.ErrPolicyNotFound),
		errors.Is(err, models.ErrUnregisteredOracle),
		errors.Is(err, models.ErrNotInitialized):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDuplicatePolicy),
		errors.Is(err, models.ErrAlreadyInitialized),
		errors.Is(err, models.ErrAlreadyActive),
		errors.Is(err, models.ErrAlreadyPaidOut),
		errors.Is(err, models.ErrNotTriggered),
		errors.Is(err, models.ErrPolicyNotActive),
		errors.Is(err, models.ErrProgramPaused):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidCoverageAmount),
		errors.Is(err, models.ErrInvalidPremiumAmount),
		errors.Is(err, models.ErrInvalidGeographicBounds),
		errors.Is(err, models.ErrInvalidEndTimestamp),
		errors.Is(err, models.ErrMissingTriggerThreshold),
		errors.Is(err, models.ErrInvalidPayoutAmount),
		errors.Is(err, models.ErrStaleData),
		errors.Is(err, models.ErrSignatureVerificationFailed),
		errors.Is(err, models.ErrNoValidOracleData):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInsufficientPremium),
		errors.Is(err, models.ErrInsufficientPoolBalance),
		errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
