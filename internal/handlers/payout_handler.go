package handlers

import (
	"log/slog"
	"net/http"

	"insurance-service/internal/models"
	"insurance-service/internal/services"
	"insurance-service/internal/utils"

	"github.com/gofiber/fiber/v3"
)

type PayoutHandler struct {
	payoutService *services.PayoutService
}

func NewPayoutHandler(payoutService *services.PayoutService) *PayoutHandler {
	return &PayoutHandler{payoutService: payoutService}
}

func (h *PayoutHandler) Register(app *fiber.App) {
	gr := app.Group("insurance/api/v1/policies")

	gr.Post("/:policy_id/payout", h.ExecutePayout) // POST /policies/:policy_id/payout
}

// ExecutePayout settles a triggered policy. The executor comes from the
// gateway-injected user header and must match the registry authority.
func (h *PayoutHandler) ExecutePayout(c fiber.Ctx) error {
	executor := c.Get("X-User-ID")
	if executor == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	policyID, err := parsePolicyID(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid policy ID"))
	}

	var req models.ExecutePayoutRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}
	if req.Owner == "" {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Policy owner is required"))
	}

	if err := h.payoutService.ExecutePayout(c.Context(), executor, req.Owner, policyID, req.Amount); err != nil {
		slog.Error("Failed to execute payout",
			"executor", executor,
			"owner", req.Owner,
			"policy_id", policyID,
			"amount", req.Amount,
			"error", err,
		)
		return c.Status(statusForError(err)).JSON(
			utils.CreateErrorResponseFromErr(models.ErrorCode(err), err))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]any{
		"policy_id": policyID,
		"owner":     req.Owner,
		"amount":    req.Amount,
		"status":    models.PolicyPaidOut,
	}))
}
