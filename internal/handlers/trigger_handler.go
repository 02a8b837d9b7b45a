package handlers

import (
	"log/slog"
	"net/http"

	"insurance-service/internal/models"
	"insurance-service/internal/services"
	"insurance-service/internal/utils"

	"github.com/gofiber/fiber/v3"
)

type TriggerHandler struct {
	triggerService *services.TriggerService
}

func NewTriggerHandler(triggerService *services.TriggerService) *TriggerHandler {
	return &TriggerHandler{triggerService: triggerService}
}

func (h *TriggerHandler) Register(app *fiber.App) {
	gr := app.Group("insurance/api/v1/policies")

	gr.Post("/:policy_id/evaluate", h.EvaluateTrigger) // POST /policies/:policy_id/evaluate
}

// EvaluateTrigger runs one evaluation pass against the policy's authorized
// oracle data. A triggered result is recorded before the response is sent.
func (h *TriggerHandler) EvaluateTrigger(c fiber.Ctx) error {
	owner := c.Get("X-User-ID")
	if owner == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	policyID, err := parsePolicyID(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid policy ID"))
	}

	result, err := h.triggerService.EvaluateTrigger(c.Context(), owner, policyID)
	if err != nil {
		slog.Error("Failed to evaluate trigger", "owner", owner, "policy_id", policyID, "error", err)
		return c.Status(statusForError(err)).JSON(
			utils.CreateErrorResponseFromErr(models.ErrorCode(err), err))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(result))
}
