package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"insurance-service/internal/models"
	"insurance-service/internal/services"
	"insurance-service/internal/utils"

	"github.com/gofiber/fiber/v3"
)

type PolicyHandler struct {
	policyService *services.PolicyService
}

func NewPolicyHandler(policyService *services.PolicyService) *PolicyHandler {
	return &PolicyHandler{policyService: policyService}
}

func (h *PolicyHandler) Register(app *fiber.App) {
	gr := app.Group("insurance/api/v1/policies")

	gr.Post("/", h.CreatePolicy)                     // POST /policies
	gr.Get("/", h.ListPolicies)                      // GET  /policies
	gr.Get("/:policy_id", h.GetPolicy)               // GET  /policies/:policy_id
	gr.Post("/:policy_id/premium", h.DepositPremium) // POST /policies/:policy_id/premium
}

// CreatePolicy registers a new policy in inactive status. The owner comes
// from the gateway-injected user header.
func (h *PolicyHandler) CreatePolicy(c fiber.Ctx) error {
	owner := c.Get("X-User-ID")
	if owner == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	var req models.CreatePolicyRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}

	policy, err := h.policyService.CreatePolicy(c.Context(), owner, &req)
	if err != nil {
		slog.Error("Failed to create policy", "owner", owner, "policy_id", req.PolicyID, "error", err)
		return c.Status(statusForError(err)).JSON(
			utils.CreateErrorResponseFromErr(models.ErrorCode(err), err))
	}

	return c.Status(http.StatusCreated).JSON(utils.CreateSuccessResponse(policy))
}

// DepositPremium funds a policy's premium and activates it on exact payment.
func (h *PolicyHandler) DepositPremium(c fiber.Ctx) error {
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

	var req models.DepositPremiumRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}

	if err := h.policyService.DepositPremium(c.Context(), owner, policyID, req.Amount); err != nil {
		slog.Error("Failed to deposit premium", "owner", owner, "policy_id", policyID, "error", err)
		return c.Status(statusForError(err)).JSON(
			utils.CreateErrorResponseFromErr(models.ErrorCode(err), err))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]any{
		"policy_id": policyID,
		"status":    models.PolicyActive,
	}))
}

func (h *PolicyHandler) GetPolicy(c fiber.Ctx) error {
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

	policy, err := h.policyService.GetPolicy(c.Context(), owner, policyID)
	if err != nil {
		slog.Error("Failed to get policy", "owner", owner, "policy_id", policyID, "error", err)
		return c.Status(statusForError(err)).JSON(
			utils.CreateErrorResponseFromErr(models.ErrorCode(err), err))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(policy))
}

func (h *PolicyHandler) ListPolicies(c fiber.Ctx) error {
	owner := c.Get("X-User-ID")
	if owner == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	policies, err := h.policyService.ListPolicies(c.Context(), owner)
	if err != nil {
		slog.Error("Failed to list policies", "owner", owner, "error", err)
		return c.Status(statusForError(err)).JSON(
			utils.CreateErrorResponseFromErr(models.ErrorCode(err), err))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]any{
		"policies": policies,
		"count":    len(policies),
	}))
}

func parsePolicyID(c fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("policy_id"), 10, 64)
}
