package handlers

import (
	"log/slog"
	"net/http"

	"insurance-service/internal/models"
	"insurance-service/internal/services"
	"insurance-service/internal/utils"

	"github.com/gofiber/fiber/v3"
)

type RegistryHandler struct {
	registryService *services.RegistryService
}

func NewRegistryHandler(registryService *services.RegistryService) *RegistryHandler {
	return &RegistryHandler{registryService: registryService}
}

func (h *RegistryHandler) Register(app *fiber.App) {
	gr := app.Group("insurance/api/v1/registry")

	gr.Post("/initialize", h.Initialize) // POST /registry/initialize
	gr.Post("/pause", h.Pause)           // POST /registry/pause
	gr.Post("/unpause", h.Unpause)       // POST /registry/unpause
	gr.Get("/", h.GetRegistry)           // GET  /registry

	accounts := app.Group("insurance/api/v1/accounts")
	accounts.Post("/:id/fund", h.FundAccount)  // POST /accounts/:id/fund
	accounts.Get("/:id/balance", h.GetBalance) // GET  /accounts/:id/balance
}

// Initialize creates the global registry and the risk pool account.
func (h *RegistryHandler) Initialize(c fiber.Ctx) error {
	var req models.InitializeRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}
	if req.Authority == "" {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Authority is required"))
	}

	if err := h.registryService.Initialize(c.Context(), req.Authority); err != nil {
		slog.Error("Failed to initialize registry", "authority", req.Authority, "error", err)
		return c.Status(statusForError(err)).JSON(
			utils.CreateErrorResponseFromErr(models.ErrorCode(err), err))
	}

	return c.Status(http.StatusCreated).JSON(utils.CreateSuccessResponse(map[string]any{
		"authority": req.Authority,
	}))
}

func (h *RegistryHandler) Pause(c fiber.Ctx) error {
	return h.setPaused(c, true)
}

func (h *RegistryHandler) Unpause(c fiber.Ctx) error {
	return h.setPaused(c, false)
}

func (h *RegistryHandler) setPaused(c fiber.Ctx, paused bool) error {
	caller := c.Get("X-User-ID")
	if caller == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	var err error
	if paused {
		err = h.registryService.Pause(c.Context(), caller)
	} else {
		err = h.registryService.Unpause(c.Context(), caller)
	}
	if err != nil {
		slog.Error("Failed to change pause state", "caller", caller, "paused", paused, "error", err)
		return c.Status(statusForError(err)).JSON(
			utils.CreateErrorResponseFromErr(models.ErrorCode(err), err))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]any{
		"paused": paused,
	}))
}

// GetRegistry returns the registry counters and pause state.
func (h *RegistryHandler) GetRegistry(c fiber.Ctx) error {
	registry, err := h.registryService.GetRegistry(c.Context())
	if err != nil {
		slog.Error("Failed to get registry", "error", err)
		return c.Status(statusForError(err)).JSON(
			utils.CreateErrorResponseFromErr(models.ErrorCode(err), err))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(registry))
}

// FundAccount credits an account from an external ledger.
func (h *RegistryHandler) FundAccount(c fiber.Ctx) error {
	accountID := c.Params("id")

	var req struct {
		Amount uint64 `json:"amount"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}

	if err := h.registryService.FundAccount(c.Context(), accountID, req.Amount); err != nil {
		slog.Error("Failed to fund account", "account_id", accountID, "error", err)
		return c.Status(statusForError(err)).JSON(
			utils.CreateErrorResponseFromErr(models.ErrorCode(err), err))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]any{
		"account_id": accountID,
		"amount":     req.Amount,
	}))
}

func (h *RegistryHandler) GetBalance(c fiber.Ctx) error {
	accountID := c.Params("id")

	balance, err := h.registryService.GetAccountBalance(c.Context(), accountID)
	if err != nil {
		slog.Error("Failed to get account balance", "account_id", accountID, "error", err)
		return c.Status(statusForError(err)).JSON(
			utils.CreateErrorResponseFromErr(models.ErrorCode(err), err))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]any{
		"account_id": accountID,
		"balance":    balance,
	}))
}
