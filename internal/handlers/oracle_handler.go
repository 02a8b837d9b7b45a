package handlers

import (
	"encoding/hex"
	"log/slog"
	"net/http"

	"insurance-service/internal/models"
	"insurance-service/internal/services"
	"insurance-service/internal/utils"

	"github.com/gofiber/fiber/v3"
)

type OracleHandler struct {
	oracleService *services.OracleService
}

func NewOracleHandler(oracleService *services.OracleService) *OracleHandler {
	return &OracleHandler{oracleService: oracleService}
}

func (h *OracleHandler) Register(app *fiber.App) {
	gr := app.Group("insurance/api/v1/oracles")

	gr.Post("/", h.RegisterProvider)            // POST /oracles
	gr.Get("/", h.ListProviders)                // GET  /oracles
	gr.Get("/slothash", h.CurrentSlothash)      // GET  /oracles/slothash
	gr.Get("/:provider", h.GetProvider)         // GET  /oracles/:provider
	gr.Post("/:provider/data", h.SubmitData)    // POST /oracles/:provider/data
	gr.Get("/:provider/climate", h.ReadClimate) // GET  /oracles/:provider/climate
}

// RegisterProvider registers an oracle provider with its verification key.
func (h *OracleHandler) RegisterProvider(c fiber.Ctx) error {
	var req models.RegisterOracleRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}
	if req.Provider == "" || req.PublicKeyHex == "" {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Provider and public key are required"))
	}

	record, err := h.oracleService.RegisterProvider(c.Context(), &req)
	if err != nil {
		slog.Error("Failed to register oracle provider", "provider", req.Provider, "error", err)
		return c.Status(statusForError(err)).JSON(
			utils.CreateErrorResponseFromErr(models.ErrorCode(err), err))
	}

	return c.Status(http.StatusCreated).JSON(utils.CreateSuccessResponse(record))
}

// SubmitData ingests signed climate readings from a provider. All points in
// the batch are verified; any rejection fails the whole submission.
func (h *OracleHandler) SubmitData(c fiber.Ctx) error {
	provider := c.Params("provider")

	var req models.SubmitClimateDataRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}
	if len(req.DataPoints) == 0 {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_REQUEST", "At least one data point is required"))
	}

	if err := h.oracleService.SubmitClimateData(c.Context(), provider, req.DataPoints); err != nil {
		slog.Error("Failed to submit climate data", "provider", provider, "points", len(req.DataPoints), "error", err)
		return c.Status(statusForError(err)).JSON(
			utils.CreateErrorResponseFromErr(models.ErrorCode(err), err))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]any{
		"provider": provider,
		"accepted": len(req.DataPoints),
	}))
}

// ReadClimate returns the latest reading per data type for one provider.
func (h *OracleHandler) ReadClimate(c fiber.Ctx) error {
	provider := c.Params("provider")

	points, err := h.oracleService.ReadClimate(c.Context(), provider)
	if err != nil {
		slog.Error("Failed to read climate data", "provider", provider, "error", err)
		return c.Status(statusForError(err)).JSON(
			utils.CreateErrorResponseFromErr(models.ErrorCode(err), err))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]any{
		"provider":    provider,
		"data_points": points,
		"count":       len(points),
	}))
}

func (h *OracleHandler) GetProvider(c fiber.Ctx) error {
	provider := c.Params("provider")

	record, err := h.oracleService.GetProvider(c.Context(), provider)
	if err != nil {
		slog.Error("Failed to get oracle provider", "provider", provider, "error", err)
		return c.Status(statusForError(err)).JSON(
			utils.CreateErrorResponseFromErr(models.ErrorCode(err), err))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(record))
}

func (h *OracleHandler) ListProviders(c fiber.Ctx) error {
	records, err := h.oracleService.ListProviders(c.Context())
	if err != nil {
		slog.Error("Failed to list oracle providers", "error", err)
		return c.Status(statusForError(err)).JSON(
			utils.CreateErrorResponseFromErr(models.ErrorCode(err), err))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]any{
		"providers": records,
		"count":     len(records),
	}))
}

// CurrentSlothash exposes the head of the replay protection ring so
// providers can bind fresh submissions to it.
func (h *OracleHandler) CurrentSlothash(c fiber.Ctx) error {
	hash, err := h.oracleService.CurrentSlothash(c.Context())
	if err != nil {
		slog.Error("Failed to get current slothash", "error", err)
		return c.Status(statusForError(err)).JSON(
			utils.CreateErrorResponseFromErr(models.ErrorCode(err), err))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]any{
		"slothash": hex.EncodeToString(hash),
	}))
}
