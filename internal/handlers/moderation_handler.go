package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/dto"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/identity"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/services"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

const (
	msgUnauthorized  = "Unauthorized"
	msgForbidden     = "Forbidden – admin only"
	msgInvalidAction = "Invalid action"
	msgUpdateFailed  = "Failed to update report"
	msgInternalError = "Internal server error"
	msgFetchFailed   = "Failed to fetch reports"
)

type ModerationHandler struct {
	moderationService *services.ModerationService
	queryService      *services.ReportQueryService
}

func NewModerationHandler(moderationService *services.ModerationService, queryService *services.ReportQueryService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService, queryService: queryService}
}

// ModerateReport handles PUT /disasters/:id/reports/:reportId.
func (h *ModerationHandler) ModerateReport(c *fiber.Ctx) error {
	var req dto.ModerateReportRequest
	// Decoded regardless of Content-Type. Authorization still runs first;
	// an unreadable body is an invalid action.
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		req.Action = ""
	}

	status, err := h.moderationService.Moderate(c.UserContext(), identity.FromContext(c), c.Params("id"), c.Params("reportId"), req.Action)
	if err != nil {
		return moderationError(c, err)
	}

	return c.JSON(dto.ModerateReportResponse{Success: true, Status: status})
}

// ListVerified handles GET /disasters/:id/reports/verified.
func (h *ModerationHandler) ListVerified(c *fiber.Ctx) error {
	reports, err := h.queryService.ListVerified(c.UserContext(), c.Params("id"))
	if err != nil {
		slog.ErrorContext(c.UserContext(), "list verified reports failed", "disaster_id", c.Params("id"), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: msgFetchFailed})
	}

	return c.JSON(dto.VerifiedReportsResponse{Reports: reports, Total: len(reports)})
}

func moderationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: msgUnauthorized})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: msgForbidden})
	case errors.Is(err, services.ErrInvalidAction):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msgInvalidAction})
	case errors.Is(err, services.ErrUpdateFailed):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: msgUpdateFailed})
	}

	slog.ErrorContext(c.UserContext(), "PUT /disasters/:id/reports/:reportId moderation error",
		"disaster_id", c.Params("id"), "report_id", c.Params("reportId"), "error", err)
	captureException(c, err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: msgInternalError})
}

func captureException(c *fiber.Ctx, err error) {
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}
