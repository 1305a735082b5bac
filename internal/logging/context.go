package logging

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type ctxAttrsKey struct{}

// WithAttrs returns a context whose log records carry attrs.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}
	current, _ := ctx.Value(ctxAttrsKey{}).([]slog.Attr)
	next := make([]slog.Attr, 0, len(current)+len(attrs))
	next = append(next, current...)
	next = append(next, attrs...)
	return context.WithValue(ctx, ctxAttrsKey{}, next)
}

// ContextHandler adds attrs stored by WithAttrs to every record.
type ContextHandler struct {
	next slog.Handler
}

func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if attrs, ok := ctx.Value(ctxAttrsKey{}).([]slog.Attr); ok {
		record = record.Clone()
		record.AddAttrs(attrs...)
	}
	return h.next.Handle(ctx, record)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}

// RequestContext copies the request id into the user context so service
// logs can be correlated with the access log.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok && id != "" {
			c.SetUserContext(WithAttrs(c.UserContext(), slog.String("request_id", id)))
		}
		return c.Next()
	}
}
