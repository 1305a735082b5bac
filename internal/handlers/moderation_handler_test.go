package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/cache"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/config"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/dto"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/models"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/services"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "handler-test-secret"

type recordingInvalidator struct {
	keys []string
	err  error
}

func (r *recordingInvalidator) Invalidate(_ context.Context, key string) error {
	r.keys = append(r.keys, key)
	return r.err
}

type recordingBroadcaster struct {
	channels []string
	events   []dto.ModerationEvent
}

func (r *recordingBroadcaster) Publish(_ context.Context, channel string, event dto.ModerationEvent) error {
	r.channels = append(r.channels, channel)
	r.events = append(r.events, event)
	return nil
}

type failingStore struct{}

func (failingStore) ConditionalUpdate(context.Context, string, string, string) (*models.Report, bool, error) {
	panic("store exploded")
}

func (failingStore) ListByStatus(context.Context, string, string) ([]models.Report, error) {
	return nil, errors.New("db down")
}

type testEnv struct {
	app         *fiber.App
	db          *gorm.DB
	invalidator *recordingInvalidator
	broadcaster *recordingBroadcaster
}

func newTestApp(t *testing.T, store services.ReportStore, db *gorm.DB) *testEnv {
	t.Helper()
	cfg := &config.Config{JWTSecret: testSecret, CORSOrigins: "*"}

	env := &testEnv{db: db, invalidator: &recordingInvalidator{}, broadcaster: &recordingBroadcaster{}}
	authorizer := services.NewRoleAuthorizer(db, cfg)
	moderation := services.NewModerationService(authorizer, store, env.invalidator, env.broadcaster, nil)
	var c cache.Cache = cache.NewTableCache(db)
	query := services.NewReportQueryService(store, c, time.Minute, nil)
	handler := NewModerationHandler(moderation, query)

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Internal server error"})
	}})
	app.Use(recoverMiddleware())
	app.Use(middleware.CORS(cfg))
	app.Get("/disasters/:id/reports/verified", handler.ListVerified)
	app.Put("/disasters/:id/reports/:reportId", middleware.ResolveIdentity(cfg), handler.ModerateReport)
	env.app = app
	return env
}

func recoverMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return c.Next()
	}
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Report{}, &models.CacheEntry{}, &models.CacheGeneration{}))
	return db
}

func token(t *testing.T, sub, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func put(t *testing.T, app *fiber.App, path, bearer, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	return putWithContentType(t, app, path, bearer, body, "application/json")
}

func putWithContentType(t *testing.T, app *fiber.App, path, bearer, body, contentType string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPut, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Origin", "https://dashboard.example")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp, out
}

func TestModerateReportApprove(t *testing.T) {
	db := setupDB(t)
	env := newTestApp(t, services.NewGormReportStore(db), db)

	d1 := uuid.New()
	report := models.Report{DisasterID: d1, UserID: "u9", Content: "smoke visible"}
	require.NoError(t, db.Create(&report).Error)

	path := fmt.Sprintf("/disasters/%s/reports/%s", d1, report.ID)
	resp, body := put(t, env.app, path, token(t, uuid.NewString(), "admin"), `{"action":"approve"}`)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{"success": true, "status": "verified"}, body)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	assert.Equal(t, []string{"reports:verified:" + d1.String()}, env.invalidator.keys)
	assert.Equal(t, []string{"disaster-" + d1.String()}, env.broadcaster.channels)
	require.Len(t, env.broadcaster.events, 1)
	assert.Equal(t, report.ID.String(), env.broadcaster.events[0].ReportID)

	var stored models.Report
	require.NoError(t, db.First(&stored, "id = ?", report.ID).Error)
	assert.Equal(t, models.StatusVerified, stored.VerificationStatus)
}

func TestModerateReportAcceptsJSONWithoutContentType(t *testing.T) {
	db := setupDB(t)
	env := newTestApp(t, services.NewGormReportStore(db), db)

	d1 := uuid.New()
	path := func(r models.Report) string { return fmt.Sprintf("/disasters/%s/reports/%s", d1, r.ID) }
	admin := token(t, uuid.NewString(), "admin")

	for _, contentType := range []string{"", "text/plain;charset=UTF-8"} {
		report := models.Report{DisasterID: d1, UserID: "u9", Content: "levee breach"}
		require.NoError(t, db.Create(&report).Error)

		resp, body := putWithContentType(t, env.app, path(report), admin, `{"action":"approve"}`, contentType)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, contentType)
		assert.Equal(t, map[string]interface{}{"success": true, "status": "verified"}, body, contentType)
	}

	report := models.Report{DisasterID: d1, UserID: "u9"}
	require.NoError(t, db.Create(&report).Error)
	resp, body := putWithContentType(t, env.app, path(report), admin, "", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{"error": "Invalid action"}, body)
}

func TestModerateReportErrors(t *testing.T) {
	db := setupDB(t)
	env := newTestApp(t, services.NewGormReportStore(db), db)

	d1 := uuid.New()
	report := models.Report{DisasterID: d1, UserID: "u9", Content: "smoke visible"}
	require.NoError(t, db.Create(&report).Error)
	path := fmt.Sprintf("/disasters/%s/reports/%s", d1, report.ID)
	admin := token(t, uuid.NewString(), "admin")

	tests := []struct {
		name   string
		path   string
		bearer string
		body   string
		code   int
		msg    string
	}{
		{"missing token", path, "", `{"action":"approve"}`, fiber.StatusUnauthorized, "Unauthorized"},
		{"non-admin", path, token(t, uuid.NewString(), "authenticated"), `{"action":"approve"}`, fiber.StatusForbidden, "Forbidden – admin only"},
		{"non-admin with bad action", path, token(t, uuid.NewString(), ""), `{"action":"nuke"}`, fiber.StatusForbidden, "Forbidden – admin only"},
		{"invalid action", path, admin, `{"action":"archive"}`, fiber.StatusBadRequest, "Invalid action"},
		{"malformed body", path, admin, `{"action":`, fiber.StatusBadRequest, "Invalid action"},
		{"wrong disaster", fmt.Sprintf("/disasters/%s/reports/%s", uuid.New(), report.ID), admin, `{"action":"reject"}`, fiber.StatusInternalServerError, "Failed to update report"},
		{"unknown report", fmt.Sprintf("/disasters/%s/reports/%s", d1, uuid.New()), admin, `{"action":"reject"}`, fiber.StatusInternalServerError, "Failed to update report"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := put(t, env.app, tt.path, tt.bearer, tt.body)
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Equal(t, map[string]interface{}{"error": tt.msg}, body)
			assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		})
	}

	assert.Empty(t, env.invalidator.keys)
	assert.Empty(t, env.broadcaster.events)

	var stored models.Report
	require.NoError(t, db.First(&stored, "id = ?", report.ID).Error)
	assert.Equal(t, models.StatusPending, stored.VerificationStatus)
}

func TestModerateReportUnexpectedFailure(t *testing.T) {
	db := setupDB(t)
	env := newTestApp(t, failingStore{}, db)

	path := fmt.Sprintf("/disasters/%s/reports/%s", uuid.New(), uuid.New())
	resp, body := put(t, env.app, path, token(t, uuid.NewString(), "admin"), `{"action":"approve"}`)

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{"error": "Internal server error"}, body)
}

func TestModerateReportCacheFailureStillSucceeds(t *testing.T) {
	db := setupDB(t)
	env := newTestApp(t, services.NewGormReportStore(db), db)
	env.invalidator.err = errors.New("cache unavailable")

	d1 := uuid.New()
	report := models.Report{DisasterID: d1, UserID: "u9"}
	require.NoError(t, db.Create(&report).Error)

	path := fmt.Sprintf("/disasters/%s/reports/%s", d1, report.ID)
	resp, body := put(t, env.app, path, token(t, uuid.NewString(), "admin"), `{"action":"reject"}`)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "rejected", body["status"])
	assert.Len(t, env.broadcaster.events, 1)
}

func TestListVerified(t *testing.T) {
	db := setupDB(t)
	env := newTestApp(t, services.NewGormReportStore(db), db)

	d1 := uuid.New()
	require.NoError(t, db.Create(&models.Report{DisasterID: d1, UserID: "u1", VerificationStatus: models.StatusVerified}).Error)
	require.NoError(t, db.Create(&models.Report{DisasterID: d1, UserID: "u2"}).Error)

	resp, err := env.app.Test(httptest.NewRequest(fiber.MethodGet, "/disasters/"+d1.String()+"/reports/verified", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out dto.VerifiedReportsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 1, out.Total)
	assert.Equal(t, "u1", out.Reports[0].UserID)
}

func TestListVerifiedStoreFailure(t *testing.T) {
	db := setupDB(t)
	env := newTestApp(t, failingStore{}, db)

	resp, err := env.app.Test(httptest.NewRequest(fiber.MethodGet, "/disasters/"+uuid.NewString()+"/reports/verified", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
