package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/attendance-ledger/config"
	"github.com/oksasatya/attendance-ledger/internal/container"
	"github.com/oksasatya/attendance-ledger/internal/infrastructure/memory"
	"github.com/oksasatya/attendance-ledger/internal/interface/middleware"
	"github.com/oksasatya/attendance-ledger/pkg/validation"
)

type wire struct {
	ID  string         `json:"id"`
	TS  string         `json:"ts"`
	Res map[string]any `json:"res"`
	Sig string         `json:"sig"`
}

type app struct {
	t      *testing.T
	engine *gin.Engine
	ledger *memory.Ledger
}

func newApp(t *testing.T, mode string) *app {
	t.Helper()
	return newAppWith(t, &config.Config{
		AppName:             "attendance-ledger",
		EnvelopeMode:        mode,
		RateLimitPerMinute:  600,
		EventsEnabled:       true,
		DebugMetricsEnabled: true,
	}, nil)
}

func newAppWith(t *testing.T, cfg *config.Config, rdb *redis.Client) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()
	logger, _ := test.NewNullLogger()

	ledger := memory.NewLedger()
	c := &container.Container{
		Config: cfg,
		Logger: logger,
		Ledger: ledger,
		Redis:  rdb,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestIDMiddleware(), middleware.RealIP())
	reg := NewRegistry(engine, cfg.RoutePrefix)
	require.NoError(t, InitModules(reg, c))
	reg.RegisterAll()
	return &app{t: t, engine: engine, ledger: ledger}
}

func (a *app) call(method, target, body string) (int, wire) {
	a.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var out wire
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func wrap(id, pd string) string {
	return `{"id":"` + id + `","ts":"2024-01-01T09:00:00Z","pd":` + pd + `,"sig":"signature_placeholder"}`
}

func TestCreateUser_ThenDuplicate(t *testing.T) {
	a := newApp(t, "auto")

	code, out := a.call(http.MethodPost, "/create-user", wrap("dev-1", `{"user_id":"u1","name":"Alice","tags":["eng"]}`))
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "dev-1", out.ID)
	assert.Equal(t, "signature_placeholder", out.Sig)
	assert.True(t, strings.HasSuffix(out.TS, "Z"))
	assert.Equal(t, "User created successfully", out.Res["message"])
	assert.Equal(t, map[string]any{"user_id": "u1", "name": "Alice", "tags": []any{"eng"}}, out.Res["user"])

	code, out = a.call(http.MethodPost, "/create-user", wrap("dev-1", `{"user_id":"u1","name":"Alice again"}`))
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "DuplicateUser", out.Res["error"])
}

func TestCreateUser_MissingFields(t *testing.T) {
	a := newApp(t, "auto")

	code, out := a.call(http.MethodPost, "/create-user", wrap("dev-1", `{"user_id":"u1"}`))
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "MissingFields", out.Res["error"])
	assert.Equal(t, map[string]any{"name": "is required"}, out.Res["details"])
}

func TestBareForm_AcceptedInAutoRejectedInStrict(t *testing.T) {
	a := newApp(t, "auto")
	code, out := a.call(http.MethodPost, "/create-user", `{"user_id":"u1","name":"Alice"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.NotEmpty(t, out.ID)

	s := newApp(t, "strict")
	code, out = s.call(http.MethodPost, "/create-user", `{"user_id":"u1","name":"Alice"}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "MalformedEnvelope", out.Res["error"])
}

func TestMalformedEnvelope(t *testing.T) {
	a := newApp(t, "auto")

	code, out := a.call(http.MethodPost, "/mark-attendance", `{"id":"dev-1","pd":{"user_ids":[],"timestamps":[]}}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "MalformedEnvelope", out.Res["error"])

	code, out = a.call(http.MethodPost, "/mark-attendance", `{"id":"dev-1",`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "MalformedEnvelope", out.Res["error"])
}

func TestEnrollUser_UnknownUser(t *testing.T) {
	a := newApp(t, "auto")

	code, out := a.call(http.MethodPost, "/enroll-user", wrap("dev-1", `{"user_id":"ghost","template_data":"QUJD"}`))
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "UserNotFound", out.Res["error"])
}

func TestMarkAttendance_MissingUserPersistsNothing(t *testing.T) {
	a := newApp(t, "auto")
	code, _ := a.call(http.MethodPost, "/create-user", wrap("dev-1", `{"user_id":"u1","name":"Alice","tags":["eng"]}`))
	require.Equal(t, http.StatusCreated, code)

	code, out := a.call(http.MethodPost, "/mark-attendance", wrap("dev-1",
		`{"user_ids":["u1","u2"],"timestamps":["2024-01-01T09:00:00Z","2024-01-01T09:00:00Z"]}`))
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "UserNotFound", out.Res["error"])
	assert.Contains(t, out.Res["message"], "u2")

	code, out = a.call(http.MethodGet,
		"/get-attendance?user_ids=u1&start_time=2024-01-01T00:00:00Z&end_time=2024-01-02T00:00:00Z", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{map[string]any{"user_id": "u1", "timestamps": []any{}}}, out.Res["attendance"])
}

func TestMarkAttendance_LengthMismatchAndTimeFormat(t *testing.T) {
	a := newApp(t, "auto")
	a.call(http.MethodPost, "/create-user", wrap("dev-1", `{"user_id":"u1","name":"Alice"}`))

	code, out := a.call(http.MethodPost, "/mark-attendance", wrap("dev-1",
		`{"user_ids":["u1","u1"],"timestamps":["2024-01-01T09:00:00Z"]}`))
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "LengthMismatch", out.Res["error"])

	code, out = a.call(http.MethodPost, "/mark-attendance", wrap("dev-1",
		`{"user_ids":["u1"],"timestamps":["2024-01-01T09:00:00.000Z"]}`))
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "TimeFormatError", out.Res["error"])
}

func TestMarkAttendance_ThenRangeQuery(t *testing.T) {
	a := newApp(t, "auto")
	a.call(http.MethodPost, "/create-user", wrap("dev-1", `{"user_id":"u1","name":"Alice"}`))

	code, out := a.call(http.MethodPost, "/mark-attendance", wrap("dev-1",
		`{"user_ids":["u1","u1","u1"],"timestamps":["2024-01-01T09:00:00Z","2024-01-01T12:00:00Z","2024-01-01T17:00:00Z"]}`))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Attendance marked successfully", out.Res["message"])
	records := out.Res["records"].([]any)
	require.Len(t, records, 3)
	first := records[0].(map[string]any)
	assert.Equal(t, "u1", first["user_id"])
	assert.Equal(t, "2024-01-01T09:00:00Z", first["timestamp"])
	assert.NotZero(t, first["attendance_id"])

	code, out = a.call(http.MethodPost, "/get-attendance", wrap("dev-1",
		`{"user_ids":["u1"],"start_time":"2024-01-01T09:00:00Z","end_time":"2024-01-01T12:00:00Z"}`))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{map[string]any{
		"user_id":    "u1",
		"timestamps": []any{"2024-01-01T09:00:00Z", "2024-01-01T12:00:00Z"},
	}}, out.Res["attendance"])
}

func TestGetAttendance_MissingParameters(t *testing.T) {
	a := newApp(t, "auto")

	code, out := a.call(http.MethodGet, "/get-attendance?user_ids=u1&start_time=2024-01-01T00:00:00Z", "")
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "MissingParameters", out.Res["error"])
}

func TestGetUsersByTags_PostAndGet(t *testing.T) {
	a := newApp(t, "auto")
	a.call(http.MethodPost, "/create-user", wrap("dev-1", `{"user_id":"u1","name":"Alice","tags":["eng"]}`))
	a.call(http.MethodPost, "/create-user", wrap("dev-1", `{"user_id":"u2","name":"Bob","tags":["hr"]}`))

	userIDs := func(res map[string]any) []string {
		var ids []string
		for _, u := range res["users"].([]any) {
			ids = append(ids, u.(map[string]any)["user_id"].(string))
		}
		return ids
	}

	code, out := a.call(http.MethodPost, "/get-users-by-tags", wrap("dev-1", `{"tags":["eng"]}`))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"u1"}, userIDs(out.Res))

	code, out = a.call(http.MethodGet, "/get-users-by-tags?tags=eng", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"u1"}, userIDs(out.Res))

	code, out = a.call(http.MethodGet, "/get-users-by-tags", "")
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "MissingTags", out.Res["error"])

	code, out = a.call(http.MethodPost, "/get-users-by-tags", wrap("dev-1", `{"tags":[]}`))
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "MissingTags", out.Res["error"])
}

func TestListUsers(t *testing.T) {
	a := newApp(t, "auto")
	created := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	a.ledger.Now = func() time.Time { return created }

	code, out := a.call(http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{}, out.Res["users"])

	a.call(http.MethodPost, "/create-user", wrap("dev-1", `{"user_id":"u2","name":"Bob","tags":["hr"]}`))
	a.call(http.MethodPost, "/create-user", wrap("dev-1", `{"user_id":"u1","name":"Alice"}`))

	code, out = a.call(http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{
		map[string]any{"user_id": "u2", "name": "Bob", "tags": []any{"hr"}, "created_at": "2024-03-01T08:30:00Z"},
		map[string]any{"user_id": "u1", "name": "Alice", "tags": []any{}, "created_at": "2024-03-01T08:30:00Z"},
	}, out.Res["users"])
}

func TestTemplate_RoundTrip(t *testing.T) {
	a := newApp(t, "auto")
	a.call(http.MethodPost, "/create-user", wrap("dev-1", `{"user_id":"u1","name":"Alice"}`))

	blob := "Rk1SACAyMAAAAAFiAAABPAFiAMUAxQEAAAAoQ4A+/w=="
	code, out := a.call(http.MethodPost, "/enroll-user", wrap("dev-1", `{"user_id":"u1","template_data":"`+blob+`"}`))
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "User enrolled successfully", out.Res["message"])

	code, out = a.call(http.MethodGet, "/get-template?user_id=u1", "")
	require.Equal(t, http.StatusOK, code)
	templates := out.Res["templates"].([]any)
	require.Len(t, templates, 1)
	assert.Equal(t, blob, templates[0].(map[string]any)["template"])
	assert.Equal(t, []any{}, out.Res["missing"])

	code, out = a.call(http.MethodPost, "/get-template", wrap("dev-1", `{"user_ids":["u1","u9"]}`))
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out.Res["templates"], 1)
	assert.Equal(t, []any{"u9"}, out.Res["missing"])

	code, out = a.call(http.MethodPost, "/get-template", wrap("dev-1", `{"user_id":"u9"}`))
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "TemplateNotFound", out.Res["error"])

	code, out = a.call(http.MethodGet, "/get-template", "")
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "MissingUserIds", out.Res["error"])
}

func TestSystemRoutes(t *testing.T) {
	a := newApp(t, "auto")

	code, out := a.call(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, out.Res["message"], "attendance-ledger")

	code, out = a.call(http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", out.Res["status"])
}

func TestDebugVarsExposeLedgerCounters(t *testing.T) {
	a := newApp(t, "auto")
	a.call(http.MethodPost, "/create-user", wrap("dev-1", `{"user_id":"u1","name":"Alice"}`))

	req := httptest.NewRequest(http.MethodGet, "/debug/vars", nil)
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ledger_users_created")

	ok, err := a.ledger.Users().Exists(req.Context(), "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPrefixMountsUnderGroup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	c := &container.Container{
		Config: &config.Config{AppName: "x", EnvelopeMode: "auto"},
		Logger: logger,
		Ledger: memory.NewLedger(),
	}
	engine := gin.New()
	reg := NewRegistry(engine, "/api")
	require.NoError(t, InitModules(reg, c))
	reg.RegisterAll()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownRouteAnswersEnvelope(t *testing.T) {
	a := newApp(t, "auto")

	code, out := a.call(http.MethodGet, "/create-user", "")
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NotFound", out.Res["error"])
	assert.Equal(t, "signature_placeholder", out.Sig)
	assert.NotEmpty(t, out.ID)

	code, out = a.call(http.MethodPost, "/no-such-route", wrap("dev-1", `{}`))
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NotFound", out.Res["error"])
}

func TestRateLimit_ExemptPathsSkipLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	a := newAppWith(t, &config.Config{
		AppName:              "attendance-ledger",
		EnvelopeMode:         "auto",
		RoutePrefix:          "/api",
		RateLimitPerMinute:   1,
		RateLimitExemptPaths: "/users",
	}, rdb)

	for i := 0; i < 3; i++ {
		code, _ := a.call(http.MethodGet, "/api/users", "")
		require.Equal(t, http.StatusOK, code)
	}

	code, _ := a.call(http.MethodGet, "/api/get-users-by-tags?tags=eng", "")
	require.Equal(t, http.StatusOK, code)
	code, out := a.call(http.MethodGet, "/api/get-users-by-tags?tags=eng", "")
	require.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "RateLimited", out.Res["error"])
}
