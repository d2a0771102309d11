package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusgoal/focusgoal-backend/internal/application/command"
	"github.com/focusgoal/focusgoal-backend/internal/application/query"
	"github.com/focusgoal/focusgoal-backend/internal/infrastructure/lock"
	"github.com/focusgoal/focusgoal-backend/internal/infrastructure/metrics"
	"github.com/focusgoal/focusgoal-backend/internal/infrastructure/persistence/memory"
	"github.com/focusgoal/focusgoal-backend/internal/interface/http/handlers"
	"github.com/focusgoal/focusgoal-backend/pkg/timeutil"
)

type testServer struct {
	handler http.Handler
	store   *memory.Store
	clock   *timeutil.FixedClock
}

type serverOption func(*Config, *Dependencies)

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	store := memory.NewStore(time.UTC)
	clock := timeutil.NewFixedClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	m := metrics.New()

	engine := command.Engine{
		Users:   store.Users(),
		Locker:  lock.NewKeyedMutex(),
		Clock:   clock,
		Metrics: m,
	}
	repos := query.Repositories{
		Users:  store.Users(),
		Goals:  store.Goals(),
		Habits: store.Habits(),
		Focus:  store.Focus(),
	}

	health := handlers.NewCompositeHealthChecker("test")
	health.AddCheck("store", handlers.NewPingCheck(store))

	cfg := DefaultConfig()
	cfg.RateLimitPerSecond = 0

	deps := Dependencies{
		RegisterUser: command.NewRegisterUserHandler(engine),
		CreateGoal:   command.NewCreateGoalHandler(engine, store.Goals()),
		CompleteGoal: command.NewCompleteGoalHandler(engine, store.Goals(), nil),
		CreateHabit:  command.NewCreateHabitHandler(engine, store.Habits()),
		TrackHabit:   command.NewTrackHabitHandler(engine, store.Habits()),
		StartFocus:   command.NewStartFocusSessionHandler(engine, store.Focus()),

		GetUser:      query.NewGetUserHandler(store.Users()),
		ListGoals:    query.NewListGoalsHandler(store.Goals(), clock),
		ListHabits:   query.NewListHabitsHandler(store.Habits()),
		GetStats:     query.NewGetStatsHandler(repos),
		GetDashboard: query.NewGetDashboardHandler(repos, clock),

		AutoRegister:  func(int64) bool { return true },
		HealthChecker: health,
		Metrics:       m,
	}

	for _, opt := range opts {
		opt(&cfg, &deps)
	}

	srv := NewServer(cfg, deps)
	t.Cleanup(func() {
		if srv.rateLimiter != nil {
			srv.rateLimiter.Stop()
		}
	})

	return &testServer{handler: srv.Handler(), store: store, clock: clock}
}

func (ts *testServer) do(t *testing.T, method, path string, form url.Values) (int, map[string]interface{}) {
	t.Helper()

	var req *http.Request
	if method == http.MethodPost {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		if form != nil {
			path += "?" + form.Encode()
		}
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	body := map[string]interface{}{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec.Code, body
}

func TestCreateGoal_Defaults(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, http.MethodPost, "/api/goals", url.Values{
		"user_id": {"42"},
		"title":   {"Ship the release"},
	})
	require.Equal(t, http.StatusOK, code, body)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["goal_id"])
	assert.Equal(t, float64(10), body["xp_added"])
	assert.Contains(t, body["message"], "+10 XP")

	code, body = ts.do(t, http.MethodGet, "/api/goals", url.Values{"user_id": {"42"}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])

	goals := body["goals"].([]interface{})
	g := goals[0].(map[string]interface{})
	assert.Equal(t, "medium", g["priority"])
	assert.Equal(t, "general", g["category"])
}

func TestCompleteGoal_HighPriorityScenario(t *testing.T) {
	ts := newTestServer(t)

	_, body := ts.do(t, http.MethodPost, "/api/goals", url.Values{
		"user_id":  {"42"},
		"title":    {"Launch"},
		"priority": {"high"},
		"deadline": {"2024-04-01"},
	})
	require.Equal(t, true, body["success"])

	code, body := ts.do(t, http.MethodPost, "/api/goals/1/complete", url.Values{"user_id": {"42"}})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(75), body["xp_earned"])
	assert.Equal(t, float64(85), body["total_xp"])
	assert.Contains(t, body["message"], "+75 XP")

	code, body = ts.do(t, http.MethodPost, "/api/goals/1/complete", url.Values{"user_id": {"42"}})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "goal already completed", body["error"])
}

func TestCompleteGoal_OwnershipMismatch(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodPost, "/api/goals", url.Values{"user_id": {"1"}, "title": {"mine"}})

	code, body := ts.do(t, http.MethodPost, "/api/goals/1/complete", url.Values{"user_id": {"2"}})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "goal not found or access denied", body["error"])

	code, body = ts.do(t, http.MethodGet, "/api/user/1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(10), body["user"].(map[string]interface{})["xp"])
}

func TestHabits_TrackReturnsStreak(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, http.MethodPost, "/api/habits", url.Values{"user_id": {"7"}, "title": {"Read"}})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(5), body["xp_added"])

	code, body = ts.do(t, http.MethodPost, "/api/habits/1/track", url.Values{"user_id": {"7"}})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(5), body["xp_earned"])
	habit := body["habit"].(map[string]interface{})
	assert.Equal(t, float64(1), habit["current_streak"])
	assert.Equal(t, "2024-03-10", habit["last_tracked_date"])

	ts.clock.Advance(24 * time.Hour)
	_, body = ts.do(t, http.MethodPost, "/api/habits/1/track", url.Values{"user_id": {"7"}})
	habit = body["habit"].(map[string]interface{})
	assert.Equal(t, float64(2), habit["current_streak"])
	assert.Equal(t, float64(2), habit["best_streak"])

	code, _ = ts.do(t, http.MethodPost, "/api/habits/1/track", url.Values{"user_id": {"8"}})
	assert.Equal(t, http.StatusNotFound, code)

	code, body = ts.do(t, http.MethodGet, "/api/habits", url.Values{"user_id": {"7"}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])
}

func TestStartFocus(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, http.MethodPost, "/api/focus/start", url.Values{"user_id": {"3"}})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(1), body["session_id"])
	assert.Equal(t, float64(25), body["duration"])

	code, body = ts.do(t, http.MethodPost, "/api/focus/start", url.Values{
		"user_id":  {"3"},
		"duration": {"50"},
		"goal_id":  {"9"},
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(50), body["duration"])

	code, _ = ts.do(t, http.MethodPost, "/api/focus/start", url.Values{"user_id": {"3"}, "duration": {"soon"}})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.do(t, http.MethodPost, "/api/focus/start", url.Values{"user_id": {"3"}, "duration": {"-5"}})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMissingOrInvalidFields(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		form   url.Values
	}{
		{"goal without user", http.MethodPost, "/api/goals", url.Values{"title": {"x"}}},
		{"goal without title", http.MethodPost, "/api/goals", url.Values{"user_id": {"1"}}},
		{"goal bad deadline", http.MethodPost, "/api/goals", url.Values{"user_id": {"1"}, "title": {"x"}, "deadline": {"tomorrow"}}},
		{"habit bad frequency", http.MethodPost, "/api/habits", url.Values{"user_id": {"1"}, "title": {"x"}, "frequency": {"hourly"}}},
		{"stats non-numeric user", http.MethodGet, "/api/stats", url.Values{"user_id": {"abc"}}},
		{"goals negative user", http.MethodGet, "/api/goals", url.Values{"user_id": {"-1"}}},
		{"complete without user", http.MethodPost, "/api/goals/1/complete", url.Values{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := ts.do(t, tt.method, tt.path, tt.form)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGetUser_NotFound(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, http.MethodGet, "/api/user/999", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "user not found", body["error"])
}

func TestStats(t *testing.T) {
	ts := newTestServer(t)

	code, _ := ts.do(t, http.MethodGet, "/api/stats", url.Values{"user_id": {"55"}})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = ts.do(t, http.MethodPost, "/api/users", url.Values{"user_id": {"55"}, "username": {"neo"}})
	require.Equal(t, http.StatusCreated, code)

	code, body := ts.do(t, http.MethodGet, "/api/stats", url.Values{"user_id": {"55"}})
	require.Equal(t, http.StatusOK, code, body)

	st := body["stats"].(map[string]interface{})
	assert.Equal(t, float64(0), st["user"].(map[string]interface{})["xp"])
	assert.Equal(t, float64(1), st["user"].(map[string]interface{})["level"])
	assert.Equal(t, float64(0), st["goals"].(map[string]interface{})["completion_rate"])
	assert.Equal(t, float64(0), st["habits"].(map[string]interface{})["total"])
	assert.Equal(t, float64(0), st["focus"].(map[string]interface{})["total_minutes"])
}

func TestRegisterUser_Idempotent(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, http.MethodPost, "/api/users", url.Values{"user_id": {"5"}, "username": {"first"}})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "first", body["user"].(map[string]interface{})["username"])

	code, body = ts.do(t, http.MethodPost, "/api/users", url.Values{"user_id": {"5"}, "username": {"second"}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "first", body["user"].(map[string]interface{})["username"])
}

func TestDashboard(t *testing.T) {
	t.Run("auto registers unknown users", func(t *testing.T) {
		ts := newTestServer(t)

		code, body := ts.do(t, http.MethodGet, "/api/dashboard", url.Values{"user_id": {"77"}})
		require.Equal(t, http.StatusOK, code, body)

		dash := body["dashboard"].(map[string]interface{})
		assert.Equal(t, float64(77), dash["user"].(map[string]interface{})["id"])
		assert.Empty(t, dash["goals"])
		assert.Equal(t, float64(0), dash["active_goals"])
	})

	t.Run("unknown user without auto registration", func(t *testing.T) {
		ts := newTestServer(t, func(_ *Config, d *Dependencies) {
			d.AutoRegister = func(int64) bool { return false }
		})

		code, _ := ts.do(t, http.MethodGet, "/api/dashboard", url.Values{"user_id": {"77"}})
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestConcurrentTracking(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/habits", url.Values{"user_id": {"9"}, "title": {"Run"}})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/habits/1/track",
				strings.NewReader(url.Values{"user_id": {"9"}}.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()
			ts.handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
		}()
	}
	wg.Wait()

	_, body := ts.do(t, http.MethodGet, "/api/user/9", nil)
	assert.Equal(t, float64(105), body["user"].(map[string]interface{})["xp"])
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["healthy"])

	code, body = ts.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])

	code, _ = ts.do(t, http.MethodGet, "/live", nil)
	assert.Equal(t, http.StatusOK, code)

	ts.do(t, http.MethodPost, "/api/goals", url.Values{"user_id": {"1"}, "title": {"x"}})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "focusgoal_http_requests_total")
	assert.Contains(t, rec.Body.String(), `action="goal_created"`)
}

func TestMiddleware(t *testing.T) {
	t.Run("request id and security headers", func(t *testing.T) {
		ts := newTestServer(t)

		req := httptest.NewRequest(http.MethodGet, "/live", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	})

	t.Run("unknown route", func(t *testing.T) {
		ts := newTestServer(t)

		code, body := ts.do(t, http.MethodGet, "/api/nope", nil)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, false, body["success"])
	})

	t.Run("rate limit", func(t *testing.T) {
		ts := newTestServer(t, func(c *Config, _ *Dependencies) {
			c.RateLimitPerSecond = 1
			c.RateLimitBurst = 2
		})

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			code, _ := ts.do(t, http.MethodGet, "/live", nil)
			codes = append(codes, code)
		}
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})

	t.Run("panic recovery", func(t *testing.T) {
		srv := NewServer(Config{}, Dependencies{})
		h := srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), `"success":false`)
	})
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := newRateLimiter(1, 1)
	defer rl.Stop()

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 2, rl.size())

	rl.idleTTL = -time.Second
	rl.Cleanup()
	assert.Equal(t, 0, rl.size())
}

func TestServer_Lifecycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.RateLimitPerSecond = 0

	srv := NewServer(cfg, Dependencies{})
	assert.False(t, srv.IsRunning())
	assert.Zero(t, srv.Uptime())

	errCh := srv.StartAsync()
	require.Eventually(t, srv.IsRunning, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.False(t, srv.IsRunning())

	for err := range errCh {
		assert.NoError(t, err)
	}
}
