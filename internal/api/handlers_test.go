// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/clickboard/internal/analytics"
	"github.com/tomtom215/clickboard/internal/auth"
	"github.com/tomtom215/clickboard/internal/backend"
	"github.com/tomtom215/clickboard/internal/clock"
	"github.com/tomtom215/clickboard/internal/config"
	"github.com/tomtom215/clickboard/internal/dashboard"
	"github.com/tomtom215/clickboard/internal/middleware"
	"github.com/tomtom215/clickboard/internal/models"
	"github.com/tomtom215/clickboard/internal/store"
	"github.com/tomtom215/clickboard/internal/testinfra"
	"github.com/tomtom215/clickboard/internal/tracker"
	"github.com/tomtom215/clickboard/internal/websocket"
)

type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

type apiFixture struct {
	fb      *testinfra.FakeBackend
	session *dashboard.Session
	tokens  *store.TokenStore
	router  http.Handler
}

func fastConfig() tracker.Config {
	cfg := tracker.DefaultConfig()
	cfg.Debounce = 5 * time.Millisecond
	cfg.ClickThrottle = time.Hour
	cfg.SettleDelay = 5 * time.Millisecond
	return cfg
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	fb := testinfra.NewFakeBackend(t)
	kv := store.NewMemoryKV()
	tokens := store.NewTokenStore(kv)
	client := backend.NewClient(config.BackendConfig{URL: fb.URL(), Timeout: 5 * time.Second}, tokens)
	clk := clock.New()

	session := dashboard.New(dashboard.Deps{
		Filters: store.NewFilterStore(kv, clk),
		Tokens:  tokens,
		Fetcher: analytics.NewFetcher(client, clk),
		Sender:  client,
		Clock:   clk,
		Config:  fastConfig(),
	})
	hub := websocket.NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = session.Run(ctx) }()
	go func() { _ = hub.RunWithContext(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-session.Done()
	})

	handler := NewHandler(session, auth.NewService(client, tokens), hub, client, []string{"http://localhost:5173"})
	mw := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		CORSAllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
	})
	return &apiFixture{
		fb:      fb,
		session: session,
		tokens:  tokens,
		router:  NewRouter(handler, mw).SetupChi(),
	}
}

func (f *apiFixture) call(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode body %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, env
}

// login registers a user with one visible click and logs in through the API.
func (f *apiFixture) login(t *testing.T) *testinfra.User {
	t.Helper()
	u := f.fb.AddUser("ana", "Secr3tPass", 30, models.GenderFemale)
	f.fb.AddClick(u.ID, "age_filter", time.Now())

	code, env := f.call(t, http.MethodPost, "/api/v1/auth/login", `{"username":"ana","password":"Secr3tPass"}`)
	if code != http.StatusOK {
		t.Fatalf("login status = %d, error = %+v", code, env.Error)
	}
	var res LoginResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatal(err)
	}
	if !res.Mounted {
		t.Fatal("login did not mount the dashboard")
	}
	return u
}

// waitForBars polls the dashboard until bar data arrives.
func (f *apiFixture) waitForBars(t *testing.T) dashboard.View {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		v := f.session.State()
		if len(v.BarData) > 0 {
			return v
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("dashboard never received bar data")
	return dashboard.View{}
}

func TestLogin_MountsAndFetches(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	f.login(t)

	if !f.tokens.LoggedIn() {
		t.Fatal("token not saved")
	}
	v := f.waitForBars(t)
	if v.Status != dashboard.StatusMounted {
		t.Errorf("Status = %q", v.Status)
	}
	if v.BarData[0].Feature != "age_filter" || v.BarData[0].Clicks != 1 {
		t.Errorf("BarData = %+v", v.BarData)
	}

	code, env := f.call(t, http.MethodGet, "/api/v1/dashboard", "")
	if code != http.StatusOK || env.Status != "success" {
		t.Fatalf("dashboard status = %d %q", code, env.Status)
	}
	var got dashboard.View
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Status != dashboard.StatusMounted {
		t.Errorf("served Status = %q", got.Status)
	}
}

func TestLogin_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"wrong password", `{"username":"ana","password":"nope"}`, http.StatusUnauthorized, "LOGIN_FAILED"},
		{"missing username", `{"password":"x"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown field", `{"user":"ana"}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"empty body", ``, http.StatusBadRequest, "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newAPIFixture(t)
			f.fb.AddUser("ana", "Secr3tPass", 30, models.GenderFemale)

			code, env := f.call(t, http.MethodPost, "/api/v1/auth/login", tt.body)
			if code != tt.wantCode {
				t.Errorf("status = %d, want %d", code, tt.wantCode)
			}
			if env.Error == nil || env.Error.Code != tt.wantErr {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantErr)
			}
			if f.tokens.LoggedIn() {
				t.Error("token saved after failed login")
			}
		})
	}
}

func TestLogin_FailureDetailIsShown(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	f.fb.AddUser("ana", "Secr3tPass", 30, models.GenderFemale)

	_, env := f.call(t, http.MethodPost, "/api/v1/auth/login", `{"username":"ana","password":"wrong"}`)
	if env.Error == nil || env.Error.Message != "Invalid username or password" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()

	const valid = `{"username":"bob","email":"bob@example.com","password":"Passw0rdX","confirmPassword":"Passw0rdX","age":25,"gender":"Male"}`

	t.Run("created", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)
		code, env := f.call(t, http.MethodPost, "/api/v1/auth/register", valid)
		if code != http.StatusCreated {
			t.Fatalf("status = %d, error = %+v", code, env.Error)
		}
		var user models.UserOut
		if err := json.Unmarshal(env.Data, &user); err != nil {
			t.Fatal(err)
		}
		if user.Username != "bob" {
			t.Errorf("Username = %q", user.Username)
		}
		if f.tokens.LoggedIn() {
			t.Error("register must not log in")
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)
		if code, _ := f.call(t, http.MethodPost, "/api/v1/auth/register", valid); code != http.StatusCreated {
			t.Fatalf("first register status = %d", code)
		}
		code, env := f.call(t, http.MethodPost, "/api/v1/auth/register", valid)
		if code != http.StatusBadRequest {
			t.Fatalf("status = %d", code)
		}
		if env.Error == nil || env.Error.Message != "Email already registered" {
			t.Errorf("error = %+v", env.Error)
		}
	})

	t.Run("password mismatch", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)
		body := strings.Replace(valid, `"confirmPassword":"Passw0rdX"`, `"confirmPassword":"other"`, 1)
		code, env := f.call(t, http.MethodPost, "/api/v1/auth/register", body)
		if code != http.StatusBadRequest || env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
			t.Errorf("status = %d, error = %+v", code, env.Error)
		}
		if n := len(f.fb.CapturesFor(http.MethodPost, backend.PathRegister)); n != 0 {
			t.Errorf("backend register calls = %d, want 0", n)
		}
	})

	t.Run("backend failure", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)
		f.fb.FailNext(backend.PathRegister, http.StatusInternalServerError, "")
		code, env := f.call(t, http.MethodPost, "/api/v1/auth/register", valid)
		if code != http.StatusBadGateway || env.Error == nil || env.Error.Code != "BACKEND_ERROR" {
			t.Errorf("status = %d, error = %+v", code, env.Error)
		}
	})
}

func TestChartRoutes_RequireMount(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	code, env := f.call(t, http.MethodPost, "/api/v1/clicks", `{"feature":"bar"}`)
	if code != http.StatusConflict || env.Error == nil || env.Error.Code != "NOT_MOUNTED" {
		t.Errorf("status = %d, error = %+v", code, env.Error)
	}
}

func TestFilters(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	f.login(t)
	f.waitForBars(t)

	code, env := f.call(t, http.MethodPatch, "/api/v1/filters/gender", `{"value":"Male"}`)
	if code != http.StatusOK {
		t.Fatalf("patch status = %d, error = %+v", code, env.Error)
	}
	var v dashboard.View
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatal(err)
	}
	if v.Filters.Gender != models.GenderMale {
		t.Errorf("Gender = %q", v.Filters.Gender)
	}

	code, env = f.call(t, http.MethodPatch, "/api/v1/filters/colour", `{"value":"red"}`)
	if code != http.StatusBadRequest || env.Error.Code != "INVALID_FIELD" {
		t.Errorf("unknown field: status = %d, error = %+v", code, env.Error)
	}

	put := `{"startDate":"2024-01-01","endDate":"2024-01-31","ageGroup":"18-40","gender":""}`
	code, env = f.call(t, http.MethodPut, "/api/v1/filters", put)
	if code != http.StatusOK {
		t.Fatalf("put status = %d, error = %+v", code, env.Error)
	}
	got := f.session.Filters()
	want := models.FilterState{StartDate: "2024-01-01", EndDate: "2024-01-31", AgeGroup: models.AgeGroup18To40}
	if got != want {
		t.Errorf("Filters() = %+v, want %+v", got, want)
	}

	// the filter edits are tracked under the interaction name
	deadline := time.Now().Add(5 * time.Second)
	for len(f.fb.CapturesFor(http.MethodPost, backend.PathTrack)) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if len(f.fb.CapturesFor(http.MethodPost, backend.PathTrack)) == 0 {
		t.Error("filter change was not tracked")
	}
}

func TestClickAndSelection(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	f.login(t)
	f.waitForBars(t)

	code, env := f.call(t, http.MethodPost, "/api/v1/clicks", `{"feature":"age_filter"}`)
	if code != http.StatusAccepted {
		t.Fatalf("first click status = %d, error = %+v", code, env.Error)
	}
	var res ClickResponse
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatal(err)
	}
	if !res.Accepted || res.View.SelectedFeature == nil || *res.View.SelectedFeature != "age_filter" {
		t.Errorf("click response = %+v", res)
	}

	// inside the throttle window: selected but not sent
	code, env = f.call(t, http.MethodPost, "/api/v1/clicks", `{"feature":"age_filter"}`)
	if code != http.StatusOK {
		t.Fatalf("throttled click status = %d", code)
	}
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatal(err)
	}
	if res.Accepted {
		t.Error("second click inside the window was accepted")
	}

	code, env = f.call(t, http.MethodPost, "/api/v1/clicks", `{"feature":"  "}`)
	if code != http.StatusBadRequest || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("blank feature: status = %d, error = %+v", code, env.Error)
	}

	code, env = f.call(t, http.MethodPut, "/api/v1/selection", `{"feature":null}`)
	if code != http.StatusOK {
		t.Fatalf("selection status = %d", code)
	}
	var v dashboard.View
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatal(err)
	}
	if v.SelectedFeature != nil {
		t.Errorf("SelectedFeature = %q, want nil", *v.SelectedFeature)
	}
}

func TestLogout(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	f.login(t)
	f.waitForBars(t)

	code, env := f.call(t, http.MethodPost, "/api/v1/auth/logout", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", code, env.Error)
	}
	v := f.session.State()
	if v.Status != dashboard.StatusLoggedOut || len(v.BarData) != 0 {
		t.Errorf("after logout: status %q, %d bars", v.Status, len(v.BarData))
	}
	if f.tokens.LoggedIn() {
		t.Error("token still saved")
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	code, env := f.call(t, http.MethodGet, "/api/v1/health", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var hs HealthStatus
	if err := json.Unmarshal(env.Data, &hs); err != nil {
		t.Fatal(err)
	}
	if hs.Status != "healthy" || hs.Session != dashboard.StatusIdle || hs.LoggedIn || hs.BackendBreaker != "disabled" {
		t.Errorf("health = %+v", hs)
	}
}

func TestRouter_Fallbacks(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	tests := []struct {
		method, path string
		want         int
		code         string
	}{
		{http.MethodGet, "/api/v1/nowhere", http.StatusNotFound, "NOT_FOUND"},
		{http.MethodDelete, "/api/v1/dashboard", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}
	for _, tt := range tests {
		code, env := f.call(t, tt.method, tt.path, "")
		if code != tt.want || env.Error == nil || env.Error.Code != tt.code {
			t.Errorf("%s %s = %d %+v, want %d %s", tt.method, tt.path, code, env.Error, tt.want, tt.code)
		}
	}
}

func TestRequestIDEchoed(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestCheckWebSocketOrigin(t *testing.T) {
	t.Parallel()

	h := &Handler{corsOrigins: []string{"http://localhost:5173"}}
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:5173", true},
		{"http://evil.example", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := h.checkWebSocketOrigin(req); got != tt.want {
			t.Errorf("origin %q: got %v, want %v", tt.origin, got, tt.want)
		}
	}

	wildcard := &Handler{corsOrigins: []string{"*"}}
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://anything")
	if !wildcard.checkWebSocketOrigin(req) {
		t.Error("wildcard origin rejected")
	}
}

func TestLatencyStats(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	f.call(t, http.MethodGet, "/api/v1/health", "")
	f.call(t, http.MethodGet, "/api/v1/health", "")

	code, env := f.call(t, http.MethodGet, "/api/v1/health/latency", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var stats []middleware.RouteStats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatal(err)
	}
	if len(stats) == 0 || stats[0].Route != "GET /api/v1/health" || stats[0].Count != 2 {
		t.Errorf("stats = %+v", stats)
	}
}
