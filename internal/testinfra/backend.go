// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

// Package testinfra provides an in-process fake of the analytics backend
// for tests.
//
// FakeBackend serves the four routes the client uses (login, register,
// analytics, track) with the same status codes and error bodies as the
// real FastAPI service, signs HS256 bearer tokens, and captures every
// request for verification. Two knobs reproduce the timing the dashboard
// has to cope with:
//   - Latency delays every response
//   - VisibilityLag hides new clicks from analytics for a while after they
//     are tracked, like a replica that has not caught up yet
//
// Example:
//
//	fb := testinfra.NewFakeBackend(t)
//	fb.AddUser("ana", "Secr3tPass", 30, models.GenderFemale)
//	client := backend.NewClient(config.BackendConfig{URL: fb.URL()}, tokens)
package testinfra

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/clickboard/internal/clock"
	"github.com/tomtom215/clickboard/internal/models"
)

// Capture is one request received by the fake.
type Capture struct {
	Method  string
	Path    string
	Query   string
	Headers http.Header
	Body    []byte
}

// User is a registered account.
type User struct {
	ID       string
	Username string
	Email    string
	Password string
	Age      int
	Gender   models.Gender
}

// Click is a stored tracking event.
type Click struct {
	UserID    string
	Feature   string
	Timestamp time.Time
	visibleAt time.Time
}

type failure struct {
	status int
	detail string
}

// FakeBackend is an httptest server speaking the analytics backend API.
type FakeBackend struct {
	Server *httptest.Server

	secret []byte

	mu            sync.Mutex
	clock         clock.Clock
	users         map[string]*User
	clicks        []Click
	captures      []Capture
	failures      map[string][]failure
	latency       time.Duration
	visibilityLag time.Duration
}

// NewFakeBackend starts a fake and registers Close with t.Cleanup.
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()

	fb := &FakeBackend{
		clock:    clock.New(),
		secret:   []byte("fake-backend-secret-" + uuid.NewString()),
		users:    make(map[string]*User),
		failures: make(map[string][]failure),
	}

	r := chi.NewRouter()
	r.Use(fb.capture)
	r.Post("/users/login", fb.handleLogin)
	r.Post("/users/", fb.handleRegister)
	r.Group(func(r chi.Router) {
		r.Use(fb.requireToken)
		r.Get("/track/analytics", fb.handleAnalytics)
		r.Post("/track/", fb.handleTrack)
	})

	fb.Server = httptest.NewServer(r)
	t.Cleanup(fb.Server.Close)
	return fb
}

// URL returns the base URL of the fake.
func (fb *FakeBackend) URL() string {
	return fb.Server.URL
}

// SetClock replaces the clock that stamps clicks and checks token expiry.
func (fb *FakeBackend) SetClock(clk clock.Clock) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.clock = clk
}

func (fb *FakeBackend) now() time.Time {
	fb.mu.Lock()
	clk := fb.clock
	fb.mu.Unlock()
	return clk.Now()
}

// SetLatency delays every response by d.
func (fb *FakeBackend) SetLatency(d time.Duration) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.latency = d
}

// SetVisibilityLag hides tracked clicks from analytics for d.
func (fb *FakeBackend) SetVisibilityLag(d time.Duration) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.visibilityLag = d
}

// FailNext makes the next request to path answer status with a FastAPI
// style {"detail": detail} body. Calls queue up.
func (fb *FakeBackend) FailNext(path string, status int, detail string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failures[path] = append(fb.failures[path], failure{status: status, detail: detail})
}

// AddUser registers an account directly and returns it.
func (fb *FakeBackend) AddUser(username, password string, age int, gender models.Gender) *User {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	u := &User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    username + "@example.com",
		Password: password,
		Age:      age,
		Gender:   gender,
	}
	fb.users[username] = u
	return u
}

// AddClick stores a click that is visible immediately.
func (fb *FakeBackend) AddClick(userID, feature string, at time.Time) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.clicks = append(fb.clicks, Click{UserID: userID, Feature: feature, Timestamp: at, visibleAt: at})
}

// Token signs a bearer token for u valid for ttl.
func (fb *FakeBackend) Token(u *User, ttl time.Duration) string {
	claims := jwt.RegisteredClaims{
		Subject:   u.ID,
		ExpiresAt: jwt.NewNumericDate(fb.now().Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(fb.secret)
	if err != nil {
		panic(fmt.Sprintf("sign fake token: %v", err))
	}
	return signed
}

// Captures returns a copy of the captured requests.
func (fb *FakeBackend) Captures() []Capture {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]Capture, len(fb.captures))
	copy(out, fb.captures)
	return out
}

// CapturesFor returns the captured requests for method and path.
func (fb *FakeBackend) CapturesFor(method, path string) []Capture {
	var out []Capture
	for _, c := range fb.Captures() {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// ClearCaptures forgets captured requests.
func (fb *FakeBackend) ClearCaptures() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.captures = nil
}

// Clicks returns a copy of the stored clicks.
func (fb *FakeBackend) Clicks() []Click {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]Click, len(fb.clicks))
	copy(out, fb.clicks)
	return out
}

func (fb *FakeBackend) capture(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		fb.mu.Lock()
		fb.captures = append(fb.captures, Capture{
			Method:  r.Method,
			Path:    r.URL.Path,
			Query:   r.URL.RawQuery,
			Headers: r.Header.Clone(),
			Body:    body,
		})
		latency := fb.latency
		var injected *failure
		if queue := fb.failures[r.URL.Path]; len(queue) > 0 {
			injected = &queue[0]
			fb.failures[r.URL.Path] = queue[1:]
		}
		fb.mu.Unlock()

		if latency > 0 {
			select {
			case <-time.After(latency):
			case <-r.Context().Done():
				return
			}
		}
		if injected != nil {
			writeDetail(w, injected.status, injected.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (fb *FakeBackend) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return fb.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(fb.now))
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		if fb.userByID(claims.Subject) == nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		r.Header.Set("X-Fake-User", claims.Subject)
		next.ServeHTTP(w, r)
	})
}

func (fb *FakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	fb.mu.Lock()
	u := fb.users[req.Username]
	fb.mu.Unlock()
	if u == nil || u.Password != req.Password {
		writeDetail(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		AccessToken: fb.Token(u, 24*time.Hour),
		TokenType:   "bearer",
	})
}

func (fb *FakeBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	fb.mu.Lock()
	for _, existing := range fb.users {
		if existing.Email == req.Email {
			fb.mu.Unlock()
			writeDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
	}
	if _, taken := fb.users[req.Username]; taken {
		fb.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "Username already taken")
		return
	}
	u := &User{
		ID:       uuid.NewString(),
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
		Gender:   req.Gender,
	}
	fb.users[u.Username] = u
	fb.mu.Unlock()

	writeJSON(w, http.StatusCreated, models.UserOut{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Age:      u.Age,
		Gender:   u.Gender,
		CreateAt: fb.now().UTC().Format(time.RFC3339),
	})
}

func (fb *FakeBackend) handleTrack(w http.ResponseWriter, r *http.Request) {
	var req models.TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FeatureName == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "feature_name: Field required")
		return
	}

	now := fb.now()
	userID := r.Header.Get("X-Fake-User")

	fb.mu.Lock()
	fb.clicks = append(fb.clicks, Click{
		UserID:    userID,
		Feature:   req.FeatureName,
		Timestamp: now,
		visibleAt: now.Add(fb.visibilityLag),
	})
	fb.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":           uuid.NewString(),
		"user_id":      userID,
		"feature_name": req.FeatureName,
		"timestamp":    now.UTC().Format(time.RFC3339Nano),
	})
}

// handleAnalytics aggregates visible clicks from the start of startDate to
// the end of endDate. Both spellings of the query parameters are accepted.
func (fb *FakeBackend) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, errStart := parseQueryDate(q, "startDate", "start_date")
	end, errEnd := parseQueryDate(q, "endDate", "end_date")
	if errStart != nil || errEnd != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "start_date and end_date are required")
		return
	}
	end = end.Add(24*time.Hour - time.Nanosecond)
	ageGroup := models.AgeGroup(firstOf(q, "ageGroup", "age_group"))
	gender := models.Gender(q.Get("gender"))
	now := fb.now()

	fb.mu.Lock()
	byFeature := make(map[string]int)
	type dayKey struct{ date, feature string }
	byDay := make(map[dayKey]int)
	for _, c := range fb.clicks {
		if now.Before(c.visibleAt) || c.Timestamp.Before(start) || c.Timestamp.After(end) {
			continue
		}
		u := fb.userByIDLocked(c.UserID)
		if u == nil || !matchesAge(u.Age, ageGroup) || (gender != "" && u.Gender != gender) {
			continue
		}
		byFeature[c.Feature]++
		byDay[dayKey{c.Timestamp.Format(models.DateLayout), c.Feature}]++
	}
	fb.mu.Unlock()

	resp := models.AnalyticsResponse{
		BarData:  make([]models.BarDataItem, 0, len(byFeature)),
		LineData: make([]models.RawLineDataItem, 0, len(byDay)),
	}
	for feature, n := range byFeature {
		resp.BarData = append(resp.BarData, models.BarDataItem{Feature: feature, Clicks: n})
	}
	sort.Slice(resp.BarData, func(i, j int) bool { return resp.BarData[i].Feature < resp.BarData[j].Feature })
	for k, n := range byDay {
		resp.LineData = append(resp.LineData, models.RawLineDataItem{Date: k.date, Feature: k.feature, Clicks: n})
	}
	sort.Slice(resp.LineData, func(i, j int) bool {
		a, b := resp.LineData[i], resp.LineData[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.Feature < b.Feature
	})

	writeJSON(w, http.StatusOK, resp)
}

func (fb *FakeBackend) userByID(id string) *User {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.userByIDLocked(id)
}

func (fb *FakeBackend) userByIDLocked(id string) *User {
	for _, u := range fb.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func matchesAge(age int, group models.AgeGroup) bool {
	switch group {
	case models.AgeGroupUnder18:
		return age < 18
	case models.AgeGroup18To40:
		return age >= 18 && age <= 40
	case models.AgeGroupOver40:
		return age > 40
	}
	return true
}

func parseQueryDate(q map[string][]string, names ...string) (time.Time, error) {
	raw := firstOf(q, names...)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing %s", names[0])
	}
	return time.ParseInLocation(models.DateLayout, raw, time.Local)
}

func firstOf(q map[string][]string, names ...string) string {
	for _, n := range names {
		if v := q[n]; len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
