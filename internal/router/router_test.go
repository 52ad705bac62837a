package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/appointment-booking/internal/clock"
	"github.com/iliyamo/appointment-booking/internal/handler"
	"github.com/iliyamo/appointment-booking/internal/logger"
	"github.com/iliyamo/appointment-booking/internal/model"
	"github.com/iliyamo/appointment-booking/internal/repository/memory"
	"github.com/iliyamo/appointment-booking/internal/service"
	"github.com/iliyamo/appointment-booking/internal/utils"
)

var now = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

type countingPurger struct {
	mu sync.Mutex
	n  int
}

func (p *countingPurger) Purge(context.Context) {
	p.mu.Lock()
	p.n++
	p.mu.Unlock()
}

type testServer struct {
	e      *echo.Echo
	store  *memory.Store
	codec  *utils.SessionCodec
	purger *countingPurger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clk := clock.NewFixed(now)
	log := logger.Discard()
	store := memory.New()
	codec, err := utils.NewSessionCodec("test-secret", clk)
	if err != nil {
		t.Fatal(err)
	}
	slots := service.NewSlotService(store, clk)
	bookings := service.NewBookingService(store, store, clk, log)
	purger := &countingPurger{}
	passthrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }

	e := echo.New()
	public := &handler.PublicHandler{Slots: slots, Bookings: bookings, Purger: purger, Log: log}
	RegisterRoutes(e)
	RegisterPublic(e, public, passthrough)
	RegisterCustomer(e, public, passthrough)
	RegisterAdmin(e,
		&handler.AuthHandler{Codec: codec, Password: "hunter2", Log: log},
		&handler.AdminHandler{Slots: slots, Bookings: bookings, Purger: purger, Location: time.UTC, Log: log},
		codec, passthrough)

	return &testServer{e: e, store: store, codec: codec, purger: purger}
}

func (s *testServer) seed(t *testing.T, id string, start time.Time) {
	t.Helper()
	err := s.store.Create(context.Background(), model.Slot{ID: id, StartTime: start, EndTime: start.Add(45 * time.Minute), IsActive: true, CreatedAt: now})
	if err != nil {
		t.Fatal(err)
	}
}

func (s *testServer) do(t *testing.T, method, target, body string, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if admin {
		token, err := s.codec.Issue()
		if err != nil {
			t.Fatal(err)
		}
		req.AddCookie(&http.Cookie{Name: utils.AdminCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(t, http.MethodGet, "/healthz", "", false); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}
	if rec := s.do(t, http.MethodGet, "/metrics", "", false); rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
}

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "s1", now.Add(time.Hour))
	s.seed(t, "s2", now.Add(2*time.Hour))

	rec := s.do(t, http.MethodGet, "/v1/slots", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d %s", rec.Code, rec.Body.String())
	}
	if got := decode(t, rec)["slots"].([]any); len(got) != 2 {
		t.Fatalf("expected 2 open slots, got %v", got)
	}
	if strings.Contains(rec.Body.String(), "is_active") {
		t.Fatalf("public listing leaks slot state: %s", rec.Body.String())
	}

	body := `{"slot_id":"s1","customer_name":"Ana","customer_contact":"ana@example.com","customer_phone":"2095551212","sms_opt_in":true}`
	rec = s.do(t, http.MethodPost, "/v1/book", body, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("book: %d %s", rec.Code, rec.Body.String())
	}
	out := decode(t, rec)
	if out["ok"] != true || out["message"] != "Booking confirmed for Wed, Mar 4, 10:00 AM" || out["booking_id"] == "" {
		t.Fatalf("unexpected response %v", out)
	}
	if s.purger.n != 1 {
		t.Fatalf("expected cache purge after booking, got %d", s.purger.n)
	}

	rec = s.do(t, http.MethodPost, "/v1/book", body, false)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second booking: %d %s", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["code"] != "CONFLICT" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/v1/slots", "", false)
	if got := decode(t, rec)["slots"].([]any); len(got) != 1 {
		t.Fatalf("expected 1 open slot after booking, got %v", got)
	}
}

func TestBookingErrors(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "past", now.Add(-time.Hour))

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"slot_id":`, http.StatusBadRequest},
		{"short name", `{"slot_id":"past","customer_name":"A","customer_contact":"ana@example.com"}`, http.StatusBadRequest},
		{"unknown slot", `{"slot_id":"nope","customer_name":"Ana","customer_contact":"ana@example.com"}`, http.StatusNotFound},
		{"past slot", `{"slot_id":"past","customer_name":"Ana","customer_contact":"ana@example.com"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/v1/book", tt.body, false)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if _, ok := decode(t, rec)["error"]; !ok {
				t.Fatalf("missing error field: %s", rec.Body.String())
			}
		})
	}
}

func TestAdminSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/admin/login", `{"password":"wrong"}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/v1/admin/login", `{"password":"hunter2"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == utils.AdminCookieName {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode || cookie.MaxAge != 7*24*60*60 {
		t.Fatalf("unexpected cookie %+v", cookie)
	}
	if !s.codec.Verify(cookie.Value) {
		t.Fatal("issued cookie does not verify")
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	s.e.ServeHTTP(me, req)
	if decode(t, me)["ok"] != true {
		t.Fatalf("me with cookie: %s", me.Body.String())
	}
	if got := decode(t, s.do(t, http.MethodGet, "/v1/admin/me", "", false))["ok"]; got != false {
		t.Fatalf("me without cookie: %v", got)
	}

	rec = s.do(t, http.MethodPost, "/v1/admin/logout", "", false)
	for _, c := range rec.Result().Cookies() {
		if c.Name == utils.AdminCookieName && (c.Value != "" || c.MaxAge >= 0) {
			t.Fatalf("logout should expire the cookie, got %+v", c)
		}
	}
}

func TestAdminRoutesRequireSession(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "s1", now.Add(time.Hour))

	routes := []struct{ method, path string }{
		{http.MethodGet, "/v1/admin/slots"},
		{http.MethodPost, "/v1/admin/slots"},
		{http.MethodPost, "/v1/admin/slots/bulk"},
		{http.MethodPost, "/v1/admin/slots/generate"},
		{http.MethodGet, "/v1/admin/slots/preview"},
		{http.MethodDelete, "/v1/admin/slots/s1"},
		{http.MethodGet, "/v1/admin/bookings"},
	}
	for _, r := range routes {
		rec := s.do(t, r.method, r.path, "", false)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: status %d, want 401", r.method, r.path, rec.Code)
		}
	}
	if _, err := s.store.Get(context.Background(), "s1"); err != nil {
		t.Fatalf("slot touched by unauthorised delete: %v", err)
	}
}

func TestAdminSlotManagement(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/admin/slots", `{"start_time":"2026-03-04T15:00:00Z","minutes":30}`, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	rec = s.do(t, http.MethodPost, "/v1/admin/slots", `{"start_time":"2026-03-04T15:00:00Z","minutes":300}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("create with 300 minutes: %d", rec.Code)
	}
	rec = s.do(t, http.MethodPost, "/v1/admin/slots", `{"start_time":"tomorrow","minutes":30}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("create with bad time: %d", rec.Code)
	}

	bulk := `{"slots":[{"start_time":"2026-03-05T10:00:00Z","end_time":"2026-03-05T10:45:00Z"},{"start_time":"2026-03-05T11:00:00Z","end_time":"2026-03-05T11:45:00Z"}]}`
	rec = s.do(t, http.MethodPost, "/v1/admin/slots/bulk", bulk, true)
	if rec.Code != http.StatusCreated || decode(t, rec)["created"] != float64(2) {
		t.Fatalf("bulk: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/v1/admin/slots/preview?start_date=2026-03-09&weekdays=1,2&open_hour=10&close_hour=12&slot_minutes=30&buffer_minutes=10", "", true)
	if rec.Code != http.StatusOK || decode(t, rec)["count"] != float64(6) {
		t.Fatalf("preview: %d %s", rec.Code, rec.Body.String())
	}
	rec = s.do(t, http.MethodGet, "/v1/admin/slots/preview?start_date=2026-03-09&open_hour=abc", "", true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("preview with bad hour: %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/v1/admin/slots/generate", `{"start_date":"2026-03-09","weekdays":[1,2],"open_hour":10,"close_hour":12,"slot_minutes":30,"buffer_minutes":10}`, true)
	if rec.Code != http.StatusCreated || decode(t, rec)["created"] != float64(6) {
		t.Fatalf("generate: %d %s", rec.Code, rec.Body.String())
	}
	rec = s.do(t, http.MethodPost, "/v1/admin/slots/generate", `{"start_date":"2026-03-09","open_hour":12,"close_hour":10}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("generate with inverted hours: %d", rec.Code)
	}
	rec = s.do(t, http.MethodPost, "/v1/admin/slots/generate", `{"start_date":"2026-03-09","slot_minutes":153722868}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("generate with oversized slot: %d", rec.Code)
	}
	rec = s.do(t, http.MethodGet, "/v1/admin/slots/preview?start_date=2026-03-09&buffer_minutes=153722868", "", true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("preview with oversized buffer: %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/v1/admin/slots", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin list: %d", rec.Code)
	}
	slots := decode(t, rec)["slots"].([]any)
	if len(slots) != 9 {
		t.Fatalf("expected 9 upcoming slots, got %d", len(slots))
	}
	first := slots[0].(map[string]any)
	if _, ok := first["booking"]; !ok {
		t.Fatalf("admin slot view lacks booking field: %v", first)
	}
	if s.purger.n != 3 {
		t.Fatalf("expected 3 purges for 3 successful mutations, got %d", s.purger.n)
	}
}

func TestAdminDeleteAndBookings(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "booked", now.Add(time.Hour))
	s.seed(t, "free", now.Add(2*time.Hour))

	body := `{"slot_id":"booked","customer_name":"Ana","customer_contact":"ana@example.com","note":"first visit"}`
	if rec := s.do(t, http.MethodPost, "/v1/book", body, false); rec.Code != http.StatusOK {
		t.Fatalf("book: %d %s", rec.Code, rec.Body.String())
	}

	if rec := s.do(t, http.MethodDelete, "/v1/admin/slots/booked", "", true); rec.Code != http.StatusConflict {
		t.Fatalf("delete booked: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodDelete, "/v1/admin/slots/free", "", true); rec.Code != http.StatusOK {
		t.Fatalf("delete free: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodDelete, "/v1/admin/slots/free", "", true); rec.Code != http.StatusNotFound {
		t.Fatalf("delete twice: %d", rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/v1/admin/bookings", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("bookings: %d", rec.Code)
	}
	bookings := decode(t, rec)["bookings"].([]any)
	if len(bookings) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(bookings))
	}
	b := bookings[0].(map[string]any)
	if b["note"] != "first visit" || b["slot"].(map[string]any)["id"] != "booked" {
		t.Fatalf("unexpected booking %v", b)
	}
}
