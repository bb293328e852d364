package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fitness-booking/internal/data/entity"
	"fitness-booking/internal/data/repository"
	"fitness-booking/internal/usecase"
	"fitness-booking/pkg/middleware"
	"fitness-booking/pkg/utils"

	"go.uber.org/zap/zaptest"
)

type envelope struct {
	Status  bool              `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type user struct {
	id   string
	name string
}

var (
	ana    = user{"user-1", "Ana"}
	ben    = user{"user-2", "Ben"}
	maya   = user{"coach-1", "Maya Chen"}
	nobody = user{}
)

func testConfig() *utils.Config {
	return &utils.Config{
		Availability: utils.AvailabilityConfig{
			OpenHour:    9,
			CloseHour:   18,
			SlotMinutes: 60,
			HorizonDays: 60,
			Timezone:    "UTC",
		},
		Notification: utils.NotificationConfig{
			ClassDeadlineHours:   24,
			DefaultDeadlineHours: 48,
			ReminderHours:        []int{12, 6},
		},
	}
}

func newTestApp(t *testing.T, repo *repository.Repository) *App {
	t.Helper()
	fixed := time.Date(2024, 5, 30, 8, 0, 0, 0, time.UTC)
	app := Wiring(repo, testConfig(), zaptest.NewLogger(t), usecase.WithClock(func() time.Time { return fixed }))
	t.Cleanup(app.Service.Notification.Close)
	return app
}

func do(t *testing.T, app *App, as user, method, path string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as.id != "" {
		req.Header.Set(middleware.HeaderUserID, as.id)
		req.Header.Set(middleware.HeaderUserName, as.name)
	}

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return rec.Code, env
}

func session(clock string) map[string]any {
	return map[string]any{
		"kind":           "private_session",
		"coach_id":       "coach-1",
		"gym_id":         "gym-1",
		"date":           "2024-06-01",
		"time":           clock,
		"duration":       60,
		"payment_method": "pay_at_gym",
	}
}

type bookingView struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Time        string `json:"time"`
	DisplayDate string `json:"display_date"`
	Proposal    *struct {
		ID string `json:"id"`
	} `json:"proposal"`
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
	return v
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, repository.NewMemoryRepository(zaptest.NewLogger(t)))

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("health: %d %q", rec.Code, rec.Body.String())
	}
}

func TestAPIRequiresIdentity(t *testing.T) {
	app := newTestApp(t, repository.NewMemoryRepository(zaptest.NewLogger(t)))

	code, env := do(t, app, nobody, http.MethodGet, "/api/bookings", nil)
	if code != http.StatusUnauthorized || env.Status {
		t.Fatalf("expected 401 envelope, got %d %+v", code, env)
	}
}

func TestBookingOverHTTP(t *testing.T) {
	app := newTestApp(t, repository.NewMemoryRepository(zaptest.NewLogger(t)))

	code, env := do(t, app, ana, http.MethodPost, "/api/bookings", session("10:00"))
	if code != http.StatusCreated {
		t.Fatalf("create: %d %+v", code, env)
	}
	b := decodeData[bookingView](t, env)
	if b.Status != "confirmed" || b.DisplayDate != "Saturday, June 1, 2024" {
		t.Fatalf("unexpected booking %+v", b)
	}

	code, env = do(t, app, ben, http.MethodPost, "/api/bookings", session("10:00"))
	if code != http.StatusConflict {
		t.Fatalf("double booking: expected 409, got %d", code)
	}
	conflict := decodeData[struct {
		Available []string `json:"available"`
	}](t, env)
	if len(conflict.Available) != 8 {
		t.Fatalf("conflict should list the remaining slots, got %v", conflict.Available)
	}

	code, env = do(t, app, ana, http.MethodGet, "/api/coaches/coach-1/slots?date=2024-06-01", nil)
	slots := decodeData[struct {
		Slots    []string `json:"slots"`
		DateOpen bool     `json:"date_open"`
	}](t, env)
	if code != http.StatusOK || len(slots.Slots) != 8 || !slots.DateOpen {
		t.Fatalf("slots: %d %+v", code, slots)
	}

	if code, _ := do(t, app, ben, http.MethodGet, "/api/bookings/"+b.ID, nil); code != http.StatusForbidden {
		t.Fatalf("stranger read: expected 403, got %d", code)
	}
	if code, _ := do(t, app, ana, http.MethodGet, "/api/bookings/7d9f4a3e-0000-4000-8000-000000000000", nil); code != http.StatusNotFound {
		t.Fatalf("unknown booking: expected 404, got %d", code)
	}

	code, env = do(t, app, maya, http.MethodGet, "/api/notifications/unread-count", nil)
	unread := decodeData[struct {
		Unread int `json:"unread"`
	}](t, env)
	if code != http.StatusOK || unread.Unread != 1 {
		t.Fatalf("coach unread: %d %+v", code, unread)
	}

	code, env = do(t, app, ana, http.MethodGet, "/api/bookings?status=confirmed", nil)
	page := decodeData[struct {
		Data       []bookingView `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}](t, env)
	if code != http.StatusOK || page.Pagination.Total != 1 || page.Data[0].ID != b.ID {
		t.Fatalf("list: %d %+v", code, page)
	}
}

func TestValidationErrorsOverHTTP(t *testing.T) {
	app := newTestApp(t, repository.NewMemoryRepository(zaptest.NewLogger(t)))

	req := session("10:00")
	delete(req, "date")
	code, env := do(t, app, ana, http.MethodPost, "/api/bookings", req)
	if code != http.StatusBadRequest || env.Errors["Date"] == "" {
		t.Fatalf("expected 400 with a Date error, got %d %+v", code, env)
	}

	r := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewBufferString("{not json"))
	r.Header.Set(middleware.HeaderUserID, ana.id)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, r)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: expected 400, got %d", rec.Code)
	}

	if code, _ := do(t, app, ana, http.MethodGet, "/api/bookings?status=lost", nil); code != http.StatusBadRequest {
		t.Fatalf("bad status filter: expected 400, got %d", code)
	}
}

func TestProposalOverHTTP(t *testing.T) {
	app := newTestApp(t, repository.NewMemoryRepository(zaptest.NewLogger(t)))

	_, env := do(t, app, ana, http.MethodPost, "/api/bookings", session("10:00"))
	b := decodeData[bookingView](t, env)

	code, env := do(t, app, maya, http.MethodPost, "/api/bookings/"+b.ID+"/proposals", map[string]any{
		"time":    "15:00",
		"message": "running late",
	})
	if code != http.StatusOK {
		t.Fatalf("propose: %d %+v", code, env)
	}
	modified := decodeData[bookingView](t, env)
	if modified.Status != "modified" || modified.Proposal == nil {
		t.Fatalf("expected modified booking, got %+v", modified)
	}

	path := "/api/bookings/" + b.ID + "/proposals/" + modified.Proposal.ID + "/respond"
	if code, _ := do(t, app, maya, http.MethodPost, path, map[string]any{"accept": true}); code != http.StatusForbidden {
		t.Fatalf("proposer answering: expected 403, got %d", code)
	}
	if code, env := do(t, app, ana, http.MethodPost, path, map[string]any{}); code != http.StatusBadRequest || env.Errors["Accept"] == "" {
		t.Fatalf("missing accept: expected 400, got %d", code)
	}

	code, env = do(t, app, ana, http.MethodPost, path, map[string]any{"accept": true})
	accepted := decodeData[bookingView](t, env)
	if code != http.StatusOK || accepted.Status != "confirmed" || accepted.Time != "15:00" {
		t.Fatalf("accept: %d %+v", code, accepted)
	}

	// completing twice is an invalid transition
	if code, _ := do(t, app, maya, http.MethodPost, "/api/bookings/"+b.ID+"/complete", nil); code != http.StatusOK {
		t.Fatalf("complete: %d", code)
	}
	if code, _ := do(t, app, maya, http.MethodPost, "/api/bookings/"+b.ID+"/complete", nil); code != http.StatusConflict {
		t.Fatalf("second complete: expected 409, got %d", code)
	}
}

func TestChatOverHTTP(t *testing.T) {
	app := newTestApp(t, repository.NewMemoryRepository(zaptest.NewLogger(t)))

	_, env := do(t, app, ana, http.MethodPost, "/api/bookings", session("11:00"))
	b := decodeData[bookingView](t, env)
	base := "/api/bookings/" + b.ID

	if code, _ := do(t, app, ana, http.MethodPost, base+"/messages", map[string]any{"content": "hi coach"}); code != http.StatusCreated {
		t.Fatalf("send: %d", code)
	}

	code, env := do(t, app, maya, http.MethodPut, base+"/messages/read", nil)
	marked := decodeData[struct {
		Updated int `json:"updated"`
	}](t, env)
	if code != http.StatusOK || marked.Updated != 1 {
		t.Fatalf("mark read: %d %+v", code, marked)
	}

	if code, _ := do(t, app, maya, http.MethodPut, base+"/messaging", map[string]any{"enabled": false}); code != http.StatusOK {
		t.Fatalf("toggle: %d", code)
	}
	if code, _ := do(t, app, ana, http.MethodPost, base+"/messages", map[string]any{"content": "still there?"}); code != http.StatusConflict {
		t.Fatalf("messaging disabled: expected 409, got %d", code)
	}

	code, env = do(t, app, ana, http.MethodGet, base+"/messages", nil)
	msgs := decodeData[[]struct {
		Content string `json:"content"`
		IsRead  bool   `json:"is_read"`
	}](t, env)
	if code != http.StatusOK || len(msgs) != 1 || !msgs[0].IsRead {
		t.Fatalf("messages: %d %+v", code, msgs)
	}
}

func TestNotificationsOverHTTP(t *testing.T) {
	app := newTestApp(t, repository.NewMemoryRepository(zaptest.NewLogger(t)))

	code, env := do(t, app, ana, http.MethodPost, "/api/notifications/payment", map[string]any{
		"amount":    30,
		"item_name": "Morning HIIT",
		"item_type": "class",
	})
	if code != http.StatusCreated {
		t.Fatalf("payment notification: %d %+v", code, env)
	}
	n := decodeData[struct {
		ID      string `json:"id"`
		Payment struct {
			Deadline  time.Time `json:"deadline"`
			Reminders []struct {
				HoursBefore int `json:"hours_before"`
			} `json:"reminders"`
		} `json:"payment"`
	}](t, env)
	if len(n.Payment.Reminders) != 2 || n.Payment.Deadline.Sub(time.Date(2024, 5, 30, 8, 0, 0, 0, time.UTC)) != 24*time.Hour {
		t.Fatalf("unexpected payment notification %+v", n)
	}

	if code, _ := do(t, app, ana, http.MethodPut, "/api/notifications/system-permission", map[string]any{"granted": true}); code != http.StatusOK {
		t.Fatalf("permission: %d", code)
	}
	if code, _ := do(t, app, ana, http.MethodPut, "/api/notifications/"+n.ID+"/read", nil); code != http.StatusOK {
		t.Fatalf("mark read: %d", code)
	}
	if code, _ := do(t, app, ben, http.MethodDelete, "/api/notifications/"+n.ID, nil); code != http.StatusNotFound {
		t.Fatalf("deleting someone else's notification: expected 404, got %d", code)
	}
	if code, _ := do(t, app, ana, http.MethodDelete, "/api/notifications", nil); code != http.StatusOK {
		t.Fatalf("clear: %d", code)
	}

	code, env = do(t, app, ana, http.MethodGet, "/api/notifications", nil)
	page := decodeData[struct {
		Data []json.RawMessage `json:"data"`
	}](t, env)
	if code != http.StatusOK || len(page.Data) != 0 {
		t.Fatalf("feed should be empty, got %d %d", code, len(page.Data))
	}
}

type brokenSnapshots struct{}

func (brokenSnapshots) Load(ctx context.Context, ownerID string) (*entity.Snapshot, error) {
	return &entity.Snapshot{OwnerID: ownerID}, nil
}

func (brokenSnapshots) Save(ctx context.Context, ownerID string, snapshot *entity.Snapshot) error {
	return errors.New("disk full")
}

func (brokenSnapshots) Owners(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestNotDurableReturnsAccepted(t *testing.T) {
	gyms, coaches, classes := repository.DemoCatalog()
	repo := &repository.Repository{
		Snapshot: brokenSnapshots{},
		Catalog:  repository.NewMemoryCatalogRepository(gyms, coaches, classes),
	}
	app := newTestApp(t, repo)

	code, env := do(t, app, ana, http.MethodPost, "/api/bookings", session("09:00"))
	if code != http.StatusAccepted || !env.Status {
		t.Fatalf("expected 202, got %d %+v", code, env)
	}
	b := decodeData[bookingView](t, env)
	if b.ID == "" || b.Status != "confirmed" {
		t.Fatalf("booking should still be returned: %+v", b)
	}

	if code, _ := do(t, app, ana, http.MethodGet, "/api/bookings/"+b.ID, nil); code != http.StatusOK {
		t.Fatalf("booking must stay readable from memory, got %d", code)
	}
}

func TestClassParticipantsOverHTTP(t *testing.T) {
	app := newTestApp(t, repository.NewMemoryRepository(zaptest.NewLogger(t)))

	code, env := do(t, app, ana, http.MethodGet, "/api/classes/class-2/participants", nil)
	p := decodeData[struct {
		Current int  `json:"current"`
		Max     int  `json:"max"`
		IsFull  bool `json:"is_full"`
	}](t, env)
	if code != http.StatusOK || p.Current != 0 || p.Max != 2 || p.IsFull {
		t.Fatalf("participants: %d %+v", code, p)
	}

	if code, _ := do(t, app, ana, http.MethodGet, "/api/classes/nope/participants", nil); code != http.StatusNotFound {
		t.Fatalf("unknown class: expected 404, got %d", code)
	}
}
