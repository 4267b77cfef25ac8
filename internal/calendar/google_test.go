package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

type staticTokens struct {
	tokens map[string]string
}

func (s *staticTokens) RefreshToken(_ context.Context, userID string) (string, error) {
	tok, ok := s.tokens[userID]
	if !ok {
		return "", ErrNotConnected
	}
	return tok, nil
}

// newTestService wires a GoogleService against a local fake that
// serves both the token endpoint and the calendar API.
func newTestService(t *testing.T, handler http.HandlerFunc) (*GoogleService, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "access-123",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	svc := &GoogleService{
		oauth: &oauth2.Config{
			ClientID:     "cid",
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{TokenURL: srv.URL + "/token"},
		},
		tokens:  &staticTokens{tokens: map[string]string{"u1": "refresh-u1"}},
		baseURL: srv.URL,
		client:  srv.Client(),
	}
	return svc, srv
}

func TestListEventsSkipsCancelled(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.URL.Query().Get("singleEvents"); got != "true" {
			t.Errorf("singleEvents = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "ev1", "summary": "Họp tuần", "start": map[string]string{"dateTime": "2026-09-01T09:00:00+07:00"}, "end": map[string]string{"dateTime": "2026-09-01T10:00:00+07:00"}},
				{"id": "ev2", "summary": "Cancelled", "status": "cancelled", "start": map[string]string{"dateTime": "2026-09-01T11:00:00+07:00"}, "end": map[string]string{"dateTime": "2026-09-01T12:00:00+07:00"}},
			},
		})
	})

	events, err := svc.ListEvents(context.Background(), "u1", time.Now(), time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].ID != "ev1" {
		t.Errorf("events = %+v, want only ev1", events)
	}
	if events[0].Start.IsZero() {
		t.Error("start time not parsed")
	}
}

func TestListEventsNotConnected(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("api must not be reached without a token")
	})
	_, err := svc.ListEvents(context.Background(), "stranger", time.Now(), time.Now())
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("error = %v, want ErrNotConnected", err)
	}
}

func TestCreateEventDefaultsColor(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var got apiEvent
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if got.ColorID != "7" {
			t.Errorf("colorId = %q, want default 7", got.ColorID)
		}
		got.ID = "created-1"
		json.NewEncoder(w).Encode(got)
	})

	ev, err := svc.CreateEvent(context.Background(), "u1", &EventInput{
		Summary: "Demo sản phẩm",
		Start:   time.Now(),
		End:     time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if ev.ID != "created-1" {
		t.Errorf("id = %q", ev.ID)
	}
}

func TestDeleteEventIdempotent(t *testing.T) {
	for _, code := range []int{http.StatusNoContent, http.StatusNotFound, http.StatusGone} {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		})
		if err := svc.DeleteEvent(context.Background(), "u1", "ev1"); err != nil {
			t.Errorf("DeleteEvent with status %d: %v, want success", code, err)
		}
	}

	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	if err := svc.DeleteEvent(context.Background(), "u1", "ev1"); err == nil {
		t.Error("DeleteEvent with 403 succeeded, want error")
	}
}
