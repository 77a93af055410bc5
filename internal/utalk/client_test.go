package utalk

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/scribe/internal/transcript"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, router http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "tok-123", 20, 5*time.Second, discardLogger())
}

func TestDayWindow(t *testing.T) {
	day := time.Date(2025, 1, 31, 15, 42, 0, 0, time.UTC)
	w := DayWindow(day, 20)

	if w.Start != "2025-01-31T00:00:00" {
		t.Errorf("start = %q", w.Start)
	}
	if w.End != "2025-01-31T20:00:00" {
		t.Errorf("end = %q", w.End)
	}
}

func TestDayWindow_ConvertsToUTC(t *testing.T) {
	// 22:00 in São Paulo (UTC-3) is already the next day in UTC.
	loc := time.FixedZone("BRT", -3*60*60)
	w := DayWindow(time.Date(2025, 1, 31, 22, 0, 0, 0, loc), 20)

	if w.Start != "2025-02-01T00:00:00" {
		t.Errorf("start = %q", w.Start)
	}
}

func TestListClosedConversations(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/v1/chats/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("expected Bearer tok-123, got %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("expected Accept application/json, got %q", got)
		}

		q := r.URL.Query()
		want := map[string]string{
			"organizationId":        "org-1",
			"ChatState":             "Closed",
			"Messages":              "All",
			"OrderBy":               "LastMessage",
			"Skip":                  "0",
			"Take":                  "20",
			"DateStartCreatedAtUTC": "2025-01-31T00:00:00",
			"DateEndCreatedAtUTC":   "2025-01-31T20:00:00",
		}
		for k, v := range want {
			if q.Get(k) != v {
				t.Errorf("query %s = %q, want %q", k, q.Get(k), v)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"items": [
			{"id": "c1", "contact": {"name": "Jo.ão"}, "createdAtUTC": "2025-01-31T10:00:00Z", "closedAtUTC": "2025-01-31T11:00:00Z"},
			{"id": "c2", "contact": {"name": "A/B: Ltda"}, "createdAtUTC": "2025-01-31T12:00:00Z"},
			{"id": "c3", "contact": {}}
		]}`)
	})

	c := newTestClient(t, r)
	convs, err := c.ListClosedConversations(context.Background(), Window{Start: "2025-01-31T00:00:00", End: "2025-01-31T20:00:00"}, "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(convs) != 3 {
		t.Fatalf("expected 3 conversations, got %d", len(convs))
	}

	if convs[0] != (transcript.Conversation{ID: "c1", ContactName: "Jo.ão", CreatedAt: "2025-01-31T10:00:00Z", ClosedAt: "2025-01-31T11:00:00Z"}) {
		t.Errorf("conv[0] = %+v", convs[0])
	}
	if convs[1].ContactName != "A_B_ Ltda" {
		t.Errorf("expected sanitized contact name, got %q", convs[1].ContactName)
	}
	if convs[1].ClosedAt != transcript.UnknownTimestamp {
		t.Errorf("expected unknown closed timestamp, got %q", convs[1].ClosedAt)
	}
	if convs[2].ContactName != transcript.UnknownContact {
		t.Errorf("expected unknown contact, got %q", convs[2].ContactName)
	}
	if convs[2].CreatedAt != transcript.UnknownTimestamp {
		t.Errorf("expected unknown created timestamp, got %q", convs[2].CreatedAt)
	}
}

func TestListClosedConversations_PageSize(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/v1/chats/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("Take"); got != "5" {
			t.Errorf("expected Take 5, got %q", got)
		}
		io.WriteString(w, `{"items": []}`)
	})
	server := httptest.NewServer(r)
	defer server.Close()

	c := NewClient(server.URL+"/", "tok", 5, time.Second, discardLogger())
	convs, err := c.ListClosedConversations(context.Background(), Window{}, "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(convs) != 0 {
		t.Errorf("expected no conversations, got %d", len(convs))
	}
}

func TestListClosedConversations_StatusError(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/v1/chats/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message": "invalid token"}`)
	})

	c := newTestClient(t, r)
	_, err := c.ListClosedConversations(context.Background(), Window{}, "org-1")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if se.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", se.StatusCode)
	}
}

func TestFetchMessages(t *testing.T) {
	asOf := time.Date(2025, 1, 31, 21, 0, 0, 0, time.UTC)

	r := chi.NewRouter()
	r.Get("/v1/chats/{chatID}/relative-messages/", func(w http.ResponseWriter, r *http.Request) {
		if id := chi.URLParam(r, "chatID"); id != "c1" {
			t.Errorf("expected chat c1, got %q", id)
		}
		q := r.URL.Query()
		if q.Get("organizationId") != "org-1" {
			t.Errorf("organizationId = %q", q.Get("organizationId"))
		}
		if q.Get("FromEventUTC") != "2025-01-31T21:00:00Z" {
			t.Errorf("FromEventUTC = %q", q.Get("FromEventUTC"))
		}
		if q.Get("Take") != "50" {
			t.Errorf("Take = %q", q.Get("Take"))
		}
		if q.Get("Direction") != "TakeBefore" {
			t.Errorf("Direction = %q", q.Get("Direction"))
		}

		io.WriteString(w, `{"messages": [
			{"eventAtUTC": "2025-01-31T10:01:00Z", "messageType": "Text", "content": "oi", "source": "Contact"},
			{"eventAtUTC": "2025-01-31T10:02:00Z", "messageType": "Text", "content": "olá", "source": "Member", "sentByOrganizationMember": {"id": "m1"}},
			{"eventAtUTC": "2025-01-31T10:03:00Z", "messageType": "Audio", "file": {"url": "https://cdn/a.ogg"}},
			{"eventAtUTC": "2025-01-31T10:04:00Z", "messageType": "Image", "file": {}},
			{"eventAtUTC": "2025-01-31T10:05:00Z", "messageType": "Contact", "contacts": [{"name": "Beto", "phoneNumbers": ["+55 11 9999"]}, {"name": "Carla"}]},
			{"eventAtUTC": "2025-01-31T10:06:00Z", "messageType": "Sticker"}
		]}`)
	})

	c := newTestClient(t, r)
	msgs, err := c.FetchMessages(context.Background(), "c1", "org-1", asOf, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 6 {
		t.Fatalf("expected 6 messages, got %d", len(msgs))
	}

	if msgs[0].FromMember || msgs[0].Content != "oi" || msgs[0].Type != transcript.TypeText {
		t.Errorf("msg[0] = %+v", msgs[0])
	}
	if !msgs[1].FromMember || msgs[1].SenderMemberID != "m1" {
		t.Errorf("msg[1] = %+v", msgs[1])
	}
	if msgs[2].Type != transcript.TypeAudio || msgs[2].File == nil || msgs[2].File.URL != "https://cdn/a.ogg" {
		t.Errorf("msg[2] = %+v", msgs[2])
	}
	if msgs[3].File == nil || msgs[3].File.URL != "" {
		t.Errorf("expected attachment without url, got %+v", msgs[3].File)
	}
	if len(msgs[4].Contacts) != 2 || msgs[4].Contacts[0].Name != "Beto" || len(msgs[4].Contacts[1].PhoneNumbers) != 0 {
		t.Errorf("msg[4] contacts = %+v", msgs[4].Contacts)
	}
	if msgs[5].Type != transcript.TypeUnknown {
		t.Errorf("expected unknown type, got %v", msgs[5].Type)
	}
	if msgs[0].Timestamp != "2025-01-31T10:01:00Z" || msgs[5].Timestamp != "2025-01-31T10:06:00Z" {
		t.Error("messages should keep the order delivered by the API")
	}
}

func TestFetchMessages_ServerError(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/v1/chats/{chatID}/relative-messages/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	c := newTestClient(t, r)
	_, err := c.FetchMessages(context.Background(), "c1", "org-1", time.Now(), 50)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 StatusError, got %v", err)
	}
}

func TestFetchMessages_MalformedBody(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/v1/chats/{chatID}/relative-messages/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"messages": [`)
	})

	c := newTestClient(t, r)
	if _, err := c.FetchMessages(context.Background(), "c1", "org-1", time.Now(), 50); err == nil {
		t.Fatal("expected error for malformed body")
	}
}
