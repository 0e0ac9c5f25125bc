package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchStandings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer anon" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("apikey"); got != "anon" {
			t.Errorf("apikey = %q", got)
		}
		w.Write([]byte(`{"standings":[{"position":2,"name":"Jim DAVIS","totalScore":145.5},{"position":1,"name":"Henry DO","totalScore":150}]}`))
	}))
	defer srv.Close()

	c := New(Config{StandingsURL: srv.URL, AnonKey: "anon"})
	got, err := c.FetchStandings(context.Background())
	if err != nil {
		t.Fatalf("FetchStandings: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 standings, got %d", len(got))
	}
	if got[0].Position != 1 || got[0].Name != "Henry DO" {
		t.Errorf("standings not sorted by position: first %+v", got[0])
	}
	if got[1].Name != "Jim DAVIS" || got[1].TotalScore != 145.5 || got[1].Position != 2 {
		t.Errorf("unexpected standing %+v", got[1])
	}
}

func TestFetchStandingsNotConfigured(t *testing.T) {
	c := New(Config{})
	_, err := c.FetchStandings(context.Background())
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestFetchStandingsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Config{StandingsURL: srv.URL, AnonKey: "anon"})
	if _, err := c.FetchStandings(context.Background()); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestSearchMembers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/members" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("name"); got != "ilike.*nguyen*" {
			t.Errorf("name filter = %q", got)
		}
		if got := q.Get("order"); got != "name" {
			t.Errorf("order = %q", got)
		}
		w.Write([]byte(`[{"name":"Joe Nguyen","handicap_index":12.4,"flight":"B","current_status":"Active","is_senior":false,
			"tournament_scores":[{"date":"2025-03-01","score":82,"tournament_name":"March Monthly"}]}]`))
	}))
	defer srv.Close()

	c := New(Config{SupabaseURL: srv.URL + "/", AnonKey: "anon"})
	got, err := c.SearchMembers(context.Background(), " nguyen ")
	if err != nil {
		t.Fatalf("SearchMembers: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 member, got %d", len(got))
	}
	m := got[0]
	if m.HandicapIndex == nil || *m.HandicapIndex != 12.4 {
		t.Errorf("handicap = %v", m.HandicapIndex)
	}
	if len(m.TournamentScores) != 1 || m.TournamentScores[0].Score.String() != "82" {
		t.Errorf("scores = %+v", m.TournamentScores)
	}
}

func TestListMembersPassThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"A"},{"name":"B"}]`))
	}))
	defer srv.Close()

	c := New(Config{MembersURL: srv.URL, AnonKey: "anon"})
	raw, err := c.ListMembers(context.Background())
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
}

func TestSubmitFeedback(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/v1/hvga_feedback" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(Config{SupabaseURL: srv.URL, AnonKey: "anon"})
	if err := c.SubmitFeedback(context.Background(), "  great bot  "); err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	if !strings.Contains(body, `"message":"great bot"`) {
		t.Errorf("body = %s", body)
	}
}

func TestSubmitFeedbackRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(Config{SupabaseURL: srv.URL, AnonKey: "anon"})
	err := c.SubmitFeedback(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}
