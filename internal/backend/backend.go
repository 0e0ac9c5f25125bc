// Package backend is a small client for the association's hosted Supabase
// project: TX Cup standings, member profiles, and the feedback table.
package backend

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrNotConfigured is returned when the URL or key an operation needs is missing.
var ErrNotConfigured = errors.New("backend not configured")

var tracer = otel.Tracer("github.com/hvga/hvga-og/internal/backend")

const (
	memberColumns = "name,handicap_index,flight,current_status,is_senior,tournament_scores"
	feedbackTable = "hvga_feedback"
)

// Config holds the hosted backend endpoints and credentials.
type Config struct {
	SupabaseURL  string
	AnonKey      string
	StandingsURL string
	MembersURL   string
	Timeout      time.Duration
}

// Standing is one row of the TX Cup standings.
type Standing struct {
	Position   int     `json:"position"`
	Name       string  `json:"name"`
	TotalScore float64 `json:"totalScore"`
}

// Score is a member's result at one tournament.
type Score struct {
	Date           string      `json:"date"`
	Score          json.Number `json:"score"`
	TournamentName string      `json:"tournament_name"`
}

// Member is a row of the members table.
type Member struct {
	Name             string   `json:"name"`
	HandicapIndex    *float64 `json:"handicap_index"`
	Flight           string   `json:"flight"`
	CurrentStatus    string   `json:"current_status"`
	IsSenior         bool     `json:"is_senior"`
	TournamentScores []Score  `json:"tournament_scores"`
}

// Client talks to Supabase over its REST interface.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Client. A zero Timeout defaults to 10 seconds.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// FetchStandings returns the current TX Cup standings sorted by position.
func (c *Client) FetchStandings(ctx context.Context) ([]Standing, error) {
	if c.cfg.StandingsURL == "" || c.cfg.AnonKey == "" {
		return nil, fmt.Errorf("fetching standings: %w", ErrNotConfigured)
	}
	ctx, span := tracer.Start(ctx, "backend.FetchStandings")
	defer span.End()

	var payload struct {
		Standings []Standing `json:"standings"`
	}
	if err := c.getJSON(ctx, c.cfg.StandingsURL, &payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("fetching standings: %w", err)
	}
	span.SetAttributes(attribute.Int("standings.count", len(payload.Standings)))
	slices.SortStableFunc(payload.Standings, func(a, b Standing) int {
		return cmp.Compare(a.Position, b.Position)
	})
	return payload.Standings, nil
}

// SearchMembers returns members whose name contains name, case-insensitively,
// ordered by name.
func (c *Client) SearchMembers(ctx context.Context, name string) ([]Member, error) {
	if c.cfg.SupabaseURL == "" || c.cfg.AnonKey == "" {
		return nil, fmt.Errorf("searching members: %w", ErrNotConfigured)
	}
	ctx, span := tracer.Start(ctx, "backend.SearchMembers")
	defer span.End()

	q := url.Values{}
	q.Set("select", memberColumns)
	q.Set("name", "ilike.*"+strings.TrimSpace(name)+"*")
	q.Set("order", "name")
	endpoint := c.restURL("members") + "?" + q.Encode()

	var members []Member
	if err := c.getJSON(ctx, endpoint, &members); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("searching members: %w", err)
	}
	span.SetAttributes(attribute.Int("members.count", len(members)))
	return members, nil
}

// ListMembers returns the raw members payload for the pass-through route.
func (c *Client) ListMembers(ctx context.Context) (json.RawMessage, error) {
	if c.cfg.MembersURL == "" {
		return nil, fmt.Errorf("listing members: %w", ErrNotConfigured)
	}
	ctx, span := tracer.Start(ctx, "backend.ListMembers")
	defer span.End()

	var raw json.RawMessage
	if err := c.getJSON(ctx, c.cfg.MembersURL, &raw); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("listing members: %w", err)
	}
	return raw, nil
}

// SubmitFeedback inserts a feedback message.
func (c *Client) SubmitFeedback(ctx context.Context, message string) error {
	if c.cfg.SupabaseURL == "" || c.cfg.AnonKey == "" {
		return fmt.Errorf("submitting feedback: %w", ErrNotConfigured)
	}
	ctx, span := tracer.Start(ctx, "backend.SubmitFeedback")
	defer span.End()

	body, err := json.Marshal([]map[string]string{{"message": strings.TrimSpace(message)}})
	if err != nil {
		return fmt.Errorf("encoding feedback: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.restURL(feedbackTable), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating feedback request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("submitting feedback: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("submitting feedback: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (c *Client) restURL(table string) string {
	return strings.TrimRight(c.cfg.SupabaseURL, "/") + "/rest/v1/" + table
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.AnonKey == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AnonKey)
	req.Header.Set("apikey", c.cfg.AnonKey)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Warn().
			Int("status", resp.StatusCode).
			Str("body", strings.TrimSpace(string(body))).
			Msg("backend request failed")
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
