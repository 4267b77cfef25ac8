package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/hphungg/chatbot-sub000/internal/config"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// googleEndpoint is declared inline to avoid pulling the cloud
// metadata client in via the oauth2/google subpackage.
var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// GoogleService talks to the Google Calendar v3 REST API on the
// user's primary calendar.
type GoogleService struct {
	oauth   *oauth2.Config
	tokens  TokenStore
	baseURL string
	client  *http.Client
}

// NewGoogleService builds the calendar service from config and a
// refresh token store.
func NewGoogleService(cfg config.CalendarConfig, tokens TokenStore) *GoogleService {
	return &GoogleService{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     googleEndpoint,
		},
		tokens:  tokens,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// httpClient returns an HTTP client that authenticates as the given
// user by exchanging their stored refresh token.
func (g *GoogleService) httpClient(ctx context.Context, userID string) (*http.Client, error) {
	refresh, err := g.tokens.RefreshToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)
	src := g.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refresh})
	return oauth2.NewClient(ctx, src), nil
}

type apiEventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type apiEvent struct {
	ID          string       `json:"id,omitempty"`
	Summary     string       `json:"summary,omitempty"`
	Description string       `json:"description,omitempty"`
	Start       apiEventTime `json:"start"`
	End         apiEventTime `json:"end"`
	ColorID     string       `json:"colorId,omitempty"`
	HTMLLink    string       `json:"htmlLink,omitempty"`
	Status      string       `json:"status,omitempty"`
}

func (t apiEventTime) parse() time.Time {
	if t.DateTime != "" {
		if ts, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			return ts
		}
	}
	if t.Date != "" {
		if ts, err := time.Parse("2006-01-02", t.Date); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func (e *apiEvent) toEvent() *Event {
	return &Event{
		ID:          e.ID,
		Summary:     e.Summary,
		Description: e.Description,
		Start:       e.Start.parse(),
		End:         e.End.parse(),
		HTMLLink:    e.HTMLLink,
	}
}

func (g *GoogleService) ListEvents(ctx context.Context, userID string, from, to time.Time) ([]*Event, error) {
	client, err := g.httpClient(ctx, userID)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("timeMin", from.Format(time.RFC3339))
	q.Set("timeMax", to.Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")
	q.Set("maxResults", "50")

	endpoint := fmt.Sprintf("%s/calendars/primary/events?%s", g.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("list events", resp)
	}

	var body struct {
		Items []*apiEvent `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	events := make([]*Event, 0, len(body.Items))
	for _, item := range body.Items {
		if item.Status == "cancelled" {
			continue
		}
		events = append(events, item.toEvent())
	}
	return events, nil
}

func (g *GoogleService) CreateEvent(ctx context.Context, userID string, input *EventInput) (*Event, error) {
	client, err := g.httpClient(ctx, userID)
	if err != nil {
		return nil, err
	}

	colorID := input.ColorID
	if colorID == "" {
		colorID = "7"
	}
	payload := apiEvent{
		Summary:     input.Summary,
		Description: input.Description,
		Start:       apiEventTime{DateTime: input.Start.Format(time.RFC3339)},
		End:         apiEventTime{DateTime: input.End.Format(time.RFC3339)},
		ColorID:     colorID,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := g.baseURL + "/calendars/primary/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("create event", resp)
	}

	var created apiEvent
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode created event: %w", err)
	}
	return created.toEvent(), nil
}

// DeleteEvent removes an event from the user's primary calendar.
// Gone and NotFound responses count as success so retries of an
// already-applied delete do not fail.
func (g *GoogleService) DeleteEvent(ctx context.Context, userID, eventID string) error {
	client, err := g.httpClient(ctx, userID)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/calendars/primary/events/%s", g.baseURL, url.PathEscape(eventID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK, http.StatusNotFound, http.StatusGone:
		return nil
	default:
		return apiError("delete event", resp)
	}
}

func apiError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("%s: google api status %d: %s", op, resp.StatusCode, bytes.TrimSpace(body))
}
