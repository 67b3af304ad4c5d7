// Package bangumi is a client for the api.bgm.tv broadcast-schedule and
// subject-search API.
package bangumi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/yumemi1/animeposter/pkg/logging"
)

const (
	// DefaultBaseURL is the public Bangumi API endpoint.
	DefaultBaseURL = "https://api.bgm.tv"

	defaultUserAgent = "yumemi1/animeposter/1.0 (https://github.com/yumemi1/animeposter)"
	maxAttempts      = 3
)

// Client talks to the Bangumi API. All requests go through a shared rate
// limiter; the server's 429 responses slow the limiter down further.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	// retryDelay is the backoff unit between attempts; tests shrink it.
	retryDelay time.Duration
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithUserAgent overrides the User-Agent header. Bangumi asks API consumers
// to identify themselves.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New returns a Client with a one-request-per-second limiter and a 30 second
// request timeout.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  defaultUserAgent,
		http:       &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		retryDelay: 2 * time.Second,
		log:        logging.GetLogger("bangumi"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// do performs one API call with retry/backoff on network errors, 5xx and
// 429. The decoded body is written into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(1<<(attempt-1)) * c.retryDelay):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		var reqBody io.Reader
		if body != nil {
			b, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("encoding request body: %w", err)
			}
			reqBody = bytes.NewReader(b)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		lastErr = c.consume(resp, out)
		if lastErr == nil {
			return nil
		}
		if !retryable(resp.StatusCode) {
			return lastErr
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			c.slowDown()
		}
	}
	return lastErr
}

func (c *Client) consume(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("bangumi: HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// slowDown halves the limiter rate, bottoming out at one request per ten
// seconds, mirroring the server's throttling expectations.
func (c *Client) slowDown() {
	next := c.limiter.Limit() / 2
	if next < rate.Every(10*time.Second) {
		next = rate.Every(10 * time.Second)
	}
	c.limiter.SetLimit(next)
	c.log.Warn().Float64("limit_rps", float64(next)).Msg("rate limited by API, slowing down")
}

// Calendar fetches the weekly broadcast schedule.
func (c *Client) Calendar(ctx context.Context) ([]CalendarDay, error) {
	var days []CalendarDay
	if err := c.do(ctx, http.MethodGet, "/calendar", nil, nil, &days); err != nil {
		return nil, fmt.Errorf("fetching calendar: %w", err)
	}
	return days, nil
}

// SearchSubjects searches subjects by keyword. typ filters by category when
// non-zero; limit caps the number of results.
func (c *Client) SearchSubjects(ctx context.Context, keyword string, typ SubjectType, limit int) ([]Subject, error) {
	body := map[string]any{"keyword": keyword}
	if typ != 0 {
		body["filter"] = map[string]any{"type": []int{int(typ)}}
	}
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var page pagedSubjects
	if err := c.do(ctx, http.MethodPost, "/v0/search/subjects", q, body, &page); err != nil {
		return nil, fmt.Errorf("searching subjects: %w", err)
	}
	return page.Data, nil
}

// Subject fetches one subject's detail record.
func (c *Client) Subject(ctx context.Context, id int) (*Subject, error) {
	var s Subject
	if err := c.do(ctx, http.MethodGet, "/v0/subjects/"+strconv.Itoa(id), nil, nil, &s); err != nil {
		return nil, fmt.Errorf("fetching subject %d: %w", id, err)
	}
	return &s, nil
}

// Episodes fetches a subject's episode list. epType filters by episode kind
// (0 main, 1 SP, 2 OP, 3 ED) when non-nil.
func (c *Client) Episodes(ctx context.Context, subjectID int, epType *int) ([]Episode, error) {
	q := url.Values{"subject_id": {strconv.Itoa(subjectID)}}
	if epType != nil {
		q.Set("type", strconv.Itoa(*epType))
	}
	var page pagedEpisodes
	if err := c.do(ctx, http.MethodGet, "/v0/episodes", q, nil, &page); err != nil {
		return nil, fmt.Errorf("fetching episodes of %d: %w", subjectID, err)
	}
	return page.Data, nil
}

// UserCollection fetches a user's collection, optionally filtered by
// collection state (wish, doing, collect, on_hold, dropped).
func (c *Client) UserCollection(ctx context.Context, user string, typ SubjectType, collectionType string) ([]CollectionEntry, error) {
	q := url.Values{"subject_type": {strconv.Itoa(int(typ))}}
	if collectionType != "" {
		q.Set("type", collectionType)
	}
	var page pagedCollection
	if err := c.do(ctx, http.MethodGet, "/v0/users/"+url.PathEscape(user)+"/collections", q, nil, &page); err != nil {
		return nil, fmt.Errorf("fetching collection of %s: %w", user, err)
	}
	return page.Data, nil
}
