package bangumi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(WithBaseURL(srv.URL))
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	c.retryDelay = 0
	return c
}

func TestCalendar(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendar", r.URL.Path)
		assert.Contains(t, r.Header.Get("User-Agent"), "animeposter")
		_ = json.NewEncoder(w).Encode([]CalendarDay{
			{Weekday: Weekday{ID: 1, CN: "周一"}, Items: []Subject{{ID: 1, Name: "A"}}},
		})
	}))

	days, err := c.Calendar(context.Background())
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, 1, days[0].Weekday.ID)
	assert.Equal(t, "A", days[0].Items[0].Name)
}

func TestSearchSubjects(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v0/search/subjects", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		var body struct {
			Keyword string `json:"keyword"`
			Filter  struct {
				Type []int `json:"type"`
			} `json:"filter"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "chainsaw", body.Keyword)
		assert.Equal(t, []int{2}, body.Filter.Type)

		_ = json.NewEncoder(w).Encode(pagedSubjects{Data: []Subject{{ID: 7, NameCN: "链锯人"}}})
	}))

	subjects, err := c.SearchSubjects(context.Background(), "chainsaw", SubjectAnime, 5)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "链锯人", subjects[0].Title())
}

func TestSubjectNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"title":"Not Found"}`, http.StatusNotFound)
	}))

	_, err := c.Subject(context.Background(), 404)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestRetryOnServerError(t *testing.T) {
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode([]CalendarDay{})
	}))

	_, err := c.Calendar(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRateLimitSlowsDown(t *testing.T) {
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode([]CalendarDay{})
	}))
	c.limiter = rate.NewLimiter(1, 100) // measurable starting limit, large burst

	before := c.limiter.Limit()
	_, err := c.Calendar(context.Background())
	require.NoError(t, err)
	assert.Less(t, float64(c.limiter.Limit()), float64(before))
}

func TestEpisodesQuery(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v0/episodes", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("subject_id"))
		assert.Equal(t, "0", r.URL.Query().Get("type"))
		_ = json.NewEncoder(w).Encode(pagedEpisodes{Data: []Episode{{ID: 1, Ep: 1}}})
	}))

	main := 0
	eps, err := c.Episodes(context.Background(), 42, &main)
	require.NoError(t, err)
	require.Len(t, eps, 1)
}
