package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumemi1/animeposter/pkg/bangumi"
	"github.com/yumemi1/animeposter/pkg/blacklist"
)

// A Monday.
var monday = time.Date(2026, 1, 12, 18, 30, 0, 0, time.UTC)

func show(name string, score float64) bangumi.Subject {
	return bangumi.Subject{
		Name:       name,
		Rating:     bangumi.Rating{Score: score},
		AirWeekday: 1,
		Images:     bangumi.Images{Medium: "https://img/" + name + ".jpg"},
		Collection: bangumi.Collection{Doing: 100},
	}
}

func calendarWith(items ...bangumi.Subject) []bangumi.CalendarDay {
	return []bangumi.CalendarDay{
		{Weekday: bangumi.Weekday{ID: 1}, Items: items},
		{Weekday: bangumi.Weekday{ID: 2}, Items: []bangumi.Subject{show("tuesday-show", 9.0)}},
	}
}

func TestDailyPicksTopRated(t *testing.T) {
	b := NewBuilder(nil)
	cal := calendarWith(show("low", 6.0), show("high", 8.5), show("mid", 7.0))

	data := b.Daily(cal, monday)
	assert.Equal(t, true, data["has_animes"])
	assert.Equal(t, "2026年1月12日", data["date"])
	assert.Equal(t, "周一", data["weekday"])

	main := data["main_anime"].(map[string]any)
	assert.Equal(t, "high", main["title"])
	assert.Equal(t, "8.5", main["score"])
	assert.Equal(t, "https://img/high.jpg", main["cover"])
	assert.Equal(t, "每周一更新", main["air_time"])
	assert.Equal(t, 100, main["watchers"])

	others := data["other_animes"].([]any)
	require.Len(t, others, 2)
	assert.Equal(t, "mid", others[0].(map[string]any)["title"])
	assert.Equal(t, "low", others[1].(map[string]any)["title"])
}

func TestDailyCapsOthersAtFour(t *testing.T) {
	b := NewBuilder(nil)
	cal := calendarWith(
		show("a", 9), show("b", 8), show("c", 7),
		show("d", 6), show("e", 5), show("f", 4), show("g", 3),
	)
	data := b.Daily(cal, monday)
	assert.Len(t, data["other_animes"].([]any), 4)
}

func TestDailyEmptyDay(t *testing.T) {
	b := NewBuilder(nil)
	data := b.Daily(nil, monday)

	assert.Equal(t, false, data["has_animes"])
	_, hasMain := data["main_anime"]
	assert.False(t, hasMain)
}

func TestDailyAppliesBlacklist(t *testing.T) {
	b := NewBuilder(blacklist.New(blacklist.Rules{Keywords: []string{"PV"}}))
	cal := calendarWith(show("real deal", 7.0), show("teaser PV", 9.9))

	data := b.Daily(cal, monday)
	main := data["main_anime"].(map[string]any)
	assert.Equal(t, "real deal", main["title"], "blacklisted top entry must not be featured")
}

func TestWeeklyTakesTopEight(t *testing.T) {
	b := NewBuilder(nil)
	cal := []bangumi.CalendarDay{
		{Weekday: bangumi.Weekday{ID: 1}, Items: []bangumi.Subject{
			show("a", 9), show("b", 8), show("c", 7), show("d", 6), show("e", 5),
		}},
		{Weekday: bangumi.Weekday{ID: 3}, Items: []bangumi.Subject{
			show("f", 8.7), show("g", 4), show("h", 3), show("i", 2),
		}},
	}
	data := b.Weekly(cal, monday)

	main := data["main_anime"].(map[string]any)
	assert.Equal(t, "a", main["title"])

	others := data["other_animes"].([]any)
	require.Len(t, others, 7)
	assert.Equal(t, "f", others[0].(map[string]any)["title"], "ranking crosses day boundaries")
	assert.Equal(t, "1月12日 - 1月18日", data["date"])
	assert.Equal(t, "本周放送", data["weekday"])
}

func TestScoreFallback(t *testing.T) {
	b := NewBuilder(nil)
	unrated := show("new", 0)
	data := b.Daily(calendarWith(unrated), monday)
	main := data["main_anime"].(map[string]any)
	assert.Equal(t, "暂无", main["score"])
}

func TestAirTimeFallsBackToAirDate(t *testing.T) {
	s := bangumi.Subject{AirDate: "2026-01-14"} // a Wednesday
	assert.Equal(t, "每周三更新", airTime(&s))
	assert.Equal(t, "", airTime(&bangumi.Subject{}))
}

func TestEpisodeLabel(t *testing.T) {
	assert.Equal(t, "第3话 / 全12话", episodeLabel(3, 12))
	assert.Equal(t, "第3话", episodeLabel(3, 0))
	assert.Equal(t, "", episodeLabel(0, 12))
}
