// Package schedule turns the weekly broadcast calendar into the plain data
// maps the poster templates consume.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/yumemi1/animeposter/pkg/bangumi"
	"github.com/yumemi1/animeposter/pkg/blacklist"
	"github.com/yumemi1/animeposter/pkg/episodes"
	"github.com/yumemi1/animeposter/pkg/logging"
)

const (
	dailyOthers  = 4
	weeklyOthers = 7
)

// Builder assembles template data from calendar responses, applying the
// blacklist before selection and correcting episode counters.
type Builder struct {
	filter    *blacklist.Filter
	validator *episodes.Validator
	log       zerolog.Logger
}

func NewBuilder(filter *blacklist.Filter) *Builder {
	return &Builder{
		filter:    filter,
		validator: episodes.NewValidator(),
		log:       logging.GetLogger("schedule"),
	}
}

// Daily builds the data for today's poster: the highest-rated show becomes
// the featured entry, the next four fill the side list.
func (b *Builder) Daily(calendar []bangumi.CalendarDay, now time.Time) map[string]any {
	today := bangumi.WeekdayID(now)
	var items []bangumi.Subject
	for _, day := range calendar {
		if day.Weekday.ID == today {
			items = day.Items
			break
		}
	}
	items = b.prepare(items)

	data := map[string]any{
		"date":           fmt.Sprintf("%d年%d月%d日", now.Year(), int(now.Month()), now.Day()),
		"weekday":        weekdayLabel(today),
		"generated_time": now.Format("2006-01-02 15:04:05"),
		"has_animes":     len(items) > 0,
	}
	if len(items) == 0 {
		b.log.Warn().Int("weekday", today).Msg("no broadcasts today")
		return data
	}
	data["main_anime"] = b.animeEntry(&items[0], now)
	data["other_animes"] = b.entries(items[1:], dailyOthers, now)
	return data
}

// Weekly builds the data for the week's poster from the top-rated shows of
// the whole calendar.
func (b *Builder) Weekly(calendar []bangumi.CalendarDay, now time.Time) map[string]any {
	var items []bangumi.Subject
	for _, day := range calendar {
		items = append(items, day.Items...)
	}
	items = b.prepare(items)

	monday := now.AddDate(0, 0, 1-bangumi.WeekdayID(now))
	sunday := monday.AddDate(0, 0, 6)
	data := map[string]any{
		"date":           fmt.Sprintf("%s - %s", monday.Format("1月2日"), sunday.Format("1月2日")),
		"weekday":        "本周放送",
		"generated_time": now.Format("2006-01-02 15:04:05"),
		"has_animes":     len(items) > 0,
	}
	if len(items) == 0 {
		return data
	}
	data["main_anime"] = b.animeEntry(&items[0], now)
	data["other_animes"] = b.entries(items[1:], weeklyOthers, now)
	return data
}

// prepare filters blacklisted entries and orders the rest by score.
func (b *Builder) prepare(items []bangumi.Subject) []bangumi.Subject {
	if b.filter != nil {
		items = b.filter.Apply(items)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Rating.Score > items[j].Rating.Score
	})
	return items
}

func (b *Builder) entries(items []bangumi.Subject, max int, now time.Time) []any {
	if len(items) > max {
		items = items[:max]
	}
	out := make([]any, 0, len(items))
	for i := range items {
		out = append(out, b.animeEntry(&items[i], now))
	}
	return out
}

// animeEntry flattens one subject into the fields the templates reference.
func (b *Builder) animeEntry(s *bangumi.Subject, now time.Time) map[string]any {
	verdict := b.validator.Validate(s, now)
	return map[string]any{
		"title":    s.Title(),
		"score":    formatScore(s.Rating.Score),
		"cover":    s.Images.Cover(),
		"air_time": airTime(s),
		"watchers": s.Collection.Doing,
		"episode":  episodeLabel(verdict.Effective, s.EpsCount),
	}
}

func formatScore(score float64) string {
	if score <= 0 {
		return "暂无"
	}
	return fmt.Sprintf("%.1f", score)
}

// airTime describes when the show updates. The calendar carries no clock
// time, so this falls back to the weekday derived from the air date.
func airTime(s *bangumi.Subject) string {
	if s.AirWeekday >= 1 && s.AirWeekday <= 7 {
		return "每" + weekdayLabel(s.AirWeekday) + "更新"
	}
	for _, d := range []string{s.Date, s.AirDate} {
		if t, err := time.Parse("2006-01-02", d); err == nil {
			return "每" + weekdayLabel(bangumi.WeekdayID(t)) + "更新"
		}
	}
	return ""
}

func episodeLabel(current, total int) string {
	if current <= 0 {
		return ""
	}
	if total > 0 {
		return fmt.Sprintf("第%d话 / 全%d话", current, total)
	}
	return fmt.Sprintf("第%d话", current)
}

var weekdayLabels = []string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

func weekdayLabel(id int) string {
	if id == 7 {
		return weekdayLabels[0]
	}
	if id >= 1 && id <= 6 {
		return weekdayLabels[id]
	}
	return ""
}
