package bangumi

import (
	"fmt"
	"strings"
	"time"
)

var weekdayNames = []string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

// WeekdayID converts a Go weekday to the Bangumi calendar convention
// (Monday=1 .. Sunday=7).
func WeekdayID(t time.Time) int {
	w := int(t.Weekday())
	if w == 0 {
		return 7
	}
	return w
}

func weekdayName(id int) string {
	// Calendar IDs are 1..7 with 7 = Sunday.
	if id >= 1 && id <= 6 {
		return weekdayNames[id]
	}
	if id == 7 {
		return weekdayNames[0]
	}
	return "未知"
}

// FormatCalendar renders the weekly schedule as plain text, marking the
// current day and listing at most five shows per day.
func FormatCalendar(days []CalendarDay, now time.Time) string {
	if len(days) == 0 {
		return "暂无放送日程信息"
	}
	today := WeekdayID(now)

	var b strings.Builder
	b.WriteString("📺 每日放送日程\n")
	for _, day := range days {
		name := weekdayName(day.Weekday.ID)
		if day.Weekday.ID == today {
			name = fmt.Sprintf("🌟 %s (今天)", name)
		}
		if len(day.Items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n【%s】\n", name)
		for i, item := range day.Items {
			if i == 5 {
				fmt.Fprintf(&b, "  ... 还有%d部番剧\n", len(day.Items)-5)
				break
			}
			if item.AirDate != "" {
				fmt.Fprintf(&b, "  🕐 %s %s\n", item.AirDate, item.Title())
			} else {
				fmt.Fprintf(&b, "  📺 %s\n", item.Title())
			}
		}
	}
	return b.String()
}

// FormatSearchResults renders search output as plain text, at most ten rows.
func FormatSearchResults(results []Subject, keyword string) string {
	if len(results) == 0 {
		return fmt.Sprintf("未找到与「%s」相关的番剧", keyword)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 搜索「%s」的结果 (共%d个):\n", keyword, len(results))
	for i, item := range results {
		if i == 10 {
			break
		}
		summary := item.Summary
		if len([]rune(summary)) > 50 {
			summary = string([]rune(summary)[:50]) + "..."
		}
		fmt.Fprintf(&b, "\n📺 %s (ID: %d)\n", item.Title(), item.ID)
		b.WriteString("   " + formatScore(item.Rating) + "\n")
		if summary != "" {
			fmt.Fprintf(&b, "   📝 %s\n", summary)
		}
	}
	return b.String()
}

// FormatSubjectDetail renders one subject's detail as plain text.
func FormatSubjectDetail(s *Subject) string {
	if s == nil {
		return "获取番剧详情失败"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📺 %s\n", s.Title())
	fmt.Fprintf(&b, "📊 %s\n", formatScore(s.Rating))

	if s.Date != "" {
		fmt.Fprintf(&b, "📅 %s", s.Date)
		if s.AirWeekday >= 1 && s.AirWeekday <= 7 {
			fmt.Fprintf(&b, " (%s)", weekdayName(s.AirWeekday))
		}
		b.WriteString("\n")
	}
	if s.EpsCount > 0 {
		fmt.Fprintf(&b, "🎬 共%d集\n", s.EpsCount)
		if s.Eps > 0 {
			fmt.Fprintf(&b, "📺 已更新至%d集\n", s.Eps)
		}
	}
	summary := s.Summary
	if summary == "" {
		summary = "暂无简介"
	}
	fmt.Fprintf(&b, "\n📝 简介:\n%s", summary)
	return b.String()
}

func formatScore(r Rating) string {
	if r.Score <= 0 {
		return "⭐ 暂无评分"
	}
	if r.Total > 0 {
		return fmt.Sprintf("⭐ %.1f (%d人评分)", r.Score, r.Total)
	}
	return fmt.Sprintf("⭐ %.1f", r.Score)
}
