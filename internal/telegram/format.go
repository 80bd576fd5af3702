package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"meal-calendar/internal/calendar"
	"meal-calendar/internal/metrics"
	"meal-calendar/internal/planner"
	"meal-calendar/internal/search"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cancelData     = "cancel"
	maxButtons     = 10
	maxButtonLabel = 40
)

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatWeekMarkdown(week planner.Week) string {
	var sb strings.Builder
	sb.WriteString("📅 *Weekly Meal Plan*\n")
	fmt.Fprintf(&sb, "_%d of %d meals planned_\n", week.Assigned(), len(calendar.Days)*len(calendar.Meals))

	for _, dp := range week {
		fmt.Fprintf(&sb, "\n*%s*\n", dp.Day.Title())
		for _, meal := range calendar.Meals {
			label := "—"
			if r := week.Recipe(dp.Day, meal); r != nil {
				label = escape(r.Label)
			}
			fmt.Fprintf(&sb, "• %s: %s\n", meal.Title(), label)
		}
	}
	return sb.String()
}

func formatShoppingList(items []string) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n\n")
	if len(items) == 0 {
		sb.WriteString("_Nothing planned yet._\n")
	}
	for _, item := range items {
		fmt.Fprintf(&sb, "• %s\n", escape(item))
	}
	return sb.String()
}

func formatResults(snap search.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔎 *Results for* _%s_ (%s %s)\n\n", escape(snap.Query), snap.Target.Day.Title(), snap.Target.Meal)
	for i, r := range snap.Results {
		if i == maxButtons {
			break
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, escape(r.Label))
		if r.Calories > 0 {
			fmt.Fprintf(&sb, " (%.0f kcal)", r.Calories)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// resultsKeyboard builds one button per result. The callback data carries
// the session generation so a keyboard from an earlier search is rejected.
func resultsKeyboard(snap search.Snapshot) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, r := range snap.Results {
		if i == maxButtons {
			break
		}
		label := fmt.Sprintf("%d. %s", i+1, r.Label)
		if runes := []rune(label); len(runes) > maxButtonLabel {
			label = string(runes[:maxButtonLabel-1]) + "…"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, pickData(snap.Generation, i)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✖️ Cancel", cancelData),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func pickData(gen uint64, index int) string {
	return fmt.Sprintf("pick|%d|%d", gen, index)
}

func parsePickData(data string) (uint64, int, error) {
	parts := strings.Split(data, "|")
	if len(parts) != 3 || parts[0] != "pick" {
		return 0, 0, fmt.Errorf("malformed callback data %q", data)
	}
	gen, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	index, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, err
	}
	return gen, index, nil
}

func formatError(title string, err error) string {
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *%s:*\n```\n%v\n```", title, safeErr)
}

func formatMetrics(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d calls, %d failed, %d tokens\n",
			d.Date, d.TotalExecution, d.TotalFailed, d.TotalPrompt+d.TotalCompletion)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Uptime: %s\n", health.Uptime)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	return sb.String()
}
