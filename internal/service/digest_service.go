package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strings"
	"time"

	"taskboard/internal/model"
)

const dueSoonWindow = 48 * time.Hour

var motivationalMessages = []string{
	"Small steps every day add up.",
	"Finish one thing before starting the next.",
	"Progress beats perfection.",
	"Future you will be glad you started today.",
	"Momentum is built one checkbox at a time.",
}

// Notifier delivers a rendered digest to a chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// NotifiableLister lists settings rows that opted into digests.
type NotifiableLister interface {
	ListNotifiable(ctx context.Context) ([]model.UserPreferences, error)
}

// DigestService builds and sends the periodic task summary.
type DigestService struct {
	prefs    NotifiableLister
	tasks    TaskLister
	notifier Notifier
	loc      *time.Location
	now      func() time.Time
}

func NewDigestService(prefs NotifiableLister, tasks TaskLister, notifier Notifier, loc *time.Location) *DigestService {
	if loc == nil {
		loc = time.Local
	}
	return &DigestService{prefs: prefs, tasks: tasks, notifier: notifier, loc: loc, now: time.Now}
}

// SendAll delivers a digest to every subscribed user and returns how many
// were sent. Per-user failures are logged and skipped.
func (s *DigestService) SendAll(ctx context.Context) (int, error) {
	subscribers, err := s.prefs.ListNotifiable(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	sent := 0
	for _, prefs := range subscribers {
		select {
		case <-ctx.Done():
			return sent, ctx.Err()
		default:
		}
		if prefs.TelegramChatID == nil {
			continue
		}
		tasks, err := s.tasks.ListByUser(ctx, prefs.UserID)
		if err != nil {
			slog.Error("digest: list tasks", "user_id", prefs.UserID, "error", err)
			continue
		}
		text := s.Summary(tasks, prefs, now)
		if err := s.notifier.Notify(ctx, *prefs.TelegramChatID, text); err != nil {
			slog.Error("digest: send", "user_id", prefs.UserID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

// Summary renders the digest for one user as Telegram HTML.
func (s *DigestService) Summary(tasks []model.Task, prefs model.UserPreferences, now time.Time) string {
	stats := Aggregate(tasks, now, s.loc)

	var overdue, dueSoon []model.Task
	undated := 0
	for _, task := range tasks {
		switch {
		case task.Completed:
		case IsOverdue(task, now, s.loc):
			overdue = append(overdue, task)
		case task.DueDate != nil && task.DueDate.Sub(now) <= dueSoonWindow:
			dueSoon = append(dueSoon, task)
		case task.DueDate == nil:
			undated++
		}
	}
	sortByDueDate(overdue)
	sortByDueDate(dueSoon)

	var b strings.Builder
	b.WriteString("📋 <b>Daily digest</b>\n")
	b.WriteString(fmt.Sprintf("🗓 %s\n\n", now.In(s.loc).Format(dateOnlyLayout)))
	b.WriteString(fmt.Sprintf("📊 %d total · %d done · %d pending · %d overdue\n",
		stats.Total, stats.Completed, stats.Pending, stats.Overdue))

	if len(overdue) > 0 {
		b.WriteString("\n⚠️ <b>Overdue</b>\n")
		for _, task := range overdue {
			b.WriteString(s.formatTask(task))
		}
	}
	if len(dueSoon) > 0 {
		b.WriteString("\n⏳ <b>Due soon</b>\n")
		for _, task := range dueSoon {
			b.WriteString(s.formatTask(task))
		}
	}
	if undated > 0 {
		b.WriteString(fmt.Sprintf("\n🟢 %d open without a due date\n", undated))
	}
	if stats.Pending == 0 {
		b.WriteString("\n✅ Nothing pending. Enjoy the day!\n")
	}

	if prefs.MotivationalMessages {
		msg := motivationalMessages[now.In(s.loc).YearDay()%len(motivationalMessages)]
		b.WriteString(fmt.Sprintf("\n💡 <i>%s</i>\n", html.EscapeString(msg)))
	}

	return strings.TrimSpace(b.String())
}

func (s *DigestService) formatTask(task model.Task) string {
	line := fmt.Sprintf("• %s <i>(%s, %s)</i>",
		html.EscapeString(strings.TrimSpace(task.Title)), task.Category, task.Priority)
	if task.DueDate != nil {
		line += fmt.Sprintf(" · due %s", task.DueDate.In(s.loc).Format(dateOnlyLayout))
	}
	return line + "\n"
}

func sortByDueDate(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		switch {
		case tasks[i].DueDate == nil && tasks[j].DueDate == nil:
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		case tasks[i].DueDate == nil:
			return false
		case tasks[j].DueDate == nil:
			return true
		default:
			return tasks[i].DueDate.Before(*tasks[j].DueDate)
		}
	})
}
