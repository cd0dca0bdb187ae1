package service

import (
	"context"
	"time"

	"taskboard/internal/model"
)

// TaskLister is the read side the aggregator needs.
type TaskLister interface {
	ListByUser(ctx context.Context, userID string) ([]model.Task, error)
}

// StatsService derives counts from the owner's current tasks on every call.
type StatsService struct {
	tasks TaskLister
	loc   *time.Location
	now   func() time.Time
}

func NewStatsService(tasks TaskLister, loc *time.Location) *StatsService {
	if loc == nil {
		loc = time.Local
	}
	return &StatsService{tasks: tasks, loc: loc, now: time.Now}
}

func (s *StatsService) ForOwner(ctx context.Context, ownerID string) (model.Stats, error) {
	tasks, err := s.tasks.ListByUser(ctx, ownerID)
	if err != nil {
		return model.Stats{}, err
	}
	return Aggregate(tasks, s.now(), s.loc), nil
}

// Aggregate counts tasks. Pending is total minus completed.
func Aggregate(tasks []model.Task, now time.Time, loc *time.Location) model.Stats {
	var st model.Stats
	for _, task := range tasks {
		st.Total++
		if task.Completed {
			st.Completed++
			continue
		}
		if IsOverdue(task, now, loc) {
			st.Overdue++
		}
	}
	st.Pending = st.Total - st.Completed
	return st
}

// IsOverdue reports whether an open task's due day has fully elapsed in loc.
// A task due today is not overdue before midnight.
func IsOverdue(task model.Task, now time.Time, loc *time.Location) bool {
	if task.Completed || task.DueDate == nil {
		return false
	}
	return !now.Before(endOfDay(*task.DueDate, loc))
}

// endOfDay returns the first instant of the day after t in loc.
func endOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}
