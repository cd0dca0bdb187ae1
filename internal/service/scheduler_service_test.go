package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"08:30", "0 30 8 * * *", false},
		{"0:0", "0 0 0 * * *", false},
		{"24:00", "", true},
		{"12:60", "", true},
		{"noon", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := buildDailySpec(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchedulerService_RejectsBadInterval(t *testing.T) {
	s := NewSchedulerService(time.UTC, time.Second)
	_, err := s.ScheduleInterval(0, "noop", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestSchedulerService_RunsJob(t *testing.T) {
	s := NewSchedulerService(time.UTC, time.Second)
	ran := make(chan struct{}, 1)
	_, err := s.ScheduleInterval(time.Second, "ping", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		if hasDeadline {
			select {
			case ran <- struct{}{}:
			default:
			}
		}
		return nil
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}
