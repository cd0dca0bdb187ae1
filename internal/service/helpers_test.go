package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

type fixture struct {
	users *repository.UserRepository
	tasks *repository.TaskRepository
	prefs *repository.PreferenceRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := repository.NewDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return fixture{
		users: repository.NewUserRepository(db),
		tasks: repository.NewTaskRepository(db),
		prefs: repository.NewPreferenceRepository(db),
	}
}

func (f fixture) user(t *testing.T, externalID string) *model.User {
	t.Helper()
	user, err := NewUserService(f.users).Resolve(context.Background(), Identity{
		ExternalID: externalID,
		Email:      externalID + "@example.com",
	})
	require.NoError(t, err)
	return user
}

func ptr[T any](v T) *T { return &v }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
