package task

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/task/entity"
)

type fakeStore struct {
	tasks map[string]entity.Task
	err   error
}

func newFakeStore() *fakeStore { return &fakeStore{tasks: map[string]entity.Task{}} }

func (f *fakeStore) Create(_ context.Context, t *entity.Task) error {
	if f.err != nil {
		return f.err
	}
	f.tasks[t.ID] = *t
	return nil
}

func (f *fakeStore) ListByOwner(_ context.Context, owner string) ([]entity.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []entity.Task{}
	for _, t := range f.tasks {
		if t.Owner == owner {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) UpdateOwned(_ context.Context, id, owner string, p entity.Patch, now time.Time) (*entity.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tasks[id]
	if !ok || t.Owner != owner {
		return nil, sql.ErrNoRows
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	t.UpdatedAt = now
	f.tasks[id] = t
	return &t, nil
}

func (f *fakeStore) DeleteOwned(_ context.Context, id, owner string) error {
	if f.err != nil {
		return f.err
	}
	t, ok := f.tasks[id]
	if !ok || t.Owner != owner {
		return sql.ErrNoRows
	}
	delete(f.tasks, id)
	return nil
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	n := 0
	svc := NewService(store, func() string { n++; return strconv.Itoa(n) })
	clock := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, store
}

func ptr[T any](v T) *T { return &v }

func TestCreate_DefaultsToPending(t *testing.T) {
	svc, store := newTestService()

	got, err := svc.Create(context.Background(), "ann", CreateInput{Title: "Buy milk"})
	require.NoError(t, err)
	require.Equal(t, entity.StatusPending, got.Status)
	require.Equal(t, "ann", got.Owner)
	require.Equal(t, "", got.Description)
	require.Equal(t, got.CreatedAt, got.UpdatedAt)
	require.Contains(t, store.tasks, got.ID)
}

func TestCreate_Validation(t *testing.T) {
	svc, store := newTestService()

	_, err := svc.Create(context.Background(), "ann", CreateInput{Title: "  "})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), "ann", CreateInput{Title: "x", Status: "done"})
	require.ErrorIs(t, err, ErrValidation)

	require.Empty(t, store.tasks)
}

func TestCreate_ExplicitStatus(t *testing.T) {
	svc, _ := newTestService()

	got, err := svc.Create(context.Background(), "ann", CreateInput{Title: "x", Description: "d", Status: "completed"})
	require.NoError(t, err)
	require.Equal(t, entity.StatusCompleted, got.Status)
	require.Equal(t, "d", got.Description)
}

func TestList_OnlyOwner(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a1, err := svc.Create(ctx, "ann", CreateInput{Title: "a1"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "bob", CreateInput{Title: "b1"})
	require.NoError(t, err)
	a2, err := svc.Create(ctx, "ann", CreateInput{Title: "a2"})
	require.NoError(t, err)

	got, err := svc.List(ctx, "ann")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, a2.ID, got[0].ID)
	require.Equal(t, a1.ID, got[1].ID)

	got, err = svc.List(ctx, "carol")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestUpdate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, "ann", CreateInput{Title: "Buy milk", Description: "2L"})
	require.NoError(t, err)

	got, err := svc.Update(ctx, "ann", created.ID, entity.Patch{Status: ptr(entity.StatusInProgress)})
	require.NoError(t, err)
	require.Equal(t, entity.StatusInProgress, got.Status)
	require.Equal(t, "Buy milk", got.Title)
	require.Equal(t, "2L", got.Description)
	require.True(t, got.UpdatedAt.After(created.UpdatedAt))

	got, err = svc.Update(ctx, "ann", created.ID, entity.Patch{Title: ptr("  Buy oat milk ")})
	require.NoError(t, err)
	require.Equal(t, "Buy oat milk", got.Title)
	require.Equal(t, entity.StatusInProgress, got.Status)
}

func TestUpdate_Errors(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, "ann", CreateInput{Title: "mine"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		owner   string
		id      string
		patch   entity.Patch
		wantErr error
	}{
		{"empty patch", "ann", created.ID, entity.Patch{}, ErrValidation},
		{"blank title", "ann", created.ID, entity.Patch{Title: ptr(" ")}, ErrValidation},
		{"unknown status", "ann", created.ID, entity.Patch{Status: ptr(entity.Status("done"))}, ErrValidation},
		{"other owner", "bob", created.ID, entity.Patch{Title: ptr("x")}, ErrNotFound},
		{"missing", "ann", "nope", entity.Patch{Title: ptr("x")}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, tt.owner, tt.id, tt.patch)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	got, err := svc.List(ctx, "ann")
	require.NoError(t, err)
	require.Equal(t, "mine", got[0].Title)
	require.Equal(t, entity.StatusPending, got[0].Status)
}

func TestDelete(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, "ann", CreateInput{Title: "mine"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, "bob", created.ID), ErrNotFound)
	require.Contains(t, store.tasks, created.ID)

	require.NoError(t, svc.Delete(ctx, "ann", created.ID))
	require.ErrorIs(t, svc.Delete(ctx, "ann", created.ID), ErrNotFound)
}

func TestStoreErrorsPassThrough(t *testing.T) {
	svc, store := newTestService()
	boom := errors.New("boom")
	store.err = boom
	ctx := context.Background()

	_, err := svc.Create(ctx, "ann", CreateInput{Title: "x"})
	require.ErrorIs(t, err, boom)
	_, err = svc.List(ctx, "ann")
	require.ErrorIs(t, err, boom)
	_, err = svc.Update(ctx, "ann", "1", entity.Patch{Title: ptr("x")})
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, svc.Delete(ctx, "ann", "1"), boom)
}
