package member_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fieldhouse/internal/adapters/storage/member"
	"fieldhouse/internal/adapters/storage/sqlitetest"
	domain "fieldhouse/internal/domain/member"
)

func TestSQLiteStore_CreateAndGet(t *testing.T) {
	store := member.NewSQLiteStore(sqlitetest.Open(t))
	ctx := context.Background()
	created := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	m := domain.Member{ID: "m1", Name: "Ava Reid", Email: "Ava@Example.com", Role: domain.RoleMember, CreatedAt: created}
	require.NoError(t, store.Create(ctx, m))

	got, err := store.GetByID(ctx, "m1")
	require.NoError(t, err)
	require.Equal(t, "ava@example.com", got.Email)
	require.Equal(t, domain.RoleMember, got.Role)
	require.True(t, got.CreatedAt.Equal(created))
	require.True(t, got.LockedUntil.IsZero())

	byEmail, err := store.GetByEmail(ctx, " AVA@example.com ")
	require.NoError(t, err)
	require.Equal(t, "m1", byEmail.ID)
}

func TestSQLiteStore_CreateDuplicateEmail(t *testing.T) {
	store := member.NewSQLiteStore(sqlitetest.Open(t))
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, domain.Member{ID: "m1", Name: "A", Email: "a@example.com", Role: domain.RoleMember}))
	err := store.Create(ctx, domain.Member{ID: "m2", Name: "B", Email: "A@example.com", Role: domain.RoleCoach})
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestSQLiteStore_SaveAndNotFound(t *testing.T) {
	store := member.NewSQLiteStore(sqlitetest.Open(t))
	ctx := context.Background()

	_, err := store.GetByID(ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, store.Save(ctx, domain.Member{ID: "ghost", Name: "G", Role: domain.RoleMember}), domain.ErrNotFound)

	m := domain.Member{ID: "m1", Name: "Dee", Email: "dee@example.com", Role: domain.RoleMember}
	require.NoError(t, store.Create(ctx, m))
	lock := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	m.Role = domain.RoleCoach
	m.FailedLogins = 5
	m.LockedUntil = lock
	require.NoError(t, store.Save(ctx, m))

	got, err := store.GetByID(ctx, "m1")
	require.NoError(t, err)
	require.Equal(t, domain.RoleCoach, got.Role)
	require.Equal(t, 5, got.FailedLogins)
	require.True(t, got.LockedUntil.Equal(lock))
}

func TestSQLiteStore_ListByRole(t *testing.T) {
	store := member.NewSQLiteStore(sqlitetest.Open(t))
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, domain.Member{ID: "1", Name: "Zed", Email: "z@example.com", Role: domain.RoleMember}))
	require.NoError(t, store.Create(ctx, domain.Member{ID: "2", Name: "Amy", Email: "amy@example.com", Role: domain.RoleMember}))
	require.NoError(t, store.Create(ctx, domain.Member{ID: "3", Name: "Coach", Email: "c@example.com", Role: domain.RoleCoach}))

	all, err := store.List(ctx, member.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "Amy", all[0].Name)

	athletes, err := store.List(ctx, member.ListFilter{Role: domain.RoleMember})
	require.NoError(t, err)
	require.Len(t, athletes, 2)

	page, err := store.List(ctx, member.ListFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "Coach", page[0].Name)
}
