package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/depot/internal/database/dbtest"
	"github.com/Additional-Code/depot/internal/entity"
)

func TestRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	conns := dbtest.Open(t)
	repo := New(conns)

	u := &entity.User{Username: "erin", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, u))
	require.NotZero(t, u.ID)

	assert.Error(t, repo.Create(ctx, &entity.User{Username: "erin", PasswordHash: "x"}), "username is unique")

	found, err := repo.FindByUsername(ctx, "erin")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
	assert.False(t, found.IsAdmin)

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "erin", users[0].Username)

	require.NoError(t, repo.Delete(ctx, u.ID))
	_, err = repo.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, u.ID), ErrNotFound)
}

func TestOwnedIDsAndCascade(t *testing.T) {
	ctx := context.Background()
	conns := dbtest.Open(t)
	repo := New(conns)
	owner := dbtest.CreateUser(t, conns, "frank", false)
	other := dbtest.CreateUser(t, conns, "grace", false)

	suppliers := []*entity.Supplier{
		{OwnerID: owner.ID, Code: "S1", Name: "One"},
		{OwnerID: owner.ID, Code: "S2", Name: "Two"},
		{OwnerID: other.ID, Code: "S3", Name: "Three"},
	}
	for _, s := range suppliers {
		_, err := conns.Writer.NewInsert().Model(s).Exec(ctx)
		require.NoError(t, err)
	}
	order := &entity.Order{OwnerID: owner.ID, OrderNum: "N-1"}
	_, err := conns.Writer.NewInsert().Model(order).Exec(ctx)
	require.NoError(t, err)

	owned, err := repo.OwnedIDs(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{suppliers[0].ID, suppliers[1].ID}, owned.Suppliers)
	assert.Equal(t, []int64{order.ID}, owned.Orders)
	assert.Empty(t, owned.Retailers)
	assert.NotNil(t, owned.Memos)

	require.NoError(t, repo.Delete(ctx, owner.ID))

	count, err := conns.Writer.NewSelect().Model((*entity.Supplier)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = conns.Writer.NewSelect().Model((*entity.Order)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
