package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/depot/internal/database/dbtest"
	"github.com/Additional-Code/depot/internal/entity"
	"github.com/Additional-Code/depot/internal/resource"
)

func TestSupplierRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	conns := dbtest.Open(t)
	owner := dbtest.CreateUser(t, conns, "alice", false)
	repo := NewRepository[entity.Supplier](conns, resource.MustLookup(resource.Suppliers))

	created, err := repo.Create(ctx, &entity.Supplier{OwnerID: owner.ID, Code: "ACME", Name: "Acme"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.NotNil(t, created.Owner)
	assert.Equal(t, "alice", created.Owner.Username)

	created.Name = "Acme Foods"
	created.OwnerID = 999
	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "Acme Foods", updated.Name)
	assert.Equal(t, owner.ID, updated.OwnerID)

	unchanged, err := repo.Update(ctx, &entity.Supplier{ID: created.ID, OwnerID: owner.ID, Code: "ACME", Name: "Acme Foods"})
	require.NoError(t, err, "rewriting identical values is not a miss")
	assert.Equal(t, "Acme Foods", unchanged.Name)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACME: Acme Foods", got.String())

	deleted, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Update(ctx, &entity.Supplier{ID: created.ID, OwnerID: owner.ID, Code: "X", Name: "Y"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderRepositoryStampsReceivedAndOrders(t *testing.T) {
	ctx := context.Background()
	conns := dbtest.Open(t)
	admin := dbtest.CreateUser(t, conns, "admin", true)
	repo := NewRepository[entity.Order](conns, resource.MustLookup(resource.Orders))

	before := time.Now().UTC().Add(-time.Second)
	first, err := repo.Create(ctx, &entity.Order{OwnerID: admin.ID, OrderNum: "A-1"})
	require.NoError(t, err)
	assert.True(t, first.Received.After(before), "received %v not stamped", first.Received)

	second, err := repo.Create(ctx, &entity.Order{OwnerID: admin.ID, OrderNum: "A-2"})
	require.NoError(t, err)

	stamped := first.Received
	first.Received = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	first.OrderNum = "A-1b"
	updated, err := repo.Update(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "A-1b", updated.OrderNum)
	assert.WithinDuration(t, stamped, updated.Received, time.Millisecond)

	rows, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.Equal(t, second.ID, rows[1].ID)
}

func TestRetailerRepositoryChecklist(t *testing.T) {
	ctx := context.Background()
	conns := dbtest.Open(t)
	owner := dbtest.CreateUser(t, conns, "bob", false)
	suppliers := NewRepository[entity.Supplier](conns, resource.MustLookup(resource.Suppliers))
	retailers := NewRepository[entity.Retailer](conns, resource.MustLookup(resource.Retailers))

	s1, err := suppliers.Create(ctx, &entity.Supplier{OwnerID: owner.ID, Code: "S1", Name: "One"})
	require.NoError(t, err)
	s2, err := suppliers.Create(ctx, &entity.Supplier{OwnerID: owner.ID, Code: "S2", Name: "Two"})
	require.NoError(t, err)

	r, err := retailers.Create(ctx, &entity.Retailer{
		OwnerID:     owner.ID,
		Code:        "TSCO",
		Name:        "Tesco",
		SupplierIDs: []int64{s1.ID, s2.ID},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{s1.ID, s2.ID}, r.ChecklistIDs())

	r.SupplierIDs = []int64{s2.ID}
	r, err = retailers.Update(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, []int64{s2.ID}, r.ChecklistIDs())

	_, err = suppliers.Delete(ctx, s2.ID)
	require.NoError(t, err)
	r, err = retailers.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, r.ChecklistIDs())
}

func TestDeletingRetailerCascades(t *testing.T) {
	ctx := context.Background()
	conns := dbtest.Open(t)
	owner := dbtest.CreateUser(t, conns, "carol", false)
	suppliers := NewRepository[entity.Supplier](conns, resource.MustLookup(resource.Suppliers))
	retailers := NewRepository[entity.Retailer](conns, resource.MustLookup(resource.Retailers))
	memos := NewRepository[entity.Memo](conns, resource.MustLookup(resource.Memos))
	manual := NewRepository[entity.ManualOrder](conns, resource.MustLookup(resource.ManualOrders))

	s, err := suppliers.Create(ctx, &entity.Supplier{OwnerID: owner.ID, Code: "S1", Name: "One"})
	require.NoError(t, err)
	r, err := retailers.Create(ctx, &entity.Retailer{OwnerID: owner.ID, Code: "R1", Name: "Shop"})
	require.NoError(t, err)

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	memo, err := memos.Create(ctx, &entity.Memo{
		OwnerID: owner.ID, RetailerID: r.ID, SupplierID: s.ID,
		StartDate: day, EndDate: day.AddDate(0, 0, 30), Content: "promo",
	})
	require.NoError(t, err)
	mo, err := manual.Create(ctx, &entity.ManualOrder{
		OwnerID: owner.ID, RetailerID: r.ID, SupplierID: s.ID, Attachment: "scan.pdf",
	})
	require.NoError(t, err)

	_, err = retailers.Delete(ctx, r.ID)
	require.NoError(t, err)

	_, err = memos.GetByID(ctx, memo.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = manual.GetByID(ctx, mo.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = suppliers.GetByID(ctx, s.ID)
	assert.NoError(t, err)
}

func TestLookupExists(t *testing.T) {
	ctx := context.Background()
	conns := dbtest.Open(t)
	owner := dbtest.CreateUser(t, conns, "dave", false)
	suppliers := NewRepository[entity.Supplier](conns, resource.MustLookup(resource.Suppliers))
	s, err := suppliers.Create(ctx, &entity.Supplier{OwnerID: owner.ID, Code: "S1", Name: "One"})
	require.NoError(t, err)

	lookup := NewLookup(conns)
	ok, err := lookup.Exists(ctx, (*entity.Supplier)(nil), s.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lookup.Exists(ctx, (*entity.Retailer)(nil), s.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = lookup.Exists(ctx, (*entity.Supplier)(nil), 0)
	require.NoError(t, err)
	assert.False(t, ok)
}
