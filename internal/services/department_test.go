package services_test

import (
	"context"
	"testing"

	"github.com/civitrack/apiserver/internal/services"
	"github.com/civitrack/apiserver/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepartmentService(t *testing.T) {
	ctx := context.Background()
	repo := newMemDepartments()
	service := services.NewDepartmentService(repo)

	dept, err := service.Create(ctx, "Sanitation", "Garbage collection and street cleaning")
	require.NoError(t, err)
	require.NotZero(t, dept.ID)

	t.Run("duplicate name is rejected", func(t *testing.T) {
		_, err := service.Create(ctx, "Sanitation", "again")
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("partial update keeps unset fields", func(t *testing.T) {
		updated, err := service.Update(ctx, dept.ID, "", "Waste management")
		require.NoError(t, err)
		assert.Equal(t, "Sanitation", updated.Name)
		assert.Equal(t, "Waste management", updated.Description)

		updated, err = service.Update(ctx, dept.ID, "Waste Services", "")
		require.NoError(t, err)
		assert.Equal(t, "Waste Services", updated.Name)
		assert.Equal(t, "Waste management", updated.Description)
	})

	t.Run("update of missing department is not found", func(t *testing.T) {
		_, err := service.Update(ctx, 999, "x", "y")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete blocked while complaints reference it", func(t *testing.T) {
		repo.inUse[dept.ID] = true
		assert.ErrorIs(t, service.Delete(ctx, dept.ID), store.ErrInUse)

		repo.inUse[dept.ID] = false
		require.NoError(t, service.Delete(ctx, dept.ID))
		_, err := service.Get(ctx, dept.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}
