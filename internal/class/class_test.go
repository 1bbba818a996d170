package class_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolchain/internal/class"
	dErrors "schoolchain/pkg/domain-errors"
)

func newService() *class.Service {
	return class.NewService(class.NewMemoryStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestService_CreateAndGet(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "Class 10", []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)

	found, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Class 10", found.Name)
	assert.Equal(t, []string{"A", "B"}, found.Sections)
}

func TestService_CreateValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "", nil)
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))

	_, err = svc.Create(ctx, "Class 10", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Class 10", nil)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
}

func TestService_Update(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "Class 10", []string{"A"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, "Class 10", []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, updated.Sections)

	_, err = svc.Update(ctx, 999, "Nothing", nil)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestService_Delete(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "Class 10", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))

	assert.True(t, dErrors.Is(svc.Delete(ctx, created.ID), dErrors.CodeNotFound))
}

func TestService_ListOrdersByID(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	for _, name := range []string{"Class 10", "Class 9", "Class 8"} {
		_, err := svc.Create(ctx, name, nil)
		require.NoError(t, err)
	}

	classes, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, classes, 3)
	assert.Equal(t, "Class 10", classes[0].Name)
	assert.Equal(t, "Class 8", classes[2].Name)
}

func TestService_CreateNormalizesSections(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "Class 10", []string{" A ", "B", "A", "", "  "})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, created.Sections)
}
