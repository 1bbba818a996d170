package department_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolchain/internal/department"
	dErrors "schoolchain/pkg/domain-errors"
)

func newService() *department.Service {
	return department.NewService(department.NewMemoryStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestService_CreateAndList(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	science, err := svc.Create(ctx, "Science")
	require.NoError(t, err)
	assert.Equal(t, 1, science.ID)

	_, err = svc.Create(ctx, "Arts")
	require.NoError(t, err)

	departments, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, departments, 2)
	assert.Equal(t, "Science", departments[0].Name)
	assert.Equal(t, "Arts", departments[1].Name)
}

func TestService_CreateValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "")
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))

	_, err = svc.Create(ctx, "Science")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Science")
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
}

func TestService_RenameAndDelete(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "Science")
	require.NoError(t, err)

	require.NoError(t, svc.Rename(ctx, created.ID, "Natural Sciences"))
	found, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Natural Sciences", found.Name)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestService_MissingDepartment(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	assert.True(t, dErrors.Is(svc.Rename(ctx, 999, "X"), dErrors.CodeNotFound))
	assert.True(t, dErrors.Is(svc.Delete(ctx, 999), dErrors.CodeNotFound))
}
