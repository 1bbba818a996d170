package notice_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolchain/internal/notice"
	dErrors "schoolchain/pkg/domain-errors"
)

func newService() *notice.Service {
	return notice.NewService(notice.NewMemoryStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestService_Publish(t *testing.T) {
	svc := newService()

	published, err := svc.Publish(context.Background(), "Exam schedule", "Finals start June 1.", "", "Principal")
	require.NoError(t, err)
	assert.Equal(t, 1, published.ID)
	assert.Equal(t, notice.AudienceAll, published.Audience)
	assert.Equal(t, "Principal", published.CreatedBy)
}

func TestService_Publish_Validation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Publish(ctx, "", "content", notice.AudienceAll, "")
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))

	_, err = svc.Publish(ctx, "title", "", notice.AudienceAll, "")
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))

	_, err = svc.Publish(ctx, "title", "content", "parents", "")
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
}

func TestService_ListFiltersByAudience(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Publish(ctx, "For everyone", "x", notice.AudienceAll, "")
	require.NoError(t, err)
	_, err = svc.Publish(ctx, "Students only", "x", notice.AudienceStudents, "")
	require.NoError(t, err)
	_, err = svc.Publish(ctx, "Teachers only", "x", notice.AudienceTeachers, "")
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	students, err := svc.List(ctx, notice.AudienceStudents)
	require.NoError(t, err)
	require.Len(t, students, 2)
	// Newest first.
	assert.Equal(t, "Students only", students[0].Title)
	assert.Equal(t, "For everyone", students[1].Title)
}

func TestService_GetAndDelete(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	published, err := svc.Publish(ctx, "Exam schedule", "Finals start June 1.", notice.AudienceAll, "")
	require.NoError(t, err)

	found, err := svc.Get(ctx, published.ID)
	require.NoError(t, err)
	assert.Equal(t, "Exam schedule", found.Title)

	require.NoError(t, svc.Delete(ctx, published.ID))
	_, err = svc.Get(ctx, published.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	assert.True(t, dErrors.Is(svc.Delete(ctx, published.ID), dErrors.CodeNotFound))
}
