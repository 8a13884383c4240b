package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-course-api/internal/dto"
	"github.com/noah-isme/gema-course-api/internal/models"
	"github.com/noah-isme/gema-course-api/internal/repository"
)

type memoryActivityRepo struct {
	entries []models.ActivityLog
	filter  repository.ActivityLogFilter
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	m.filter = filter
	return append([]models.ActivityLog(nil), m.entries...), int64(len(m.entries)), nil
}

func TestActivityServiceRecordMasksEmail(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, zerolog.Nop())

	entry, err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    1,
		ActorRole:  "Student",
		Action:     " Enrollment.Completed ",
		EntityType: "Enrollment",
		EntityID:   ptrUint(5),
		Metadata: map[string]interface{}{
			"email":     "student@example.com",
			"api_token": "abc",
			"progress":  100,
		},
	})
	require.NoError(t, err)
	require.Equal(t, "***", entry.Metadata["email"])
	require.Equal(t, "***", entry.Metadata["api_token"])
	require.EqualValues(t, 100, entry.Metadata["progress"])
	require.Equal(t, models.ActivityEnrollmentCompleted, entry.Action)
	require.Equal(t, "enrollment", entry.EntityType)
	require.Equal(t, "student", entry.ActorRole)
}

func TestActivityServiceRecordRequiresActionAndEntity(t *testing.T) {
	svc := NewActivityService(&memoryActivityRepo{}, zerolog.Nop())

	_, err := svc.Record(context.Background(), ActivityEntry{EntityType: "enrollment"})
	require.Error(t, err)

	_, err = svc.Record(context.Background(), ActivityEntry{Action: "enrollment.started"})
	require.Error(t, err)

	entry, err := svc.Record(context.Background(), ActivityEntry{Action: "enrollment.started", EntityType: "enrollment"})
	require.NoError(t, err)
	require.Equal(t, "system", entry.ActorRole)
}

func TestActivityServiceListBuildsFilterAndPagination(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Record(ctx, ActivityEntry{ActorID: 7, Action: "certificate.issued", EntityType: "certificate"})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, dto.AdminActivityListRequest{
		Page:       1,
		PageSize:   2,
		ActorID:    7,
		EntityID:   3,
		Action:     " CERTIFICATE.ISSUED",
		EntityType: "Certificate",
	})
	require.NoError(t, err)
	require.Len(t, list.Items, 3)
	require.Equal(t, int64(3), list.Pagination.TotalItems)
	require.Equal(t, 2, list.Pagination.TotalPages)

	require.NotNil(t, repo.filter.ActorID)
	require.Equal(t, uint(7), *repo.filter.ActorID)
	require.NotNil(t, repo.filter.EntityID)
	require.Equal(t, "certificate.issued", repo.filter.Action)
	require.Equal(t, "certificate", repo.filter.EntityType)
}
