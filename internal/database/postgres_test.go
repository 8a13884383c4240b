package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-course-api/internal/models"
)

func TestGormConfigStampsUTCAndTranslatesErrors(t *testing.T) {
	cfg := GormConfig()
	require.True(t, cfg.TranslateError)
	require.NotNil(t, cfg.Logger)
	require.Equal(t, time.UTC, cfg.NowFunc().Location())

	db, err := gorm.Open(sqlite.Open("file:gormcfg?mode=memory&cache=shared"), cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	student := models.Student{Name: "Lina", Email: "lina@example.com", Role: models.RoleStudent}
	require.NoError(t, db.Create(&student).Error)
	require.Equal(t, time.UTC, student.CreatedAt.Location())

	dup := models.Student{Name: "Lina", Email: "lina@example.com", Role: models.RoleStudent}
	require.ErrorIs(t, db.Create(&dup).Error, gorm.ErrDuplicatedKey)

	var missing models.Student
	require.ErrorIs(t, db.First(&missing, 9999).Error, gorm.ErrRecordNotFound)
}
