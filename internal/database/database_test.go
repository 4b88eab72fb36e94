package database

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"learnhub/internal/config"
	"learnhub/internal/models"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestConnect_SQLiteMigrates(t *testing.T) {
	cfg := &config.Config{
		Env:      "test",
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "learnhub.db"),
	}

	db, err := Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	for _, m := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}

	course := models.Course{Key: "course-v1:edX+DemoX+2026"}
	require.NoError(t, db.Create(&course).Error)
	require.NoError(t, db.Create(&models.VerificationDeadline{CourseID: course.ID, Deadline: time.Now().Add(time.Hour)}).Error)

	var loaded models.Course
	require.NoError(t, db.Preload("Deadline").First(&loaded, course.ID).Error)
	require.NotNil(t, loaded.Deadline)
}

func TestDialector(t *testing.T) {
	assert.Equal(t, "sqlite", Dialector(&config.Config{DBDriver: "sqlite", DBPath: ":memory:"}).Name())
	assert.Equal(t, "postgres", Dialector(&config.Config{DBDriver: "postgres"}).Name())
}

func TestPersistentModels_Unique(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range PersistentModels() {
		name := fmt.Sprintf("%T", m)
		assert.False(t, seen[name], "duplicate model %s", name)
		seen[name] = true
	}
	assert.Len(t, seen, 6)
}
