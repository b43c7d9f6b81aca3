package database

import (
	"path/filepath"
	"testing"

	"github.com/niyyah-app/niyyah-api/internal/config"
	"github.com/niyyah-app/niyyah-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestOpenSQLiteFile(t *testing.T) {
	cfg := config.DBConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "nested", "niyyah.db")}

	db, err := Open(cfg, logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, AutoMigrate(db))
	assert.True(t, db.Migrator().HasTable(&model.License{}))
	assert.True(t, db.Migrator().HasTable("activation_codes"))
}

func TestClaimCheckConstraint(t *testing.T) {
	db, err := OpenMemory(t.Name())
	require.NoError(t, err)
	defer Close(db)

	// a used license without a device violates the claim invariant
	err = db.Create(&model.License{Phone: "+221770000000", Used: true}).Error
	assert.Error(t, err)

	device := "device-a"
	err = db.Create(&model.License{Phone: "+221770000001", DeviceID: &device}).Error
	assert.Error(t, err)
}
