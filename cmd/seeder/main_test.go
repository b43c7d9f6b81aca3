package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/niyyah-app/niyyah-api/internal/config"
	"github.com/niyyah-app/niyyah-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLicense(t *testing.T) {
	name := "Demo Customer 1"
	device := "3f9a"
	usedAt := time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)

	unclaimed := formatLicense(model.License{Phone: "+221770000001", OrderID: "SEED-001", CustomerName: &name})
	assert.True(t, strings.HasSuffix(unclaimed, "unclaimed"))
	assert.Contains(t, unclaimed, "Demo Customer 1")

	claimed := formatLicense(model.License{Phone: "+221770000001", OrderID: "SEED-001", Used: true, DeviceID: &device, UsedAt: &usedAt})
	assert.Contains(t, claimed, "claimed by 3f9a at 2026-03-10 18:30")
	assert.Contains(t, claimed, " - ")
}

func TestSchemaCommand(t *testing.T) {
	pg := config.DBConfig{Driver: "postgres", Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}

	t.Run("version only", func(t *testing.T) {
		var rolledBack bool
		cmd := schemaCommand{
			rollback: func(string) error { rolledBack = true; return nil },
			version: func(url string) (uint, bool, error) {
				assert.Equal(t, pg.URL(), url)
				return 1, false, nil
			},
		}

		var out bytes.Buffer
		require.NoError(t, cmd.run(pg, false, &out))
		assert.False(t, rolledBack)
		assert.Equal(t, "schema version: 1 (dirty: false)\n", out.String())
	})

	t.Run("rollback then version", func(t *testing.T) {
		version := uint(1)
		cmd := schemaCommand{
			rollback: func(string) error { version = 0; return nil },
			version:  func(string) (uint, bool, error) { return version, false, nil },
		}

		var out bytes.Buffer
		require.NoError(t, cmd.run(pg, true, &out))
		assert.Equal(t, "schema version: 0 (dirty: false)\n", out.String())
	})

	t.Run("rollback failure stops", func(t *testing.T) {
		cmd := schemaCommand{
			rollback: func(string) error { return errors.New("rollback failed: no migration") },
			version: func(string) (uint, bool, error) {
				t.Fatal("version must not be read after a failed rollback")
				return 0, false, nil
			},
		}

		var out bytes.Buffer
		assert.ErrorContains(t, cmd.run(pg, true, &out), "no migration")
		assert.Empty(t, out.String())
	})

	t.Run("sqlite rejected", func(t *testing.T) {
		cmd := schemaCommand{}
		err := cmd.run(config.DBConfig{Driver: "sqlite"}, true, &bytes.Buffer{})
		assert.ErrorIs(t, err, errSchemaNeedsPostgres)
	})
}
