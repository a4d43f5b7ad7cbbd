package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/limaJavier/sessionplanner/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configJson = `{
	"database": "planner.db",
	"seed": 7,
	"log_level": "debug",
	"grid": {"days": [0, 1, 2], "starts": ["09:00", "10:30"], "day_end": "18:00"},
	"workload": {"min_hours": 10, "max_hours": 20}
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(file, []byte(content), 0666))
	return file
}

// unsetEnv removes a variable for the duration of the test
func unsetEnv(t *testing.T, key string) {
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func clearEnv(t *testing.T) {
	for _, key := range []string{DatabaseEnv, CatalogEnv, SeedEnv, LogLevelEnv} {
		unsetEnv(t, key)
	}
}

func TestLoad(t *testing.T) {
	missingEnv := filepath.Join(t.TempDir(), "missing.env")

	t.Run("Defaults", func(t *testing.T) {
		//** Arrange
		clearEnv(t)

		//** Act
		config, err := Load("", missingEnv)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, Default(), config)
		assert.Nil(t, config.Seed)
		assert.Len(t, config.TimetablerOptions(), 1)
	})

	t.Run("File values override the defaults", func(t *testing.T) {
		//** Arrange
		clearEnv(t)
		file := writeFile(t, "config.json", configJson)

		//** Act
		config, err := Load(file, missingEnv)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, "planner.db", config.Database)
		require.NotNil(t, config.Seed)
		assert.Equal(t, uint64(7), *config.Seed)
		assert.Equal(t, "debug", config.LogLevel)
		assert.Equal(t, []model.Weekday{model.Monday, model.Tuesday, model.Wednesday}, config.Grid.Days)
		assert.Equal(t, []model.Clock{model.At(9, 0), model.At(10, 30)}, config.Grid.Starts)
		assert.Equal(t, model.At(18, 0), config.Grid.DayEnd)
		assert.Equal(t, 60, config.Grid.DefaultDuration)
		assert.Equal(t, Workload{MinHours: 10, MaxHours: 20}, config.Workload)
		assert.Equal(t, 30, config.DefaultHeadcount)
		assert.Len(t, config.TimetablerOptions(), 2)
		assert.Len(t, config.DetectorOptions(), 2)
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		//** Arrange
		clearEnv(t)
		file := writeFile(t, "config.json", configJson)
		t.Setenv(DatabaseEnv, "other.db")
		t.Setenv(SeedEnv, "99")

		//** Act
		config, err := Load(file, missingEnv)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, "other.db", config.Database)
		assert.Equal(t, uint64(99), *config.Seed)
	})

	t.Run("Env file is loaded", func(t *testing.T) {
		//** Arrange
		clearEnv(t)
		envFile := writeFile(t, ".env", CatalogEnv+"=catalog.json\n"+LogLevelEnv+"=warn\n")
		t.Cleanup(func() {
			os.Unsetenv(CatalogEnv)
			os.Unsetenv(LogLevelEnv)
		})

		//** Act
		config, err := Load("", envFile)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, "catalog.json", config.Catalog)
		assert.Equal(t, "warn", config.LogLevel)
	})

	t.Run("Invalid values are rejected", func(t *testing.T) {
		clearEnv(t)
		tests := map[string]string{
			"Inverted workload band": `{"workload": {"min_hours": 30, "max_hours": 20}}`,
			"Unknown log level":      `{"log_level": "verbose"}`,
			"Day out of range":       `{"grid": {"days": [7]}}`,
			"Malformed start":        `{"grid": {"starts": ["9h"]}}`,
			"Misspelled key":         `{"databse": "planner.db"}`,
		}
		for name, content := range tests {
			t.Run(name, func(t *testing.T) {
				_, err := Load(writeFile(t, "config.json", content), missingEnv)
				assert.Error(t, err)
			})
		}

		t.Run("Malformed seed", func(t *testing.T) {
			t.Setenv(SeedEnv, "seven")
			_, err := Load("", missingEnv)
			assert.Error(t, err)
		})
	})
}

func TestLogger(t *testing.T) {
	//** Arrange
	config := Default()

	//** Act
	logger, err := config.Logger()

	//** Assert
	require.NoError(t, err)
	assert.NotNil(t, logger)

	config.LogLevel = "loud"
	_, err = config.Logger()
	assert.Error(t, err)
}
