package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/limaJavier/sessionplanner/pkg/conflict"
	"github.com/limaJavier/sessionplanner/pkg/model"
	"github.com/limaJavier/sessionplanner/pkg/timetabler"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// Environment variables overriding the file values
const (
	DatabaseEnv = "TIMETABLE_DB"
	CatalogEnv  = "TIMETABLE_CATALOG"
	SeedEnv     = "TIMETABLE_SEED"
	LogLevelEnv = "TIMETABLE_LOG_LEVEL"
)

type Grid struct {
	Days            []model.Weekday `validate:"min=1,dive,gte=0,lte=6"`
	Starts          []model.Clock   `validate:"min=1"`
	DayEnd          model.Clock     `mapstructure:"day_end" validate:"gt=0"`
	DefaultDuration int             `mapstructure:"default_duration" validate:"gt=0"`
	DefaultSessions int             `mapstructure:"default_sessions" validate:"gt=0"`
}

type Workload struct {
	MinHours float64 `mapstructure:"min_hours" validate:"gte=0"`
	MaxHours float64 `mapstructure:"max_hours" validate:"gtefield=MinHours"`
}

type Config struct {
	Database         string  // SQLite path, empty means the catalog file is used in memory
	Catalog          string  // JSON catalog file
	Seed             *uint64 // Nil means a fresh seed per run
	LogLevel         string  `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Grid             Grid
	Workload         Workload
	DefaultHeadcount int `mapstructure:"default_headcount" validate:"gte=0"`
}

func Default() Config {
	grid := timetabler.DefaultGrid()
	return Config{
		LogLevel: "info",
		Grid: Grid{
			Days:            grid.Days,
			Starts:          grid.Starts,
			DayEnd:          grid.DayEnd,
			DefaultDuration: grid.DefaultDuration,
			DefaultSessions: grid.DefaultSessions,
		},
		Workload:         Workload{MinHours: 18, MaxHours: 24},
		DefaultHeadcount: 30,
	}
}

// Load reads the JSON config at path (skipped when empty) over the defaults, then applies the environment.
// Variables found in the env files (".env" when none is given) are loaded first without overriding the process environment.
func Load(path string, envFiles ...string) (Config, error) {
	config := Default()

	if path != "" {
		bytes, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("cannot read config file: %w", err)
		}
		var inputJson map[string]any
		if err := json.Unmarshal(bytes, &inputJson); err != nil {
			return Config{}, fmt.Errorf("cannot parse config file: %w", err)
		}

		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook:       model.ClockDecodeHook(),
			WeaklyTypedInput: true,
			ZeroFields:       true,
			ErrorUnused:      true,
			Result:           &config,
		})
		if err != nil {
			return Config{}, err
		}
		if err := decoder.Decode(inputJson); err != nil {
			return Config{}, fmt.Errorf("cannot decode config file: %w", err)
		}
	}

	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("cannot load env file: %w", err)
	}
	if err := config.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := validator.New().Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func (config *Config) applyEnv() error {
	if value, ok := os.LookupEnv(DatabaseEnv); ok {
		config.Database = value
	}
	if value, ok := os.LookupEnv(CatalogEnv); ok {
		config.Catalog = value
	}
	if value, ok := os.LookupEnv(LogLevelEnv); ok {
		config.LogLevel = value
	}
	if value, ok := os.LookupEnv(SeedEnv); ok && value != "" {
		seed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %v \"%v\": %w", SeedEnv, value, err)
		}
		config.Seed = &seed
	}
	return nil
}

func (config Config) TimetablerOptions() []timetabler.Option {
	options := []timetabler.Option{
		timetabler.WithGrid(timetabler.Grid{
			Days:            config.Grid.Days,
			Starts:          config.Grid.Starts,
			DayEnd:          config.Grid.DayEnd,
			DefaultDuration: config.Grid.DefaultDuration,
			DefaultSessions: config.Grid.DefaultSessions,
		}),
	}
	if config.Seed != nil {
		options = append(options, timetabler.WithSeed(*config.Seed))
	}
	return options
}

func (config Config) DetectorOptions() []conflict.Option {
	return []conflict.Option{
		conflict.WithWorkloadBand(config.Workload.MinHours, config.Workload.MaxHours),
		conflict.WithDefaultHeadcount(config.DefaultHeadcount),
	}
}

// Logger builds a production logger writing to the standard error at the configured level
func (config Config) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(config.LogLevel)
	if err != nil {
		return nil, err
	}
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = level
	return zapConfig.Build()
}
