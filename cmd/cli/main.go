package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/limaJavier/sessionplanner/pkg/config"
	"github.com/limaJavier/sessionplanner/pkg/conflict"
	"github.com/limaJavier/sessionplanner/pkg/csvio"
	"github.com/limaJavier/sessionplanner/pkg/model"
	"github.com/limaJavier/sessionplanner/pkg/planner"
	"github.com/limaJavier/sessionplanner/pkg/store"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Exit statuses
const (
	generated   = 10 // Every requested session was placed (and saved when asked)
	unpersisted = 15 // Generation succeeded but the save was rolled back
	incomplete  = 20 // Some sessions could not be placed or the scope was empty
)

var (
	validModes   = []string{"generate", "detect", "check"}
	validFormats = []string{"json", "csv"}
)

// editCheck is the JSON shape of a checked edit
type editCheck struct {
	Assignment model.Assignment
	Conflicts  []conflict.Conflict
}

func main() {
	// Define arguments
	modePtr := flag.String("mode", "generate", `Operation to run. Allowed values are:
- "generate" (Build the sessions of a department or group),
- "detect" (Audit every stored assignment) and
- "check" (Test the edits listed in a CSV file against the stored assignments), where "generate" is the default`)
	configPathPtr := flag.String("config", "", "Path to the JSON config file; if empty, config.json next to the executable is used when present")
	catalogPtr := flag.String("catalog", "", "Path to the JSON catalog; imported into the database when one is given")
	databasePtr := flag.String("db", "", "Path to the SQLite database; if empty, the catalog is kept in memory")
	departmentPtr := flag.Uint64("department", 0, "Department whose groups are scheduled")
	semesterPtr := flag.Int("semester", 0, "Semester of the run (informational)")
	groupPtr := flag.Uint64("group", 0, "Single group to schedule; takes precedence over the department")
	replacePtr := flag.Bool("replace", false, "Regenerate the unlocked assignments of the target groups")
	seedPtr := flag.Int64("seed", -1, "Seed of the run; negative means the configured seed or a fresh one")
	savePtr := flag.Bool("save", false, "Persist the generated assignments")
	editsPtr := flag.String("edits", "", "CSV file with the edits to check")
	formatPtr := flag.String("format", "json", "Output format. Allowed values are: \"json\", \"csv\", where \"json\" is the default")
	outFilePathPtr := flag.String("out", "", "Path to the file where the output will be written; if empty, it'll be written into the Standard Output")
	flag.Parse()
	mode := strings.ToLower(*modePtr)
	format := strings.ToLower(*formatPtr)

	// Validate arguments
	if !slices.Contains(validModes, mode) {
		log.Fatalf("%v is not a valid mode", mode)
	} else if !slices.Contains(validFormats, format) {
		log.Fatalf("%v is not a valid format", format)
	} else if mode == "generate" && *departmentPtr == 0 && *groupPtr == 0 {
		log.Fatal("a department or a group must be specified")
	} else if mode == "check" && *editsPtr == "" {
		log.Fatal("an edits file must be specified")
	}

	// Load configuration
	cfg, err := config.Load(configPath(*configPathPtr))
	if err != nil {
		log.Fatalf("cannot load configuration: %v", err)
	}
	if *catalogPtr != "" {
		cfg.Catalog = *catalogPtr
	}
	if *databasePtr != "" {
		cfg.Database = *databasePtr
	}
	if *seedPtr >= 0 {
		seed := uint64(*seedPtr)
		cfg.Seed = &seed
	}

	logger, err := cfg.Logger()
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	planStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("cannot open store: %v", err)
	}
	defer closeStore()

	sessionPlanner := planner.New(planStore,
		planner.WithTimetablerOptions(cfg.TimetablerOptions()...),
		planner.WithDetectorOptions(cfg.DetectorOptions()...),
		planner.WithLogger(logger),
	)

	var output bytes.Buffer
	status := 0
	switch mode {
	case "generate":
		status = generate(ctx, sessionPlanner, planStore, model.Scope{
			Department:      *departmentPtr,
			Semester:        *semesterPtr,
			Group:           *groupPtr,
			ReplaceUnlocked: *replacePtr,
		}, *savePtr, format, &output, logger)
	case "detect":
		report, err := sessionPlanner.Detect(ctx)
		if err != nil {
			log.Fatalf("an error occurred during conflict detection: %v", err)
		}
		err = write(&output, format, report, func(out io.Writer) error { return csvio.WriteConflicts(out, report) })
		if err != nil {
			log.Fatalf("an error occurred while building the output: %v", err)
		}
	case "check":
		checks := checkEdits(ctx, sessionPlanner, *editsPtr)
		all := lo.FlatMap(checks, func(check editCheck, _ int) []conflict.Conflict { return check.Conflicts })
		err = write(&output, format, checks, func(out io.Writer) error {
			return csvio.WriteConflicts(out, conflict.Report{Conflicts: all})
		})
		if err != nil {
			log.Fatalf("an error occurred while building the output: %v", err)
		}
	}

	// Verify outfile is empty, if so then write the results to the Standard Output
	if *outFilePathPtr == "" {
		fmt.Print(output.String())
	} else if err := os.WriteFile(*outFilePathPtr, output.Bytes(), 0666); err != nil {
		log.Fatalf("an error occurred while writing to the output file: %v", err)
	}

	if status != 0 {
		logger.Sync()
		os.Exit(status)
	}
}

func generate(ctx context.Context, sessionPlanner *planner.Planner, planStore store.Store, scope model.Scope, save bool, format string, output *bytes.Buffer, logger *zap.Logger) int {
	outcome, err := sessionPlanner.Generate(ctx, scope)
	if err != nil {
		log.Fatalf("an error occurred during timetable generation: %v", err)
	}

	status := generated
	if outcome.ScopeError != nil || outcome.FailedCount > 0 {
		status = incomplete
	}
	if save && outcome.ScopeError == nil {
		if err := sessionPlanner.Save(ctx, &outcome); err != nil {
			logger.Warn("generated assignments were not saved", zap.Error(err))
			status = unpersisted
		}
	}

	catalog, err := planStore.LoadCatalog(ctx)
	if err != nil {
		log.Fatalf("cannot load catalog: %v", err)
	}
	err = write(output, format, outcome, func(out io.Writer) error {
		if err := csvio.WriteAssignments(out, catalog, outcome.Assignments); err != nil {
			return err
		}
		if len(outcome.Failures) == 0 {
			return nil
		}
		fmt.Fprintln(out)
		return csvio.WriteFailures(out, outcome.Failures)
	})
	if err != nil {
		log.Fatalf("an error occurred while building the output: %v", err)
	}
	return status
}

func checkEdits(ctx context.Context, sessionPlanner *planner.Planner, editsFile string) []editCheck {
	file, err := os.Open(editsFile)
	if err != nil {
		log.Fatalf("cannot open edits file: %v", err)
	}
	defer file.Close()

	edits, err := csvio.ReadAssignments(file)
	if err != nil {
		log.Fatalf("cannot parse edits file: %v", err)
	}

	checks := make([]editCheck, 0, len(edits))
	for _, edit := range edits {
		conflicts, err := sessionPlanner.CheckEdit(ctx, edit)
		if err != nil {
			log.Fatalf("cannot check edit %v: %v", edit.Id, err)
		}
		checks = append(checks, editCheck{Assignment: edit, Conflicts: conflicts})
	}
	return checks
}

// write renders value as indented JSON or through the given CSV writer
func write(out io.Writer, format string, value any, writeCsv func(io.Writer) error) error {
	if format == "csv" {
		return writeCsv(out)
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// openStore opens the configured database, importing the catalog into it when both are given. Without a database the catalog is served from memory.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	if cfg.Database == "" {
		if cfg.Catalog == "" {
			return nil, nil, errors.New("either a catalog or a database must be specified")
		}
		rawCatalog, err := model.RawCatalogFromJson(cfg.Catalog)
		if err != nil {
			return nil, nil, err
		}
		return store.NewMemoryStore(rawCatalog), func() {}, nil
	}

	sqliteStore, err := store.NewSqliteStore(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Catalog != "" {
		rawCatalog, err := model.RawCatalogFromJson(cfg.Catalog)
		if err != nil {
			sqliteStore.Close()
			return nil, nil, err
		}
		if err := sqliteStore.ImportCatalog(ctx, rawCatalog); err != nil {
			sqliteStore.Close()
			return nil, nil, err
		}
	}
	return sqliteStore, func() { sqliteStore.Close() }, nil
}

// configPath falls back to the config.json lying next to the executable, if any
func configPath(explicit string) string {
	if explicit != "" {
		return explicit
	}

	execPath, err := os.Executable()
	if err != nil {
		log.Fatalf("cannot determine executable path: %v", err)
	}
	execPath = path.Dir(execPath)

	files, err := os.ReadDir(execPath)
	if err != nil {
		log.Fatalf("cannot read executable's directory: %v", err)
	}
	fileNames := lo.Map(files, func(file os.DirEntry, _ int) string { return file.Name() })
	if !slices.Contains(fileNames, "config.json") {
		return ""
	}
	return execPath + "/config.json"
}
