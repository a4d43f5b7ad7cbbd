package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/limaJavier/sessionplanner/pkg/conflict"
	"github.com/limaJavier/sessionplanner/pkg/model"
	"github.com/limaJavier/sessionplanner/pkg/timetabler"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"
)

const resultsFile = "benchmark_results.csv"

type BenchmarkResult struct {
	Seed          uint64  `csv:"Seed"`
	Groups        int     `csv:"Groups"`
	Courses       int     `csv:"Courses"`
	Rooms         int     `csv:"Rooms"`
	Teachers      int     `csv:"Teachers"`
	Duration      int64   `csv:"Duration(ms)"`
	Generated     int     `csv:"Generated"`
	Failed        int     `csv:"Failed"`
	PlacementRate float64 `csv:"Placement(%)"`
	Verified      bool    `csv:"Verified"`
	Critical      int     `csv:"Critical"`
	High          int     `csv:"High"`
	Medium        int     `csv:"Medium"`
}

func main() {
	catalogPtr := flag.String("catalog", "", "Path to the JSON catalog")
	departmentPtr := flag.Uint64("department", 0, "Department whose groups are scheduled")
	groupPtr := flag.Uint64("group", 0, "Single group to schedule")
	runsPtr := flag.Int("runs", 10, "Number of seeds to benchmark, starting at -first")
	firstPtr := flag.Uint64("first", 1, "First seed")
	outFilePathPtr := flag.String("out", resultsFile, "Path to the CSV results file")
	flag.Parse()

	if *catalogPtr == "" {
		log.Fatal("a catalog file must be specified")
	} else if *departmentPtr == 0 && *groupPtr == 0 {
		log.Fatal("a department or a group must be specified")
	} else if *runsPtr <= 0 {
		log.Fatalf("runs must be positive: %v", *runsPtr)
	}

	catalog, existing, err := model.CatalogFromJson(*catalogPtr)
	if err != nil {
		log.Fatalf("cannot parse catalog file: %v", err)
	}
	scope := model.Scope{Department: *departmentPtr, Group: *groupPtr}

	results := make([]BenchmarkResult, 0, *runsPtr)
	for _, seed := range seeds(*firstPtr, *runsPtr) {
		fmt.Printf("Benchmarking seed \"%v\"\n", seed)
		results = append(results, measure(catalog, existing, scope, seed))
	}

	toCsv(*outFilePathPtr, results)
}

func seeds(first uint64, runs int) []uint64 {
	return lo.Times(runs, func(i int) uint64 { return first + uint64(i) })
}

// measure runs one generation, verifies it and audits the resulting schedule
func measure(catalog *model.Catalog, existing []model.Assignment, scope model.Scope, seed uint64) BenchmarkResult {
	generator := timetabler.NewGreedyTimetabler(catalog, existing, timetabler.WithSeed(seed))

	start := time.Now()
	result := generator.Generate(scope)
	duration := time.Since(start).Milliseconds()

	if result.ScopeError != nil {
		log.Fatalf("cannot benchmark seed \"%v\": %v", seed, result.ScopeError)
	}

	kept := lo.Reject(existing, func(assignment model.Assignment, _ int) bool {
		return lo.Contains(result.Replaced, assignment.Id)
	})
	report := conflict.NewDetector(catalog).DetectAll(append(kept, result.Assignments...))

	return BenchmarkResult{
		Seed:          seed,
		Groups:        len(lo.Uniq(lo.Map(result.Assignments, func(assignment model.Assignment, _ int) uint64 { return assignment.Group }))),
		Courses:       len(catalog.Courses),
		Rooms:         len(catalog.Rooms),
		Teachers:      len(catalog.Teachers),
		Duration:      duration,
		Generated:     result.Generated(),
		Failed:        result.Failed(),
		PlacementRate: placementRate(result.Generated(), result.Failed()),
		Verified:      generator.Verify(result.Assignments),
		Critical:      report.BySeverity[conflict.Critical],
		High:          report.BySeverity[conflict.High],
		Medium:        report.BySeverity[conflict.Medium],
	}
}

// placementRate is the percentage of requested sessions that were placed, rounded to one decimal
func placementRate(generated, failed int) float64 {
	requested := generated + failed
	if requested == 0 {
		return 100
	}
	return math.Round(float64(generated)/float64(requested)*1000) / 10
}

func toCsv(outFile string, results []BenchmarkResult) {
	file, err := os.Create(outFile)
	if err != nil {
		log.Panicf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&results, file); err != nil {
		log.Panicf("cannot write CSV records: %v", err)
	}
}
