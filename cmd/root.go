package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wardsched/wardsched/alloc"
	"github.com/wardsched/wardsched/alloc/events"
	"github.com/wardsched/wardsched/alloc/feedback"
)

var (
	// CLI flags for the allocation run
	seed          int64  // Seed for room tie-break randomness
	logLevel      string // Log verbosity level
	csvPath       string // Admission CSV path
	startIndex    int    // First CSV data row to process
	maxPatients   int    // Batch size cap
	slotMinutes   int    // Nurse visit granularity (15, 20, 30)
	scenario      string // Scenario preset name
	scenariosFile string // Scenario presets YAML path
	modelDir      string // Directory holding models.yaml
	outputDir     string // Directory for result JSON documents
	resumeSpace   string // hospital_space.json from a previous run
	roomIDs       string // Comma-separated room specs
	rosterPath    string // Nurse roster JSON path
	feedbackDB    string // Feedback store data directory
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "wardsched",
	Short: "Hospital bed and nurse allocation engine",
}

// envOr returns the flag value unless it is empty and the environment
// provides one.
func envOr(flagValue, envKey string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(envKey)
}

// runCmd executes one allocation batch using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one bed and nurse allocation batch",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		// .env is optional; explicit env vars and flags win over it.
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			logrus.Warnf("could not load .env: %v", err)
		}

		csvPath := envOr(csvPath, "WARDSCHED_CSV_PATH")
		if csvPath == "" {
			logrus.Fatalf("No admission CSV provided. Set --csv or WARDSCHED_CSV_PATH.")
		}
		modelDir := envOr(modelDir, "WARDSCHED_MODEL_DIR")
		if modelDir == "" {
			modelDir = "models"
		}
		scenario := envOr(scenario, "WARDSCHED_SCENARIO")

		preset := resolveScenario(scenariosFile, scenario)
		if preset.SlotMinutes > 0 && !cmd.Flags().Changed("slot-minutes") {
			slotMinutes = preset.SlotMinutes
		}
		if preset.MaxPatients > 0 && !cmd.Flags().Changed("max-patients") {
			maxPatients = preset.MaxPatients
		}
		if slotMinutes != 15 && slotMinutes != 20 && slotMinutes != 30 {
			logrus.Fatalf("slot-minutes must be 15, 20, or 30, got %d", slotMinutes)
		}

		rooms := buildRooms(preset)
		nurses := buildNurses(preset)

		artifact, err := alloc.LoadModelArtifact(modelDir)
		if err != nil {
			logrus.Fatalf("unable to load model artifact: %v", err)
		}

		bias := loadFeedbackBias()

		runID := uuid.NewString()
		memSink := events.NewMemorySink(0)
		emitter := events.NewEmitter(runID, memSink, events.LogSink{})

		patients, err := alloc.LoadPatients(csvPath, startIndex, maxPatients, emitter)
		if err != nil {
			logrus.Fatalf("unable to load patients: %v", err)
		}

		if resumeSpace != "" {
			views, err := alloc.LoadHospitalSpace(resumeSpace)
			if err != nil {
				logrus.Fatalf("unable to resume hospital space: %v", err)
			}
			alloc.ApplyHospitalSpace(rooms, views)
		}
		applyPreOccupancy(rooms, preset)

		cfg := alloc.NewRunConfig(seed, slotMinutes, maxPatients, startIndex)
		ac := alloc.NewAllocationContext(patients, rooms, nurses, bias)
		scorer := alloc.NewRiskScorer(artifact, emitter)
		orch := alloc.NewOrchestrator(cfg, scorer, emitter)

		startTime := time.Now()
		result, err := orch.Run(context.Background(), ac)
		if err != nil {
			logrus.Fatalf("allocation run failed: %v", err)
		}
		if err := result.WriteOutput(outputDir); err != nil {
			logrus.Fatalf("unable to write output: %v", err)
		}
		writeEvents(outputDir, memSink)

		logrus.Infof("Run %s complete in %s: %d assigned, %d waitlisted, %d visit blocks.",
			runID, time.Since(startTime).Round(time.Millisecond),
			result.AssignedCount(), len(result.WaitlistView), result.VisitBlockCount())
	},
}

func buildRooms(preset Scenario) []*alloc.Room {
	specs := envOr(roomIDs, "WARDSCHED_ROOM_IDS")
	if specs != "" {
		rooms, err := alloc.ParseRoomSpecs(specs)
		if err != nil {
			logrus.Fatalf("bad room roster: %v", err)
		}
		return rooms
	}
	if len(preset.Rooms) > 0 {
		rooms, err := preset.BuildRooms()
		if err != nil {
			logrus.Fatalf("bad scenario rooms: %v", err)
		}
		return rooms
	}
	return alloc.DefaultRooms()
}

func buildNurses(preset Scenario) []*alloc.Nurse {
	if rosterPath != "" {
		data, err := os.ReadFile(rosterPath)
		if err != nil {
			logrus.Fatalf("unable to read nurse roster %s: %v", rosterPath, err)
		}
		nurses, err := alloc.ParseNurseRoster(data)
		if err != nil {
			logrus.Fatalf("bad nurse roster: %v", err)
		}
		return nurses
	}
	if raw := os.Getenv("WARDSCHED_ROSTER"); raw != "" {
		nurses, err := alloc.ParseNurseRoster([]byte(raw))
		if err != nil {
			logrus.Fatalf("bad WARDSCHED_ROSTER: %v", err)
		}
		return nurses
	}
	if len(preset.Nurses) > 0 {
		return preset.BuildNurses()
	}
	return alloc.DefaultNurses()
}

func loadFeedbackBias() map[string]float64 {
	dataDir := envOr(feedbackDB, "WARDSCHED_FEEDBACK_DB")
	if dataDir == "" {
		return nil
	}
	store, err := feedback.OpenStore(dataDir)
	if err != nil {
		logrus.Fatalf("unable to open feedback store: %v", err)
	}
	defer func() { _ = store.Close() }()

	bias, err := store.LoadBias(time.Now(), feedback.DefaultLookback)
	if err != nil {
		logrus.Fatalf("unable to compute load bias: %v", err)
	}
	return bias
}

// writeEvents dumps the run's event stream alongside the result documents.
func writeEvents(dir string, sink *events.MemorySink) {
	data, err := json.MarshalIndent(sink.Events(), "", "  ")
	if err != nil {
		logrus.Warnf("unable to marshal events: %v", err)
		return
	}
	path := filepath.Join(dir, "events.json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		logrus.Warnf("unable to write %s: %v", path, err)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for room tie-break randomness")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().StringVar(&csvPath, "csv", "", "Admission CSV path (or WARDSCHED_CSV_PATH)")
	runCmd.Flags().IntVar(&startIndex, "start-index", 0, "First CSV data row to process")
	runCmd.Flags().IntVar(&maxPatients, "max-patients", alloc.DefaultMaxPatients, "Maximum patients per batch")
	runCmd.Flags().IntVar(&slotMinutes, "slot-minutes", alloc.DefaultSlotMinutes, "Nurse visit slot length (15, 20, or 30)")

	runCmd.Flags().StringVar(&scenario, "scenario", "", "Scenario preset name (or WARDSCHED_SCENARIO)")
	runCmd.Flags().StringVar(&scenariosFile, "scenarios-file", "scenarios.yaml", "Scenario presets YAML path")
	runCmd.Flags().StringVar(&modelDir, "model-dir", "", "Directory holding models.yaml (or WARDSCHED_MODEL_DIR)")
	runCmd.Flags().StringVar(&outputDir, "output", "output", "Directory for result JSON documents")
	runCmd.Flags().StringVar(&resumeSpace, "resume-space", "", "hospital_space.json from a previous run")

	runCmd.Flags().StringVar(&roomIDs, "rooms", "", "Comma-separated room specs id[:category[:floor]] (or WARDSCHED_ROOM_IDS)")
	runCmd.Flags().StringVar(&rosterPath, "roster", "", "Nurse roster JSON path (or WARDSCHED_ROSTER inline)")
	runCmd.Flags().StringVar(&feedbackDB, "feedback-db", "", "Feedback store directory (or WARDSCHED_FEEDBACK_DB)")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
