package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wardsched/wardsched/alloc/feedback"
)

var (
	// CLI flags for feedback submission
	fbNurseID      string // Nurse the feedback is about
	fbShiftDate    string // Shift date, YYYY-MM-DD
	fbOverwhelmed  bool   // Whether the shift was overwhelming
	fbMissedVisits int    // Visits missed during the shift
	fbComment      string // Free-text comment
	fbLookbackDays int    // Bias aggregation window in days
)

func openFeedbackStore() *feedback.Store {
	dataDir := envOr(feedbackDB, "WARDSCHED_FEEDBACK_DB")
	if dataDir == "" {
		dataDir = "data"
	}
	store, err := feedback.OpenStore(dataDir)
	if err != nil {
		logrus.Fatalf("unable to open feedback store: %v", err)
	}
	return store
}

// feedbackCmd records one shift feedback entry.
var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record nurse shift feedback",
	Run: func(cmd *cobra.Command, args []string) {
		if fbNurseID == "" {
			logrus.Fatalf("--nurse is required")
		}
		shift, err := time.Parse("2006-01-02", fbShiftDate)
		if err != nil {
			logrus.Fatalf("bad --shift-date (want YYYY-MM-DD): %v", err)
		}

		store := openFeedbackStore()
		defer func() { _ = store.Close() }()

		entry, err := store.Append(feedback.Entry{
			NurseID:      fbNurseID,
			ShiftDate:    shift,
			Overwhelmed:  fbOverwhelmed,
			MissedVisits: fbMissedVisits,
			Comment:      fbComment,
		})
		if err != nil {
			logrus.Fatalf("unable to record feedback: %v", err)
		}
		fmt.Printf("recorded feedback %s for %s\n", entry.ID, entry.NurseID)
	},
}

// biasCmd prints the load biases the next run would apply.
var biasCmd = &cobra.Command{
	Use:   "bias",
	Short: "Show per-nurse load biases from recent feedback",
	Run: func(cmd *cobra.Command, args []string) {
		store := openFeedbackStore()
		defer func() { _ = store.Close() }()

		lookback := time.Duration(fbLookbackDays) * 24 * time.Hour
		bias, err := store.LoadBias(time.Now(), lookback)
		if err != nil {
			logrus.Fatalf("unable to compute load bias: %v", err)
		}
		if len(bias) == 0 {
			fmt.Println("no qualifying feedback in window")
			return
		}

		ids := make([]string, 0, len(bias))
		for id := range bias {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Printf("%s\t+%.1f\n", id, bias[id])
		}
	},
}

func init() {
	feedbackCmd.Flags().StringVar(&fbNurseID, "nurse", "", "Nurse the feedback is about")
	feedbackCmd.Flags().StringVar(&fbShiftDate, "shift-date", time.Now().Format("2006-01-02"), "Shift date (YYYY-MM-DD)")
	feedbackCmd.Flags().BoolVar(&fbOverwhelmed, "overwhelmed", false, "Mark the shift as overwhelming")
	feedbackCmd.Flags().IntVar(&fbMissedVisits, "missed-visits", 0, "Visits missed during the shift")
	feedbackCmd.Flags().StringVar(&fbComment, "comment", "", "Free-text comment")
	feedbackCmd.Flags().StringVar(&feedbackDB, "feedback-db", "", "Feedback store directory (or WARDSCHED_FEEDBACK_DB)")

	biasCmd.Flags().IntVar(&fbLookbackDays, "lookback-days", 7, "Aggregation window in days")
	biasCmd.Flags().StringVar(&feedbackDB, "feedback-db", "", "Feedback store directory (or WARDSCHED_FEEDBACK_DB)")

	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(biasCmd)
}
