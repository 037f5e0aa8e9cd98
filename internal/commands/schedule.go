package commands

import (
	"fmt"
	"io"

	"github.com/Freeeeeet/therapy_scheduler/internal/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule [patient-package-id]",
	Short: "Generate the missing sessions of a patient package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid patient package ID '%s'", args[0])
		}

		rt, err := openRuntime(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer rt.Close()

		result, err := rt.services().scheduling.SchedulePackage(cmd.Context(), id)
		if err != nil {
			return err
		}

		printScheduleResult(cmd.OutOrStdout(), result)
		return nil
	},
}

func printScheduleResult(w io.Writer, r *service.ScheduleResult) {
	fmt.Fprintf(w, "✅ %s\n", r.Message())
	fmt.Fprintf(w, "Candidates: %d, already existing: %d, lookup errors: %d\n",
		r.Candidates, r.Duplicates+r.Conflicts, r.LookupErrors)

	for _, s := range r.SkippedConfigs {
		fmt.Fprintf(w, "⚠️  skipped rule %s (therapy %s): %s\n", s.ConfigID, s.TherapyTypeID, s.Reason)
	}
	for _, b := range r.FailedBatches {
		fmt.Fprintf(w, "❌ batch #%d (%d sessions): %v\n", b.Index, b.Size, b.Err)
	}
}
