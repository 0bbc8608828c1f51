package cli

import (
	"errors"
	"fmt"
	"nfcattend/internal"
	"nfcattend/internal/models"

	"github.com/spf13/cobra"
)

var ErrStaleSignIns = errors.New("open sign-ins remain on past dates")

func newCleanupCmd(withToolkit toolkitRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Close sign-ins left open on past days with a two hour credit",
		Args:  cobra.NoArgs,
		RunE: withToolkit(func(cmd *cobra.Command, args []string, tk *internal.Toolkit) error {
			report, err := tk.Service.CloseStale(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Today is: %s\n", report.Today)
			printStale(cmd, report)
			fmt.Fprintf(out, "Cleanup complete. Updated %d records, skipped %d.\n", report.Closed, report.Skipped)
			return nil
		}),
	}
}

func newVerifyCmd(withToolkit toolkitRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that no past day still has an open sign-in",
		Args:  cobra.NoArgs,
		RunE: withToolkit(func(cmd *cobra.Command, args []string, tk *internal.Toolkit) error {
			report, err := tk.Service.VerifyStale(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range report.Entries {
				fmt.Fprintf(out, "ISSUE: %s is still signed in on %s\n", e.UID, e.Date)
			}
			if len(report.Entries) > 0 {
				return fmt.Errorf("%w: %d found", ErrStaleSignIns, len(report.Entries))
			}
			fmt.Fprintln(out, "No open sign-ins on past dates.")
			return nil
		}),
	}
}

func printStale(cmd *cobra.Command, report *models.StaleReport) {
	out := cmd.OutOrStdout()
	for _, e := range report.Entries {
		if e.Closed {
			fmt.Fprintf(out, "  %s %s: closed with 2 hours\n", e.Date, e.UID)
		} else {
			fmt.Fprintf(out, "  %s %s: no sign-in time, left open\n", e.Date, e.UID)
		}
	}
}
