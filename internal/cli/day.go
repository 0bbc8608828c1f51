package cli

import (
	"fmt"
	"nfcattend/internal"
	"nfcattend/internal/models"

	"github.com/spf13/cobra"
)

func newDayCmd(withToolkit toolkitRunner) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "day [YYYY-MM-DD]",
		Short: "Show who signed in on a day, today by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: withToolkit(func(cmd *cobra.Command, args []string, tk *internal.Toolkit) error {
			date := ""
			if len(args) == 1 {
				date = args[0]
			}
			sheet, err := tk.Service.Day(cmd.Context(), date)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), sheet)
			}
			printDay(cmd, sheet)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the day sheet as JSON")
	return cmd
}

func printDay(cmd *cobra.Command, sheet *models.DaySheet) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d signed in, %d not signed in\n", sheet.Date, sheet.SignedIn, sheet.NotSignedIn)
	for _, e := range sheet.Entries {
		state := "out"
		if e.SignedIn {
			state = "in"
		}
		name := e.Name
		if name == "" {
			name = e.UID
		}
		fmt.Fprintf(out, "  %-3s %-24s %6.2fh\n", state, name, e.Hours)
	}
}
