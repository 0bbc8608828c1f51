package cli

import (
	"fmt"
	"nfcattend/internal"
	"nfcattend/internal/models"

	"github.com/spf13/cobra"
)

func newProfileCmd(withToolkit toolkitRunner) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "profile <uid>",
		Short: "Show the attendance profile of a card",
		Args:  cobra.ExactArgs(1),
		RunE: withToolkit(func(cmd *cobra.Command, args []string, tk *internal.Toolkit) error {
			profile, err := tk.Service.Profile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), profile)
			}
			printProfile(cmd, profile)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the profile as JSON")
	return cmd
}

func printProfile(cmd *cobra.Command, p *models.Profile) {
	out := cmd.OutOrStdout()
	name := p.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(out, "%s  %s\n", p.UID, name)
	fmt.Fprintf(out, "  Days attended: %d of %d (%.1f%%)\n", p.DaysAttended, p.TotalDays, p.AttendanceRate)
	fmt.Fprintf(out, "  Total hours:   %.2f\n", p.TotalHours)
	fmt.Fprintf(out, "  Average hours: %.2f\n", p.AverageHours)
	for _, day := range p.History {
		mark := "-"
		if day.Attended {
			mark = "x"
		}
		if day.SignedIn {
			mark = "*"
		}
		fmt.Fprintf(out, "  %s %s %6.2fh\n", mark, day.Date, day.Hours)
	}
}
