package cli

import (
	"fmt"
	"nfcattend/internal"
	"sort"

	"github.com/spf13/cobra"
)

func newNamesCmd(withToolkit toolkitRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "names",
		Short: "List card names",
		Args:  cobra.NoArgs,
		RunE: withToolkit(func(cmd *cobra.Command, args []string, tk *internal.Toolkit) error {
			names, err := tk.Service.Names(cmd.Context())
			if err != nil {
				return err
			}
			uids := make([]string, 0, len(names))
			for uid := range names {
				uids = append(uids, uid)
			}
			sort.Strings(uids)
			for _, uid := range uids {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", uid, names[uid])
			}
			return nil
		}),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <uid> <name>",
		Short: "Assign a name to a card",
		Args:  cobra.ExactArgs(2),
		RunE: withToolkit(func(cmd *cobra.Command, args []string, tk *internal.Toolkit) error {
			if err := tk.Service.SetName(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Card name '%s' saved for %s\n", args[1], args[0])
			return nil
		}),
	})
	return cmd
}
