package cli

import (
	"errors"
	"fmt"
	"nfcattend/internal"

	"github.com/spf13/cobra"
)

func newRestoreCmd(withToolkit toolkitRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "restore [snapshot-file]",
		Short: "Merge a snapshot file into the active store",
		Long: `restore reads a snapshot written by the server and imports it into the
configured store. Records in the snapshot overwrite records with the same
date and uid; nothing else is deleted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: withToolkit(func(cmd *cobra.Command, args []string, tk *internal.Toolkit) error {
			path := tk.Conf.Snapshot.FilePath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return errors.New("no snapshot file given and snapshot.filePath is not set")
			}
			doc, err := tk.FileManager.Restore(cmd.Context(), path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d dates and %d card names from %s into the %s store\n",
				len(doc.Attendance), len(doc.CardNames), path, tk.Store.Kind())
			return nil
		}),
	}
}
