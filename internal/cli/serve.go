package cli

import (
	"nfcattend/internal/structures"

	"github.com/spf13/cobra"
)

func newServeCmd(flags *structures.CliFlags, newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(flags)
			if err != nil {
				return err
			}
			return app.Run()
		},
	}
}
