package cli

import (
	"fmt"
	"io"
	"nfcattend/internal"
	"nfcattend/internal/di"
	"nfcattend/internal/structures"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

type (
	toolkitFactory func(*structures.CliFlags) (*internal.Toolkit, error)
	appFactory     func(*structures.CliFlags) (*internal.App, error)
)

// Execute is the entry point called from main.
func Execute() {
	if err := NewRootCommand(di.InitToolkit, di.InitApp).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func NewRootCommand(newToolkit toolkitFactory, newApp appFactory) *cobra.Command {
	flags := &structures.CliFlags{}

	rootCmd := &cobra.Command{
		Use:   "nfcattend",
		Short: "NFC card attendance tracker",
		Long: `nfcattend records sign-ins and sign-outs reported by an NFC reader
and serves attendance profiles over a JSON API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&flags.DebugMode, "debug", "d", false, "log to the console as well")

	withToolkit := func(run func(cmd *cobra.Command, args []string, tk *internal.Toolkit) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			tk, err := newToolkit(flags)
			if err != nil {
				return err
			}
			runErr := run(cmd, args, tk)
			if err := tk.Close(); err != nil && runErr == nil {
				runErr = err
			}
			return runErr
		}
	}

	rootCmd.AddCommand(
		newServeCmd(flags, newApp),
		newProfileCmd(withToolkit),
		newDayCmd(withToolkit),
		newCleanupCmd(withToolkit),
		newVerifyCmd(withToolkit),
		newRestoreCmd(withToolkit),
		newNamesCmd(withToolkit),
	)
	return rootCmd
}

type toolkitRunner func(run func(cmd *cobra.Command, args []string, tk *internal.Toolkit) error) func(*cobra.Command, []string) error

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
