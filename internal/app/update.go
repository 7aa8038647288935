package app

import (
	"github.com/spf13/cobra"
)

var checkUpdateCmd = &cobra.Command{
	Use:     "check-update",
	Aliases: []string{"update"},
	Short:   "Check for a newer droidprune release",
	Long: `Check the release page for a newer version. When one is available you are
asked whether to open the release page in your browser.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(false, false)
		if err != nil {
			return err
		}
		defer e.Close()

		e.session.CheckUpdate(cmd.Context())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(checkUpdateCmd)
}
