package app

import (
	"github.com/spf13/cobra"
)

var rebootFlagYes bool

var rebootCmd = &cobra.Command{
	Use:   "reboot",
	Short: "Reboot the connected device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(true, rebootFlagYes)
		if err != nil {
			return err
		}
		defer e.Close()

		e.session.Reboot(cmd.Context())
		return nil
	},
}

func init() {
	rebootCmd.Flags().BoolVarP(&rebootFlagYes, "yes", "y", false, "Skip confirmation prompt")
	RootCmd.AddCommand(rebootCmd)
}
