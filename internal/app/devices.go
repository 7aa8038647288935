package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/droidprune/internal/output"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List attached Android devices",
	Long: `List the devices adb can see, with their connection status.

A device must be "connected" for package commands to work. "unauthorized"
means USB debugging has not been accepted on the phone yet.`,
	RunE: runDevices,
}

func init() {
	RootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	e, err := openEnv(true, false)
	if err != nil {
		return err
	}
	defer e.Close()

	e.session.Init(cmd.Context())
	fmt.Print(output.RenderDeviceTable(e.session.Inventory.Devices()))
	return nil
}
