package app

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/droidprune/internal/output"
)

var scanFilter string

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List packages installed on the device",
	Long: `List every package installed on the connected device, in the order the
package manager reports them.

--filter keeps packages whose id contains the given text, ignoring case.`,
	Example: `  droidprune scan
  droidprune scan --filter google`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanFilter, "filter", "f", "", "case-insensitive substring to match package ids")
	RootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	e, err := openEnv(true, false)
	if err != nil {
		return err
	}
	defer e.Close()

	inv := e.session.Inventory
	inv.ScanPackages(cmd.Context())
	e.view.stopSpinner()

	inv.SetQuery(scanFilter)
	pkgs := slices.Collect(inv.Filtered())

	fmt.Println()
	fmt.Print(output.RenderPackageList(pkgs, nil))
	return nil
}
