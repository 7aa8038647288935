package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/droidprune/internal/bulk"
	"github.com/blackwell-systems/droidprune/internal/console"
	"github.com/blackwell-systems/droidprune/internal/output"
	"github.com/blackwell-systems/droidprune/internal/prompt"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive console for browsing and removing packages",
	Long: `Start an interactive console bound to the connected device.

The console keeps a package list, a search filter and a selection between
commands, so packages can be found, marked and removed in one session.
Type "help" inside the console for the command list.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	RootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	e, err := openEnv(true, false)
	if err != nil {
		return err
	}
	defer e.Close()

	sh := newShell(e.session, e.term, os.Stdout, e.cfg.BackupsDir)
	ctx := cmd.Context()

	fmt.Printf("droidprune %s. Type \"help\" for commands.\n\n", Version)
	e.session.Init(ctx)
	sh.exec(ctx, "devices") //nolint:errcheck

	return sh.run(ctx)
}

const shellHelp = `Commands:
  devices              refresh and show attached devices
  scan                 reload the package list from the device
  filter <text>        show packages containing text
  clear                remove the filter
  list                 show the (filtered) package list
  toggle <n|pkg>...    select or unselect packages by list number or id
  selected             show the selection in order
  uninstall            back up and uninstall the selection
  restore [dir]        restore from a backup, or from a folder
  reboot               reboot the device
  update               check for a new droidprune release
  info <n|pkg>         open a web search for a package
  log                  show the session log
  help                 show this help
  quit                 leave the console`

// shell is the interactive console loop over one session.
type shell struct {
	sess       *console.Session
	term       *prompt.Terminal
	out        io.Writer
	backupsDir string

	// visible is the list last printed, so numbers refer to what the user saw.
	visible []string
}

func newShell(sess *console.Session, term *prompt.Terminal, out io.Writer, backupsDir string) *shell {
	return &shell{sess: sess, term: term, out: out, backupsDir: backupsDir}
}

// errQuit ends the loop.
var errQuit = errors.New("quit")

func (s *shell) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := s.term.Ask("droidprune> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return nil
			}
			return err
		}

		if err := s.exec(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintln(s.out, "Error:", err)
		}
	}
}

func (s *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	inv := s.sess.Inventory
	switch name {
	case "devices":
		inv.RefreshDevices(ctx)
		fmt.Fprint(s.out, output.RenderDeviceTable(inv.Devices()))

	case "scan":
		inv.ScanPackages(ctx)
		s.list()

	case "filter", "search":
		inv.SetQuery(strings.Join(args, " "))
		s.list()

	case "clear":
		inv.ClearQuery()
		s.list()

	case "list", "ls":
		s.list()

	case "toggle", "t":
		if len(args) == 0 {
			return errors.New("usage: toggle <n|pkg>...")
		}
		for _, arg := range args {
			pkg, err := s.resolve(arg)
			if err != nil {
				return err
			}
			mark := "unselected"
			if s.sess.Selection.Toggle(pkg) {
				mark = "selected"
			}
			fmt.Fprintf(s.out, "%s %s\n", mark, pkg)
		}

	case "selected":
		members := s.sess.Selection.Members()
		if len(members) == 0 {
			fmt.Fprintln(s.out, "Nothing selected.")
			return nil
		}
		for i, pkg := range members {
			fmt.Fprintf(s.out, "%3d. %s\n", i+1, pkg)
		}

	case "uninstall":
		report := s.sess.Bulk.UninstallSelected(ctx)
		if !report.Aborted {
			fmt.Fprint(s.out, output.RenderRunSummary(
				report.Count(bulk.Succeeded),
				report.Count(bulk.Failed),
				report.Count(bulk.Errored)))
			s.visible = nil
		}

	case "restore":
		return restoreFlow(ctx, s.sess.Restore, s.term, s.out, s.backupsDir, strings.Join(args, " "), "")

	case "reboot":
		s.sess.Reboot(ctx)

	case "update", "check-update":
		s.sess.CheckUpdate(ctx)

	case "info":
		if len(args) != 1 {
			return errors.New("usage: info <n|pkg>")
		}
		pkg, err := s.resolve(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, s.sess.PackageInfoURL(pkg))
		s.sess.OpenPackageInfo(pkg)

	case "log":
		fmt.Fprintln(s.out, s.sess.Sink.Text())

	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)

	case "quit", "exit", "q":
		return errQuit

	default:
		return fmt.Errorf("unknown command %q (type \"help\")", name)
	}
	return nil
}

func (s *shell) list() {
	s.visible = slices.Collect(s.sess.Inventory.Filtered())
	fmt.Fprint(s.out, output.RenderPackageList(s.visible, s.sess.Selection.Contains))
}

// resolve maps a list number to a package id. Anything that is not a number
// is taken as an id.
func (s *shell) resolve(arg string) (string, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return arg, nil
	}
	if n < 1 || n > len(s.visible) {
		return "", fmt.Errorf("no package #%d in the current list", n)
	}
	return s.visible[n-1], nil
}
