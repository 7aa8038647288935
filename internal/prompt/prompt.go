// Package prompt provides the interactive collaborators the console core
// depends on: confirmations, notices, a directory chooser and a link opener.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Confirmer asks a blocking yes/no question.
type Confirmer interface {
	Confirm(message string) bool
}

// Notifier shows a blocking notice.
type Notifier interface {
	Notify(message string)
}

// DirChooser asks the user for a directory. ok is false when the user
// cancelled.
type DirChooser interface {
	ChooseDir(ctx context.Context, title string) (dir string, ok bool, err error)
}

// LinkOpener opens a URL outside the application. Callers never wait on
// the result beyond the returned error.
type LinkOpener interface {
	Open(url string) error
}

// Terminal implements Confirmer, Notifier and DirChooser on a line-based
// reader and writer, normally stdin and stdout.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
	// AssumeYes answers every confirmation with yes without reading input.
	AssumeYes bool
}

// NewTerminal creates a Terminal reading from in and writing to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// Stdio returns a Terminal bound to the process's stdin and stdout.
func Stdio() *Terminal {
	return NewTerminal(os.Stdin, os.Stdout)
}

// Confirm prints message and accepts "y" or "yes".
func (t *Terminal) Confirm(message string) bool {
	if t.AssumeYes {
		return true
	}
	fmt.Fprintf(t.out, "%s [y/N]: ", message)

	response, err := t.in.ReadString('\n')
	if err != nil && response == "" {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// Notify prints message on its own line.
func (t *Terminal) Notify(message string) {
	fmt.Fprintln(t.out, message)
}

// ChooseDir prompts for a path. An empty answer cancels.
func (t *Terminal) ChooseDir(ctx context.Context, title string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	fmt.Fprintf(t.out, "%s (empty to cancel): ", title)

	response, err := t.in.ReadString('\n')
	if err != nil && response == "" {
		if err == io.EOF {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read directory: %w", err)
	}

	dir := strings.TrimSpace(response)
	if dir == "" {
		return "", false, nil
	}
	return expandHome(dir), true, nil
}

// Ask prints message and returns the trimmed answer. io.EOF is returned
// once input is exhausted.
func (t *Terminal) Ask(message string) (string, error) {
	fmt.Fprint(t.out, message)

	response, err := t.in.ReadString('\n')
	if err != nil && response == "" {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

// FixedDir is a DirChooser that returns a preset answer, used for
// non-interactive --dir flags.
type FixedDir string

// ChooseDir returns the preset directory; an empty one counts as cancelled.
func (d FixedDir) ChooseDir(context.Context, string) (string, bool, error) {
	if d == "" {
		return "", false, nil
	}
	return expandHome(string(d)), true, nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + p[1:]
		}
	}
	return p
}

// Browser opens links with the platform's default handler.
type Browser struct{}

// Open launches the handler and returns without waiting for it to exit.
func (Browser) Open(url string) error {
	name, args := openCommand(runtime.GOOS, url)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	go cmd.Wait() //nolint:errcheck
	return nil
}

func openCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}
