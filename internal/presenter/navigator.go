package presenter

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// PrintNavigator writes the chosen location as "file:line" or "file".
type PrintNavigator struct {
	w io.Writer
}

// NewPrintNavigator creates a PrintNavigator writing to w.
func NewPrintNavigator(w io.Writer) *PrintNavigator {
	return &PrintNavigator{w: w}
}

// Navigate implements Navigator.
func (n *PrintNavigator) Navigate(_ context.Context, file string, line uint32) error {
	if line > 0 {
		_, err := fmt.Fprintf(n.w, "%s:%d\n", file, line)
		return err
	}
	_, err := fmt.Fprintln(n.w, file)
	return err
}

// ExecNavigator runs an editor command built from a template in which
// {file} and {line} are substituted, e.g. "vim +{line} {file}".
type ExecNavigator struct {
	template string
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
}

// NewExecNavigator creates an ExecNavigator attached to the process's
// standard streams.
func NewExecNavigator(template string) *ExecNavigator {
	return &ExecNavigator{
		template: template,
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
}

// DefaultEditorTemplate derives a command template from $VISUAL or $EDITOR.
// It returns "" when neither is set.
func DefaultEditorTemplate() string {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		return ""
	}
	return editor + " +{line} {file}"
}

// Command returns the argv for opening file at line. A missing line
// becomes 1.
func (n *ExecNavigator) Command(file string, line uint32) []string {
	if line == 0 {
		line = 1
	}
	fields := strings.Fields(n.template)
	args := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, "{file}", file)
		f = strings.ReplaceAll(f, "{line}", strconv.FormatUint(uint64(line), 10))
		args = append(args, f)
	}
	return args
}

// Navigate implements Navigator.
func (n *ExecNavigator) Navigate(ctx context.Context, file string, line uint32) error {
	args := n.Command(file, line)
	if len(args) == 0 {
		return fmt.Errorf("no editor command configured")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = n.stdin
	cmd.Stdout = n.stdout
	cmd.Stderr = n.stderr
	return cmd.Run()
}
