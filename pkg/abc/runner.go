package abc

import (
	"fmt"
	"io"
	"os/exec"

	"github.com/pkg/errors"
)

// ErrToolFailed is returned when the optimizer exits with an error
var ErrToolFailed = errors.New("ABC execution failed")

// DefaultExe is the optimizer executable looked up in PATH
const DefaultExe = "yosys-abc"

// Runner executes an optimizer script. Output is streamed to out as it is
// produced.
type Runner interface {
	Run(scriptPath string, out io.Writer) error
}

// Exec runs an external optimizer binary
type Exec struct {
	Exe string
}

// NewExec creates a runner for the given executable
func NewExec(exe string) *Exec {
	if exe == "" {
		exe = DefaultExe
	}
	return &Exec{Exe: exe}
}

// CommandLine returns the command as it would be typed in a shell
func (e *Exec) CommandLine(scriptPath string) string {
	return fmt.Sprintf("%s -s -f %s", e.Exe, scriptPath)
}

// Run runs the optimizer and waits for it to exit
func (e *Exec) Run(scriptPath string, out io.Writer) error {
	cmd := exec.Command(e.Exe, "-s", "-f", scriptPath)
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return errors.Wrapf(ErrToolFailed, "command %q: return code %d", e.CommandLine(scriptPath), exitErr.ExitCode())
		}
		return errors.Wrapf(ErrToolFailed, "command %q: %v", e.CommandLine(scriptPath), err)
	}
	return nil
}
