package abc

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/fyerfyer/logicmap/pkg/blif"
	"github.com/fyerfyer/logicmap/pkg/utils"
)

var timingPathRegex = regexp.MustCompile(`^Start-point = pi(\d+)\.  End-point = po(\d+)\.`)

// OutputFilter turns raw optimizer output into log lines. Terminal escape
// sequences and carriage-return overwrites are dropped, the work directory
// is hidden unless requested, and timing path reports are annotated with
// the names of the signals behind piN/poM.
type OutputFilter struct {
	logger  *utils.Logger
	tempDir string
	selfDir string
	showTmp bool
	ports   blif.Ports

	partial  []byte
	linebuf  []byte
	gotCR    bool
	escState int
}

// NewOutputFilter creates a filter logging through logger
func NewOutputFilter(logger *utils.Logger, tempDir string, showTmp bool, ports blif.Ports) *OutputFilter {
	f := &OutputFilter{
		logger:  logger,
		tempDir: tempDir,
		showTmp: showTmp,
		ports:   ports,
	}
	if exe, err := os.Executable(); err == nil {
		if dir := filepath.Dir(exe); dir != "/" {
			f.selfDir = dir + "/"
		}
	}
	return f
}

// Write splits p into lines and filters each complete line
func (f *OutputFilter) Write(p []byte) (int, error) {
	f.partial = append(f.partial, p...)
	for {
		i := strings.IndexByte(string(f.partial), '\n')
		if i < 0 {
			break
		}
		f.nextLine(string(f.partial[:i+1]))
		f.partial = f.partial[i+1:]
	}
	return len(p), nil
}

// Flush emits a trailing line without newline
func (f *OutputFilter) Flush() {
	if len(f.partial) > 0 {
		f.nextLine(string(f.partial) + "\n")
		f.partial = nil
	}
}

// ReplaceTempDir hides the work directory and executable location so the
// log is identical across runs
func (f *OutputFilter) ReplaceTempDir(text string) string {
	if f.showTmp {
		return text
	}
	if f.tempDir != "" {
		text = strings.ReplaceAll(text, f.tempDir, "<abc-temp-dir>")
	}
	if f.selfDir != "" {
		text = strings.ReplaceAll(text, f.selfDir, "<logicmap-exe-dir>/")
	}
	return text
}

func (f *OutputFilter) nextLine(line string) {
	if m := timingPathRegex.FindStringSubmatch(line); m != nil {
		pi, _ := strconv.Atoi(m[1])
		po, _ := strconv.Atoi(m[2])
		f.logger.ABC("Start-point = pi%d (%s).  End-point = po%d (%s).",
			pi, portName(f.ports.Inputs, pi), po, portName(f.ports.Outputs, po))
		return
	}
	for i := 0; i < len(line); i++ {
		f.nextChar(line[i])
	}
}

func (f *OutputFilter) nextChar(ch byte) {
	switch f.escState {
	case 0:
		if ch == '\033' {
			f.escState = 1
			return
		}
	case 1:
		if ch == '[' {
			f.escState = 2
		} else {
			f.escState = 0
		}
		return
	case 2:
		if (ch < '0' || ch > '9') && ch != ';' {
			f.escState = 0
		}
		return
	}

	switch ch {
	case '\r':
		f.gotCR = true
		return
	case '\n':
		f.logger.ABC("%s", f.ReplaceTempDir(string(f.linebuf)))
		f.gotCR = false
		f.linebuf = f.linebuf[:0]
		return
	}
	if f.gotCR {
		f.gotCR = false
		f.linebuf = f.linebuf[:0]
	}
	f.linebuf = append(f.linebuf, ch)
}

func portName(names map[int]string, idx int) string {
	if name, ok := names[idx]; ok {
		return name
	}
	return "???"
}
