package flow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cp "github.com/otiai10/copy"
	"github.com/pkg/errors"
)

// ScratchpadDir is the scratchpad key holding the work area of a run
const ScratchpadDir = "abc.dir"

const (
	workAreaPattern = "logicmap-abc-"
	maxDirName      = 252
)

var dirNameReplacer = strings.NewReplacer("'", "-", "$", "-", `\`, "-")

// UnitDir returns the work directory of unit idx of a module
func UnitDir(workArea, module string, idx int) string {
	name := strings.TrimLeft(dirNameReplacer.Replace(module), "-")
	if len(name) > maxDirName {
		name = name[:maxDirName]
	}
	return filepath.Join(workArea, fmt.Sprintf("%s_%d", name, idx))
}

// newWorkArea creates a fresh work area below topDir
func newWorkArea(topDir string) (string, error) {
	if err := os.MkdirAll(topDir, 0755); err != nil {
		return "", errors.Wrapf(err, "creating %s", topDir)
	}
	dir, err := os.MkdirTemp(topDir, workAreaPattern)
	if err != nil {
		return "", errors.Wrapf(err, "creating work area in %s", topDir)
	}
	return dir, nil
}

// release archives the work area if requested and removes it unless it
// must be kept. It returns true when the directory still exists.
func (mp *Mapper) release(workArea string, keep bool) (bool, error) {
	if mp.opts.ArchiveDir != "" {
		dst := filepath.Join(mp.opts.ArchiveDir, filepath.Base(workArea))
		if err := cp.Copy(workArea, dst); err != nil {
			return true, errors.Wrapf(err, "archiving %s", workArea)
		}
		mp.logger.Info("Archived work area to %s.", dst)
	}

	if keep || mp.opts.NoCleanup {
		return true, nil
	}
	mp.logger.Debug("Removing temp directory.")
	if err := os.RemoveAll(workArea); err != nil {
		return true, errors.Wrapf(err, "removing %s", workArea)
	}
	return false, nil
}
