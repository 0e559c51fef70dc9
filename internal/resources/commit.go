package resources

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/resgen/internal/errors"
)

// commit copies staged images to their output paths. A task whose copy
// fails stays out of the config merge.
func (r *Run) commit() {
	for _, t := range r.active() {
		if t.StagingPath == "" {
			continue
		}
		if err := copyFile(t.StagingPath, t.OutputPath); err != nil {
			r.skip(t, OutcomeFailed, DiagCommitFailed,
				errors.Wrap(errors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to write %s", t.OutputPath), err))
			continue
		}
		t.Valid = true
		t.Outcome = OutcomeGenerated
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	return writeFileAtomic(dst, in)
}

// writeFileAtomic writes r to path through a temp file in the same
// directory, so a failed copy never leaves a truncated image behind.
func writeFileAtomic(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		cleanup()
		return err
	}
	return nil
}
