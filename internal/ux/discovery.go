package ux

import (
	"os"
	"path/filepath"
)

// ProjectMarker is the file that identifies a project root.
const ProjectMarker = "config.xml"

// DiscoverProjectDir searches start and its parents for a directory holding
// config.xml. The search stops at a git root or the filesystem root; when
// nothing is found, start is returned.
func DiscoverProjectDir(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if _, err := os.Stat(filepath.Join(dir, ProjectMarker)); err == nil {
			return dir, nil
		}

		// Stop at git root
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return abs, nil
}
