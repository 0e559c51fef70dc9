// Package fingerprint computes content fingerprints for source artwork and
// keeps a small file-backed cache of what the image service reported for them.
package fingerprint

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// Sum returns the fingerprint of data: a 16 character hex xxhash64 digest.
func Sum(data []byte) string {
	return format(xxhash.Sum64(data))
}

// File fingerprints the contents of the file at path without loading it
// into memory at once.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d := xxhash.New()
	if _, err := io.Copy(d, f); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return format(d.Sum64()), nil
}

func format(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}

// Valid reports whether token has the shape Sum produces.
func Valid(token string) bool {
	if len(token) != 16 {
		return false
	}
	for _, r := range token {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
