package resources

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/felixgeelhaar/resgen/internal/catalog"
	"github.com/felixgeelhaar/resgen/internal/errors"
)

// Placeholder artwork sizes written by WriteDefaults. They cover every
// catalog output.
const (
	DefaultIconSize   = 1024
	DefaultSplashSize = 2732
)

var (
	placeholderBackground = color.RGBA{0x38, 0x80, 0xff, 0xff}
	placeholderMark       = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// DefaultResult lists what WriteDefaults did.
type DefaultResult struct {
	Written []string `json:"written" yaml:"written"`
	Kept    []string `json:"kept,omitempty" yaml:"kept,omitempty"`
}

// WriteDefaults writes placeholder icon and splash sources to the resource
// root. Existing sources are kept unless force is set.
func WriteDefaults(opts Options, force bool) (*DefaultResult, error) {
	opts = opts.withDefaults()
	root := opts.ResourceRoot()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDirectoryFailed, "failed to create resource directory", err)
	}

	result := &DefaultResult{}
	for _, d := range []struct {
		category catalog.Category
		size     int
		mark     int
	}{
		{catalog.Icon, DefaultIconSize, DefaultIconSize / 2},
		{catalog.Splash, DefaultSplashSize, DefaultSplashSize / 6},
	} {
		path := filepath.Join(root, string(d.category)+".png")
		if _, err := os.Stat(path); err == nil && !force {
			result.Kept = append(result.Kept, path)
			continue
		}
		if err := writePNG(path, placeholder(d.size, d.mark)); err != nil {
			return result, errors.Wrap(errors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to write %s", path), err)
		}
		result.Written = append(result.Written, path)
	}
	return result, nil
}

// placeholder draws a flat square canvas with a centered mark scaled up
// from a small glyph.
func placeholder(size, mark int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(placeholderBackground), image.Point{}, draw.Src)

	glyph := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if x == 0 || y == 0 || x == 7 || y == 7 || x == y || x == 7-y {
				glyph.Set(x, y, placeholderMark)
			}
		}
	}

	offset := (size - mark) / 2
	target := image.Rect(offset, offset, offset+mark, offset+mark)
	draw.NearestNeighbor.Scale(dst, target, glyph, glyph.Bounds(), draw.Over, nil)
	return dst
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, img); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
