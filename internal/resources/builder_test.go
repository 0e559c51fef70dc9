package resources

import (
	stderrors "errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/resgen/internal/catalog"
	"github.com/felixgeelhaar/resgen/internal/errors"
	"github.com/felixgeelhaar/resgen/internal/log"
)

func TestOptionsCategories(t *testing.T) {
	assert.Equal(t, catalog.Categories, Options{}.Categories())
	assert.Equal(t, catalog.Categories, Options{Icon: true, Splash: true}.Categories())
	assert.Equal(t, []catalog.Category{catalog.Icon}, Options{Icon: true}.Categories())
	assert.Equal(t, []catalog.Category{catalog.Splash}, Options{Splash: true}.Categories())
}

func TestOrientations(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		preference string
		wantLand   bool
		wantPort   bool
	}{
		{"no preference", Options{}, "", true, true},
		{"default preference", Options{}, "default", true, true},
		{"landscape preference", Options{}, "landscape", true, false},
		{"portrait preference", Options{}, "Portrait", false, true},
		{"flag wins", Options{Landscape: true}, "portrait", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			land, port := tt.opts.orientations(tt.preference)
			assert.Equal(t, tt.wantLand, land)
			assert.Equal(t, tt.wantPort, port)
		})
	}
}

func TestBuildTasksAutoDetectsPlatforms(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"ios", "android", "browser"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, PlatformsDir, p), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, PlatformsDir, "platforms.json"), []byte("{}"), 0o644))

	r := NewRun(Options{ProjectDir: dir}, log.Discard())
	require.NoError(t, r.resolvePlatforms())
	assert.Equal(t, []string{"android", "ios"}, r.Platforms)

	require.NoError(t, r.buildTasks(""))
	assert.Len(t, r.Tasks, 6+12+19+13)
	assert.DirExists(t, filepath.Join(dir, "resources", "android", "icon"))
	assert.DirExists(t, filepath.Join(dir, "resources", "ios", "splash"))

	first := r.Tasks[0]
	assert.Equal(t, "resources/android/icon/drawable-ldpi-icon.png", first.Src)
	assert.Equal(t, filepath.Join(dir, "resources", "android", "icon", "drawable-ldpi-icon.png"), first.OutputPath)
	assert.False(t, first.Skip)
}

func TestSrcWithAbsoluteResourcesDir(t *testing.T) {
	dir := t.TempDir()
	r := NewRun(Options{ProjectDir: dir, ResourcesDir: filepath.Join(dir, "art")}, log.Discard())
	assert.Equal(t, "art/ios/splash/Default~iphone.png", r.src("ios", catalog.Splash, "Default~iphone.png"))
}

func TestSourceCandidatesOrder(t *testing.T) {
	got := SourceCandidates("res", "ios", catalog.Splash)
	assert.Equal(t, []string{
		filepath.Join("res", "ios", "splash.png"),
		filepath.Join("res", "ios", "splash.psd"),
		filepath.Join("res", "ios", "splash.ai"),
		filepath.Join("res", "ios", "splash.svg"),
		filepath.Join("res", "splash.png"),
		filepath.Join("res", "splash.psd"),
		filepath.Join("res", "splash.ai"),
		filepath.Join("res", "splash.svg"),
	}, got)
}

func TestNewRunIDsAreUnique(t *testing.T) {
	a := NewRun(Options{}, nil)
	b := NewRun(Options{}, nil)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, DefaultConcurrency, a.Options.Concurrency)
	assert.Equal(t, DefaultResourcesDir, a.Options.ResourcesDir)
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Platform: "android", Category: "icon", File: "drawable-xxxhdpi-icon.png", Width: 192, Height: 192, Message: "source icon.png is 100x100, too small for 192x192"}
	assert.Equal(t, "android icon drawable-xxxhdpi-icon.png (192x192): source icon.png is 100x100, too small for 192x192", d.String())
	assert.Equal(t, "ios splash: missing", Diagnostic{Platform: "ios", Category: "splash", Message: "missing"}.String())
	assert.Equal(t, "boom", Diagnostic{Message: "boom"}.String())
}

func TestWriteDefaults(t *testing.T) {
	dir := t.TempDir()
	opts := Options{ProjectDir: dir}

	result, err := WriteDefaults(opts, false)
	require.NoError(t, err)
	assert.Len(t, result.Written, 2)
	assert.Empty(t, result.Kept)

	assertPNGSize(t, filepath.Join(dir, "resources", "icon.png"), DefaultIconSize)
	assertPNGSize(t, filepath.Join(dir, "resources", "splash.png"), DefaultSplashSize)

	custom := filepath.Join(dir, "resources", "icon.png")
	require.NoError(t, os.WriteFile(custom, []byte("mine"), 0o644))

	result, err = WriteDefaults(opts, false)
	require.NoError(t, err)
	assert.Empty(t, result.Written)
	assert.Len(t, result.Kept, 2)
	assert.Equal(t, "mine", readFile(t, custom))

	result, err = WriteDefaults(opts, true)
	require.NoError(t, err)
	assert.Len(t, result.Written, 2)
	assertPNGSize(t, custom, DefaultIconSize)
}

func assertPNGSize(t *testing.T, path string, size int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, size, cfg.Width)
	assert.Equal(t, size, cfg.Height)
}

func TestUnreadableSourceDiagnosesEachTask(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "resources", "icon.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("icon"), 0o000))

	r := NewRun(Options{ProjectDir: dir, Platforms: []string{"android"}, Icon: true}, log.Discard())
	require.NoError(t, r.resolvePlatforms())
	require.NoError(t, r.buildTasks(""))
	r.resolveSources()

	require.Len(t, r.Diagnostics, 6)
	for _, d := range r.Diagnostics {
		assert.Equal(t, DiagSourceRead, d.Kind)
		assert.Equal(t, errors.ErrCodeSourceRead, d.Code)
		assert.Equal(t, "android", d.Platform)
		assert.NotEmpty(t, d.File)
		assert.Positive(t, d.Width)
	}
	assert.Empty(t, r.active())
}

func TestSkipRecordsCodedDiagnostic(t *testing.T) {
	r := NewRun(Options{}, log.Discard())
	task := &Task{Spec: catalog.SpecsFor("ios", catalog.Splash)[0]}

	cause := stderrors.New("permission denied")
	r.skip(task, OutcomeFailed, DiagSourceRead, errors.Wrap(errors.ErrCodeSourceRead, "failed to read source splash.png", cause))

	assert.True(t, task.Skip)
	assert.Equal(t, OutcomeFailed, task.Outcome)
	require.Len(t, r.Diagnostics, 1)
	d := r.Diagnostics[0]
	assert.Equal(t, errors.ErrCodeSourceRead, d.Code)
	assert.Equal(t, task.Spec.Name, d.File)
	assert.Equal(t, task.Spec.Width, d.Width)
	assert.Equal(t, task.Spec.Height, d.Height)
	assert.Equal(t, "failed to read source splash.png: permission denied", d.Message)
}
