package resources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/resgen/internal/appconfig"
	"github.com/felixgeelhaar/resgen/internal/catalog"
	"github.com/felixgeelhaar/resgen/internal/errors"
	"github.com/felixgeelhaar/resgen/internal/fingerprint"
	"github.com/felixgeelhaar/resgen/internal/log"
	"github.com/felixgeelhaar/resgen/internal/metrics"
	"github.com/felixgeelhaar/resgen/internal/remote"
)

const minimalConfig = `<?xml version='1.0' encoding='utf-8'?>
<widget id="io.example.app" version="1.0.0" xmlns="http://www.w3.org/ns/widgets">
    <name>Example</name>
</widget>
`

// fakeService is an in-memory image service.
type fakeService struct {
	info         remote.ImageInfo
	infos        map[string]remote.ImageInfo
	uploadErrs   map[string]error
	uploadErr    error
	transformErr func(req remote.TransformRequest) error
	delay        time.Duration

	uploads     atomic.Int32
	transforms  atomic.Int32
	outstanding atomic.Int32
	peak        atomic.Int32

	mu    sync.Mutex
	names []string
}

func newFakeService(width, height int) *fakeService {
	return &fakeService{info: remote.ImageInfo{Width: width, Height: height}}
}

func (f *fakeService) Upload(ctx context.Context, imageID, path string) (*remote.ImageInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.uploads.Add(1)
	if err := f.uploadErrs[imageID]; err != nil {
		return nil, err
	}
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if info, ok := f.infos[imageID]; ok {
		return &info, nil
	}
	info := f.info
	return &info, nil
}

func (f *fakeService) Transform(ctx context.Context, req remote.TransformRequest, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.transforms.Add(1)
	cur := f.outstanding.Add(1)
	defer f.outstanding.Add(-1)
	for {
		peak := f.peak.Load()
		if cur <= peak || f.peak.CompareAndSwap(peak, cur) {
			break
		}
	}

	f.mu.Lock()
	f.names = append(f.names, req.Name)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.transformErr != nil {
		if err := f.transformErr(req); err != nil {
			w.Write([]byte("partial"))
			return err
		}
	}
	_, err := fmt.Fprintf(w, "png %s %dx%d", req.ImageID, req.Width, req.Height)
	return err
}

type project struct {
	dir string
}

func newProject(t *testing.T, config string, platforms ...string) *project {
	t.Helper()
	dir := t.TempDir()
	if config != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, appconfig.FileName), []byte(config), 0o644))
	}
	for _, p := range platforms {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, PlatformsDir, p), 0o755))
	}
	return &project{dir: dir}
}

func (p *project) writeSource(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(p.dir, "resources", rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (p *project) path(parts ...string) string {
	return filepath.Join(append([]string{p.dir}, parts...)...)
}

func (p *project) config(t *testing.T) *appconfig.Document {
	t.Helper()
	doc, err := appconfig.Load(p.path(appconfig.FileName))
	require.NoError(t, err)
	return doc
}

func (p *project) options(t *testing.T) Options {
	return Options{ProjectDir: p.dir, StagingRoot: t.TempDir()}
}

func newPipeline(t *testing.T, svc ImageService) *Pipeline {
	t.Helper()
	_, m := metrics.NewRegistry()
	return &Pipeline{
		Service: svc,
		Cache:   fingerprint.NewCache(t.TempDir()),
		Metrics: m,
		Logger:  log.Discard(),
		APIURL:  "http://image-service.test",
	}
}

func TestAndroidIconOnly(t *testing.T) {
	proj := newProject(t, minimalConfig, "android")
	proj.writeSource(t, "icon.png", "icon-artwork")
	svc := newFakeService(512, 512)

	opts := proj.options(t)
	opts.Icon = true

	report, err := newPipeline(t, svc).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 6, report.Generated)
	assert.Zero(t, report.Skipped)
	assert.Equal(t, []string{"android"}, report.Platforms)
	assert.Equal(t, int32(1), svc.uploads.Load())
	assert.Equal(t, int32(6), svc.transforms.Load())

	entries, err := os.ReadDir(proj.path("resources", "android", "icon"))
	require.NoError(t, err)
	assert.Len(t, entries, 6)
	assert.NoDirExists(t, proj.path("resources", "android", "splash"))

	doc := proj.config(t)
	assert.Len(t, doc.Nodes("android", "icon"), 6)
	assert.Empty(t, doc.Nodes("android", "splash"))

	icon, ok := doc.DefaultIcon()
	require.True(t, ok)
	assert.Equal(t, "resources/android/icon/drawable-xhdpi-icon.png", icon)
	assert.Equal(t, icon, report.DefaultIcon)
	assert.True(t, report.ConfigChanged)

	_, ok = doc.Preference(appconfig.PrefSplashScreen)
	assert.False(t, ok)
}

func TestSplashBothOrientationsByDefault(t *testing.T) {
	proj := newProject(t, minimalConfig, "android")
	proj.writeSource(t, "splash.png", "splash-artwork")

	opts := proj.options(t)
	opts.Splash = true

	report, err := newPipeline(t, newFakeService(2732, 2732)).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 12, report.Generated)
	assert.FileExists(t, proj.path("resources", "android", "splash", "drawable-land-hdpi-screen.png"))
	assert.FileExists(t, proj.path("resources", "android", "splash", "drawable-port-hdpi-screen.png"))

	doc := proj.config(t)
	assert.Len(t, doc.Nodes("android", "splash"), 12)
	v, ok := doc.Preference(appconfig.PrefSplashScreen)
	require.True(t, ok)
	assert.Equal(t, SplashScreenValue, v)
	v, ok = doc.Preference(appconfig.PrefSplashScreenDelay)
	require.True(t, ok)
	assert.Equal(t, SplashScreenDelayValue, v)
	_, ok = doc.DefaultIcon()
	assert.False(t, ok)
}

func TestOrientation(t *testing.T) {
	portraitConfig := `<widget><preference name="Orientation" value="portrait" /></widget>`

	tests := []struct {
		name         string
		config       string
		landscape    bool
		portrait     bool
		wantFiltered int
		wantPrefix   string
	}{
		{"preference", portraitConfig, false, false, 6, "drawable-port-"},
		{"flag overrides preference", portraitConfig, true, false, 6, "drawable-land-"},
		{"both flags", portraitConfig, true, true, 0, "drawable-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proj := newProject(t, tt.config, "android")
			proj.writeSource(t, "splash.png", "splash")

			opts := proj.options(t)
			opts.Splash = true
			opts.Landscape = tt.landscape
			opts.Portrait = tt.portrait

			report, err := newPipeline(t, newFakeService(4000, 4000)).Run(context.Background(), opts)
			require.NoError(t, err)

			assert.Equal(t, tt.wantFiltered, report.Filtered)
			assert.Equal(t, 12-tt.wantFiltered, report.Generated)
			for _, out := range report.Outputs {
				assert.Contains(t, out.Name, tt.wantPrefix)
			}
		})
	}
}

func TestSmallSourceSkipsOnlyLargerOutputs(t *testing.T) {
	proj := newProject(t, minimalConfig, "android")
	proj.writeSource(t, "icon.png", "tiny")
	svc := newFakeService(100, 100)

	opts := proj.options(t)
	opts.Icon = true

	report, err := newPipeline(t, svc).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Generated)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, int32(4), svc.transforms.Load())
	assert.NoFileExists(t, proj.path("resources", "android", "icon", "drawable-xxxhdpi-icon.png"))

	var files []string
	for _, d := range report.Diagnostics {
		if d.Kind == DiagTooSmall {
			files = append(files, d.File)
			assert.Contains(t, d.String(), "too small")
			assert.Equal(t, errors.ErrCodeSourceTooSmall, d.Code)
		}
	}
	assert.ElementsMatch(t, []string{"drawable-xxhdpi-icon.png", "drawable-xxxhdpi-icon.png"}, files)
}

func TestCachedSmallSourceMakesNoNetworkCalls(t *testing.T) {
	proj := newProject(t, minimalConfig, "android")
	proj.writeSource(t, "icon.png", "cached-artwork")
	svc := newFakeService(4096, 4096)
	p := newPipeline(t, svc)
	require.NoError(t, p.Cache.Store(fingerprint.Sum([]byte("cached-artwork")), fingerprint.Entry{Width: 20, Height: 20}))

	opts := proj.options(t)
	opts.Icon = true

	report, err := p.Run(context.Background(), opts)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNoOutput))

	assert.Zero(t, svc.uploads.Load())
	assert.Zero(t, svc.transforms.Load())
	assert.Equal(t, 6, report.Skipped)
	assert.Equal(t, float64(1), testutil.ToFloat64(p.Metrics.CacheHits))
	assert.Equal(t, minimalConfig, readFile(t, proj.path(appconfig.FileName)))
}

func TestRunIsIdempotent(t *testing.T) {
	proj := newProject(t, minimalConfig, "android", "ios")
	proj.writeSource(t, "icon.png", "icon")
	proj.writeSource(t, "splash.png", "splash")
	svc := newFakeService(4096, 4096)
	p := newPipeline(t, svc)

	first, err := p.Run(context.Background(), proj.options(t))
	require.NoError(t, err)
	assert.True(t, first.ConfigChanged)
	configAfterFirst := readFile(t, proj.path(appconfig.FileName))
	outputsAfterFirst := snapshot(t, proj.path("resources"))

	second, err := p.Run(context.Background(), proj.options(t))
	require.NoError(t, err)

	assert.False(t, second.ConfigChanged)
	assert.Equal(t, first.Generated, second.Generated)
	assert.Equal(t, configAfterFirst, readFile(t, proj.path(appconfig.FileName)))
	assert.Equal(t, outputsAfterFirst, snapshot(t, proj.path("resources")))
	assert.Equal(t, int32(2), svc.uploads.Load(), "second run must reuse cached uploads")

	doc := proj.config(t)
	assert.Len(t, doc.Nodes("android", "icon"), 6)
	assert.Len(t, doc.Nodes("ios", "splash"), 13)
}

func TestDebugLoggingListsResolvedSources(t *testing.T) {
	messages := func(t *testing.T, level log.Level) map[string][]map[string]any {
		proj := newProject(t, minimalConfig, "android")
		proj.writeSource(t, "icon.png", "icon")
		proj.writeSource(t, "splash.png", "splash")

		var buf bytes.Buffer
		p := newPipeline(t, newFakeService(4096, 4096))
		p.Logger = log.New(log.Config{Level: level, Format: log.FormatJSON, Output: log.NewOutput(&buf)})
		_, err := p.Run(context.Background(), proj.options(t))
		require.NoError(t, err)

		byMsg := map[string][]map[string]any{}
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			var entry map[string]any
			require.NoError(t, json.Unmarshal([]byte(line), &entry))
			msg, _ := entry["msg"].(string)
			byMsg[msg] = append(byMsg[msg], entry)
		}
		return byMsg
	}

	debug := messages(t, log.LevelDebug)
	require.Len(t, debug["resolved source"], 2)
	for _, entry := range debug["resolved source"] {
		assert.NotEmpty(t, entry["fingerprint"])
		assert.Contains(t, entry["path"], "resources")
	}
	assert.Len(t, debug["starting resource generation"], 1)

	info := messages(t, log.LevelInfo)
	assert.Empty(t, info["resolved source"])
	assert.Len(t, info["resource generation finished"], 1)
}

func TestTransformConcurrencyLimit(t *testing.T) {
	proj := newProject(t, minimalConfig, "ios")
	proj.writeSource(t, "icon.png", "icon")
	svc := newFakeService(1024, 1024)
	svc.delay = 10 * time.Millisecond
	p := newPipeline(t, svc)

	opts := proj.options(t)
	opts.Icon = true
	opts.Concurrency = 2

	report, err := p.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 19, report.Generated)
	assert.LessOrEqual(t, svc.peak.Load(), int32(2))
	assert.Positive(t, svc.peak.Load())
	assert.Zero(t, svc.outstanding.Load())
	// icon-40@3x.png and icon-60@2x.png are both 120x120 and share one request.
	assert.Equal(t, int32(18), svc.transforms.Load())
	assert.Equal(t, float64(18), testutil.ToFloat64(p.Metrics.TransformRequests.WithLabelValues("ios", "true")))
	assert.FileExists(t, proj.path("resources", "ios", "icon", "icon-40@3x.png"))
	assert.FileExists(t, proj.path("resources", "ios", "icon", "icon-60@2x.png"))
}

func TestMissingSourceForOneCategory(t *testing.T) {
	proj := newProject(t, minimalConfig, "android", "ios")
	proj.writeSource(t, "android/icon.png", "android-only")

	opts := proj.options(t)
	opts.Icon = true

	report, err := newPipeline(t, newFakeService(512, 512)).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 6, report.Generated)
	assert.Equal(t, 19, report.Skipped)

	var missing []Diagnostic
	for _, d := range report.Diagnostics {
		if d.Kind == DiagMissingSource {
			missing = append(missing, d)
		}
	}
	require.Len(t, missing, 1)
	assert.Equal(t, "ios", missing[0].Platform)
	assert.Contains(t, missing[0].Message, "icon.png")
	assert.Contains(t, missing[0].Message, "icon.svg")
}

func TestPlatformSpecificSourceWins(t *testing.T) {
	proj := newProject(t, minimalConfig, "android")
	proj.writeSource(t, "icon.png", "shared")
	proj.writeSource(t, "android/icon.svg", "<svg/>")
	svc := newFakeService(10, 10)
	svc.infos = map[string]remote.ImageInfo{
		fingerprint.Sum([]byte("<svg/>")): {Vector: true},
	}

	opts := proj.options(t)
	opts.Icon = true

	report, err := newPipeline(t, svc).Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Generated, "vector source covers every size")
}

func TestSharedSourceUploadedOnce(t *testing.T) {
	proj := newProject(t, minimalConfig, "android", "ios", "wp8")
	proj.writeSource(t, "icon.png", "shared")
	proj.writeSource(t, "wp8/icon.png", "shared")
	svc := newFakeService(1024, 1024)

	opts := proj.options(t)
	opts.Icon = true

	_, err := newPipeline(t, svc).Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, int32(1), svc.uploads.Load())
}

func TestUnknownPlatformArgument(t *testing.T) {
	proj := newProject(t, minimalConfig)
	proj.writeSource(t, "icon.png", "icon")

	opts := proj.options(t)
	opts.Icon = true
	opts.Platforms = []string{"Android", "blackberry10"}

	report, err := newPipeline(t, newFakeService(512, 512)).Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"android"}, report.Platforms)
	require.NotEmpty(t, report.Diagnostics)
	assert.Equal(t, DiagUnknownPlatform, report.Diagnostics[0].Kind)
}

func TestRunFatalErrors(t *testing.T) {
	tests := []struct {
		name     string
		config   string
		wantCode errors.ErrorCode
	}{
		{"missing config", "", errors.ErrCodeConfigNotFound},
		{"invalid config", "<widget><platform></widget>", errors.ErrCodeConfigInvalid},
		{"not a widget", "<manifest/>", errors.ErrCodeConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proj := newProject(t, tt.config, "android")
			proj.writeSource(t, "icon.png", "icon")

			report, err := newPipeline(t, newFakeService(512, 512)).Run(context.Background(), proj.options(t))
			require.Error(t, err)
			assert.Nil(t, report)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			assert.NoDirExists(t, proj.path("resources", "android"))
		})
	}

	t.Run("no platforms", func(t *testing.T) {
		proj := newProject(t, minimalConfig)
		_, err := newPipeline(t, newFakeService(1, 1)).Run(context.Background(), proj.options(t))
		assert.True(t, errors.HasCode(err, errors.ErrCodeNoPlatforms))
	})
}

func TestUploadUnreachableIsFatal(t *testing.T) {
	proj := newProject(t, minimalConfig, "android")
	proj.writeSource(t, "icon.png", "icon")
	svc := newFakeService(512, 512)
	svc.uploadErr = fmt.Errorf("/api/v1/upload: %w: connection refused", remote.ErrUnreachable)

	_, err := newPipeline(t, svc).Run(context.Background(), proj.options(t))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNetworkUnreachable, errors.CodeOf(err))
	assert.Zero(t, svc.transforms.Load())
	assert.Equal(t, minimalConfig, readFile(t, proj.path(appconfig.FileName)))
}

func TestUploadFailureSkipsOnlyDependentTasks(t *testing.T) {
	proj := newProject(t, minimalConfig, "android", "ios")
	proj.writeSource(t, "android/icon.png", "android-art")
	proj.writeSource(t, "icon.png", "shared-art")
	svc := newFakeService(1024, 1024)
	svc.uploadErrs = map[string]error{
		fingerprint.Sum([]byte("android-art")): &remote.StatusError{Op: "upload", StatusCode: 500},
	}

	opts := proj.options(t)
	opts.Icon = true

	report, err := newPipeline(t, svc).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 19, report.Generated)
	assert.Equal(t, 6, report.Failed)
	assert.Empty(t, proj.config(t).Nodes("android", "icon"))
	assert.Len(t, proj.config(t).Nodes("ios", "icon"), 19)
}

func TestUploadFailureDiagnosesEachTask(t *testing.T) {
	proj := newProject(t, minimalConfig, "android", "ios")
	proj.writeSource(t, "android/icon.png", "android-art")
	proj.writeSource(t, "icon.png", "shared-art")
	svc := newFakeService(1024, 1024)
	svc.uploadErrs = map[string]error{
		fingerprint.Sum([]byte("android-art")): &remote.StatusError{Op: "upload", StatusCode: 404},
	}

	opts := proj.options(t)
	opts.Icon = true

	report, err := newPipeline(t, svc).Run(context.Background(), opts)
	require.NoError(t, err)

	var files []string
	for _, d := range report.Diagnostics {
		if d.Kind != DiagUploadFailed {
			continue
		}
		assert.Equal(t, "android", d.Platform)
		assert.Equal(t, "icon", d.Category)
		assert.Equal(t, errors.ErrCodeUploadFailed, d.Code)
		assert.Positive(t, d.Width)
		assert.Positive(t, d.Height)
		assert.Contains(t, d.Message, "icon.png")
		assert.Contains(t, d.String(), d.File)
		files = append(files, d.File)
	}

	want := make([]string, 0, 6)
	for _, spec := range catalog.SpecsFor("android", catalog.Icon) {
		want = append(want, spec.Name)
	}
	assert.ElementsMatch(t, want, files)
}

func TestTransformPartialFailure(t *testing.T) {
	proj := newProject(t, minimalConfig, "android")
	proj.writeSource(t, "icon.png", "icon")
	svc := newFakeService(1024, 1024)
	svc.transformErr = func(req remote.TransformRequest) error {
		if req.Name == "drawable-xxxhdpi-icon.png" {
			return &remote.StatusError{Op: "transform", StatusCode: 502}
		}
		return nil
	}

	opts := proj.options(t)
	opts.Icon = true

	report, err := newPipeline(t, svc).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Generated)
	assert.Equal(t, 1, report.Failed)
	assert.NoFileExists(t, proj.path("resources", "android", "icon", "drawable-xxxhdpi-icon.png"))
	assert.Len(t, proj.config(t).Nodes("android", "icon"), 5)
}

func TestTransformAllFailed(t *testing.T) {
	proj := newProject(t, minimalConfig, "android")
	proj.writeSource(t, "icon.png", "icon")
	svc := newFakeService(1024, 1024)
	svc.transformErr = func(remote.TransformRequest) error {
		return &remote.StatusError{Op: "transform", StatusCode: 500}
	}

	opts := proj.options(t)
	opts.Icon = true

	report, err := newPipeline(t, svc).Run(context.Background(), opts)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTransformAllFailed, errors.CodeOf(err))
	require.NotNil(t, report)
	assert.Equal(t, 6, report.Failed)

	entries, err := os.ReadDir(opts.StagingRoot)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging directory must be removed")
}

func TestStagingDirectoryRemoved(t *testing.T) {
	proj := newProject(t, minimalConfig, "wp8")
	proj.writeSource(t, "icon.png", "icon")

	opts := proj.options(t)
	opts.Icon = true

	_, err := newPipeline(t, newFakeService(512, 512)).Run(context.Background(), opts)
	require.NoError(t, err)

	entries, err := os.ReadDir(opts.StagingRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCanceledRun(t *testing.T) {
	proj := newProject(t, minimalConfig, "android")
	proj.writeSource(t, "icon.png", "icon")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPipeline(t, newFakeService(512, 512)).Run(ctx, proj.options(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStaleDeclarationsRemoved(t *testing.T) {
	config := `<widget>
    <platform name="android">
        <icon src="resources/android/icon/drawable-old-icon.png" density="old" />
        <icon src="resources/android/icon/drawable-mdpi-icon.png" density="mdpi" />
        <icon src="resources/android/icon/drawable-mdpi-icon.png" density="mdpi" />
        <icon src="custom/launcher.png" density="mdpi" />
    </platform>
</widget>
`
	proj := newProject(t, config, "android")
	proj.writeSource(t, "icon.png", "icon")

	opts := proj.options(t)
	opts.Icon = true

	_, err := newPipeline(t, newFakeService(512, 512)).Run(context.Background(), opts)
	require.NoError(t, err)

	nodes := proj.config(t).Nodes("android", "icon")
	assert.Len(t, nodes, 7)
	assert.Contains(t, nodes, "custom/launcher.png")
	assert.NotContains(t, nodes, "resources/android/icon/drawable-old-icon.png")
}

func TestConcurrentRunsDoNotInterfere(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		proj := newProject(t, minimalConfig, "android")
		proj.writeSource(t, "icon.png", fmt.Sprintf("icon-%d", i))
		opts := proj.options(t)
		opts.Icon = true
		p := newPipeline(t, newFakeService(512, 512))

		wg.Add(1)
		go func() {
			defer wg.Done()
			report, err := p.Run(context.Background(), opts)
			assert.NoError(t, err)
			if report != nil {
				assert.Equal(t, 6, report.Generated)
			}
		}()
	}
	wg.Wait()
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// snapshot maps every file under root to its contents.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		files[rel] = readFile(t, path)
		return nil
	})
	require.NoError(t, err)
	return files
}
