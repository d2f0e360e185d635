package run

import (
	"context"
	"encoding/csv"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/imagecat/ai"
	"github.com/poiesic/imagecat/ai/mock"
	"github.com/poiesic/imagecat/catalog"
	"github.com/poiesic/imagecat/core"
	"github.com/poiesic/imagecat/storage/badger"
	"github.com/poiesic/imagecat/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noisePNG writes a grayscale noise image. Different seeds give images that
// are far apart perceptually.
func noisePNG(t *testing.T, path string, w, h int, seed int64) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func solidPNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// writeCatalog creates n distinct images and a CSV pointing at them.
// Even rows are landscape, odd rows portrait.
func writeCatalog(t *testing.T, dir string, n int) string {
	t.Helper()
	input := filepath.Join(dir, "catalog.csv")
	f, err := os.Create(input)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.Write([]string{"SKU", "Images", "Description"}))
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("img%02d.png", i))
		if i%2 == 0 {
			noisePNG(t, path, 48, 32, int64(i+1))
		} else {
			noisePNG(t, path, 32, 48, int64(i+1))
		}
		require.NoError(t, w.Write([]string{fmt.Sprintf("SKU-%d", i), path, fmt.Sprintf("product %d", i)}))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return input
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	cfg.RateLimitDelay = 0
	cfg.APITimeout = 5 * time.Second
	cfg.ResetWait = 2 * time.Second
	return cfg
}

func newTestRunner(t *testing.T, opts ...Option) *Runner {
	t.Helper()
	opts = append([]Option{WithConfig(testConfig())}, opts...)
	r, err := NewRunner(taxonomy.Default(), opts...)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}

func readOutput(t *testing.T, path string) *catalog.Table {
	t.Helper()
	table, err := catalog.ReadFile(path)
	require.NoError(t, err)
	return table
}

func TestNewRunner_RequiresTaxonomy(t *testing.T) {
	_, err := NewRunner(nil)
	assert.ErrorIs(t, err, ErrTaxonomyRequired)
}

func TestNewRunner_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchSize = 50
	_, err := NewRunner(taxonomy.Default(), WithConfig(cfg))
	assert.ErrorIs(t, err, ErrInvalidBatchSize)
}

func TestRunner_BatchSizeInvariance(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, 10)
	manual := []core.CategoryPath{"Category > Food + Beverage", "Copy Space > Large"}

	outputs := map[int]string{}
	for _, size := range []int{1, 10} {
		r := newTestRunner(t)
		out := filepath.Join(dir, fmt.Sprintf("out_%d.csv", size))
		snap, err := r.Run(context.Background(), Job{
			InputPath:  input,
			OutputPath: out,
			BatchSize:  size,
			Manual:     manual,
			Mode:       ModeMock,
		})
		require.NoError(t, err)
		assert.True(t, snap.Success)
		assert.True(t, snap.Complete)
		assert.Equal(t, 10, snap.Current)
		assert.Equal(t, 10, snap.Succeeded)
		outputs[size] = out
	}

	one, err := os.ReadFile(outputs[1])
	require.NoError(t, err)
	ten, err := os.ReadFile(outputs[10])
	require.NoError(t, err)
	assert.Equal(t, string(one), string(ten), "outputs must be byte-identical")

	table := readOutput(t, outputs[1])
	require.Equal(t, 10, table.Len())
	assert.Equal(t, []string{"SKU", "Images", "Description", "Categories"}, table.Header)
	for i := 0; i < table.Len(); i++ {
		cats := table.Record(i).Existing
		assert.Contains(t, cats, core.CategoryPath("Category > Food + Beverage"))
		if i%2 == 0 {
			assert.Contains(t, cats, core.PathHorizontal)
			assert.NotContains(t, cats, core.PathVertical)
		} else {
			assert.Contains(t, cats, core.PathVertical)
			assert.NotContains(t, cats, core.PathHorizontal)
		}
	}
}

func TestRunner_StopAfterThreeRows(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, 10)
	out := filepath.Join(dir, "out.csv")

	mc := mock.NewMockCategorizer()
	checkpoints, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	r := newTestRunner(t, WithProvider(mock.NewMockProviderWithCategorizer(mc)), WithCheckpoints(checkpoints))
	mc.CategorizeFunc = func(ctx context.Context, req ai.Request) (*core.Suggestion, error) {
		if mc.CallCount() == 3 {
			r.Stop()
		}
		return &core.Suggestion{Categories: []core.CategoryPath{"Category > Food + Beverage"}}, nil
	}

	snap, err := r.Run(context.Background(), Job{InputPath: input, OutputPath: out, BatchSize: 2, Mode: ModeLive})
	require.NoError(t, err)
	assert.True(t, snap.Complete)
	assert.False(t, snap.Success)
	assert.False(t, snap.Running)
	assert.Equal(t, "Processing stopped by user.", snap.Message)
	assert.Equal(t, 3, snap.Current)
	assert.Equal(t, 10, snap.Total)

	table := readOutput(t, out)
	assert.Equal(t, 3, table.Len(), "exactly the processed rows are written")

	cp, err := checkpoints.LoadCheckpoint(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, 3, cp.NextRow)
	assert.Equal(t, 10, cp.TotalRows)
	assert.Equal(t, snap.RunID, cp.RunID)
}

func TestRunner_ContextCanceled(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, 5)
	out := filepath.Join(dir, "out.csv")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mc := mock.NewMockCategorizer()
	mc.CategorizeFunc = func(ctx context.Context, req ai.Request) (*core.Suggestion, error) {
		if mc.CallCount() == 2 {
			cancel()
			return nil, ctx.Err()
		}
		return &core.Suggestion{}, nil
	}
	r := newTestRunner(t, WithProvider(mock.NewMockProviderWithCategorizer(mc)))

	snap, err := r.Run(ctx, Job{InputPath: input, OutputPath: out, Mode: ModeLive})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, snap.Complete)
	assert.False(t, snap.Success)
	assert.Equal(t, 1, snap.Current)
	assert.Equal(t, 1, readOutput(t, out).Len(), "interrupted row is not written")
}

func TestRunner_StartRow(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, 10)
	out := filepath.Join(dir, "out.csv")

	r := newTestRunner(t)
	snap, err := r.Run(context.Background(), Job{InputPath: input, OutputPath: out, StartRow: 5, Mode: ModeMock})
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Total)
	assert.Equal(t, 5, snap.Current)
	assert.Equal(t, 5, snap.StartRow)

	table := readOutput(t, out)
	require.Equal(t, 5, table.Len())
	assert.Equal(t, "SKU-5", table.Rows[0][0])
	assert.Equal(t, "SKU-9", table.Rows[4][0])
}

func TestRunner_Append(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, 6)
	out := filepath.Join(dir, "out.csv")

	r := newTestRunner(t)
	mc := mock.NewMockCategorizer()
	stopper := newTestRunner(t, WithProvider(mock.NewMockProviderWithCategorizer(mc)))
	mc.CategorizeFunc = func(ctx context.Context, req ai.Request) (*core.Suggestion, error) {
		if mc.CallCount() == 2 {
			stopper.Stop()
		}
		return &core.Suggestion{}, nil
	}

	_, err := stopper.Run(context.Background(), Job{InputPath: input, OutputPath: out, Mode: ModeLive})
	require.NoError(t, err)

	snap, err := r.Run(context.Background(), Job{InputPath: input, OutputPath: out, StartRow: 2, Append: true, Mode: ModeMock})
	require.NoError(t, err)
	assert.True(t, snap.Success)

	table := readOutput(t, out)
	require.Equal(t, 6, table.Len(), "header written once and rows appended")
	for i := 0; i < 6; i++ {
		assert.Equal(t, fmt.Sprintf("SKU-%d", i), table.Rows[i][0])
	}
}

func TestRunner_InvalidStartRow(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, 3)

	r := newTestRunner(t)
	snap, err := r.Run(context.Background(), Job{InputPath: input, StartRow: 3, Mode: ModeMock})
	assert.ErrorIs(t, err, catalog.ErrInvalidStartRow)
	assert.True(t, snap.Complete)
	assert.False(t, snap.Success)
	assert.Contains(t, snap.Message, "invalid start row")
	assert.NoFileExists(t, catalog.DefaultOutputPath(input))
}

func TestRunner_InvalidSelection(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, 2)

	r := newTestRunner(t)
	_, err := r.Run(context.Background(), Job{
		InputPath: input,
		Mode:      ModeMock,
		Manual:    []core.CategoryPath{"PEOPLE > Any Age > < 20", "PEOPLE > Any Age > 60+"},
	})
	assert.ErrorIs(t, err, core.ErrInvalidCategory)

	_, err = r.Run(context.Background(), Job{InputPath: input, Mode: ModeMock, Manual: []core.CategoryPath{"Nope > Nothing"}})
	assert.ErrorIs(t, err, core.ErrInvalidCategory)
}

func TestRunner_InvalidJob(t *testing.T) {
	r := newTestRunner(t)

	_, err := r.Run(context.Background(), Job{Mode: ModeMock})
	assert.ErrorIs(t, err, ErrInputRequired)

	_, err = r.Run(context.Background(), Job{InputPath: "x.csv", BatchSize: 21})
	assert.ErrorIs(t, err, ErrInvalidBatchSize)

	_, err = r.Run(context.Background(), Job{InputPath: "x.csv", Mode: "turbo"})
	assert.ErrorIs(t, err, ErrInvalidMode)

	_, err = r.Run(context.Background(), Job{InputPath: filepath.Join(t.TempDir(), "missing.csv"), Mode: ModeMock})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunner_SecondStartRejected(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, 3)

	entered := make(chan struct{}, 3)
	release := make(chan struct{})
	mc := mock.NewMockCategorizer()
	mc.CategorizeFunc = func(ctx context.Context, req ai.Request) (*core.Suggestion, error) {
		entered <- struct{}{}
		<-release
		return &core.Suggestion{}, nil
	}
	r := newTestRunner(t, WithProvider(mock.NewMockProviderWithCategorizer(mc)))

	ctx := context.Background()
	require.NoError(t, r.Start(ctx, Job{InputPath: input, Mode: ModeLive}))
	<-entered

	assert.True(t, r.Running())
	assert.True(t, r.Snapshot().Running)
	assert.ErrorIs(t, r.Start(ctx, Job{InputPath: input, Mode: ModeMock}), ErrRunInProgress)
	_, err := r.Run(ctx, Job{InputPath: input, Mode: ModeMock})
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(release)
	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	require.NoError(t, r.Wait(waitCtx))

	snap := r.Snapshot()
	assert.True(t, snap.Success)
	assert.False(t, snap.Running)
	assert.Equal(t, 3, snap.Current)

	// A finished runner accepts the next run
	require.NoError(t, r.Start(ctx, Job{InputPath: input, Mode: ModeMock}))
	require.NoError(t, r.Wait(waitCtx))
	assert.True(t, r.Snapshot().Success)
}

func TestRunner_PerImageFailure(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	good := filepath.Join(dir, "good.png")
	noisePNG(t, good, 48, 32, 7)
	missing := filepath.Join(dir, "missing.png")
	require.NoError(t, os.WriteFile(input, []byte("Images\n"+good+"\n"+missing+"\n"+good+"\n"), 0o644))

	manual := []core.CategoryPath{"Category > Food + Beverage", "ORIENTATION > Vertical"}
	r := newTestRunner(t)
	snap, err := r.Run(context.Background(), Job{InputPath: input, Manual: manual, Mode: ModeMock})
	require.NoError(t, err)
	assert.True(t, snap.Success)
	assert.Equal(t, 3, snap.Current)
	assert.Equal(t, 2, snap.Succeeded)
	assert.Equal(t, 1, snap.Failed)

	table := readOutput(t, catalog.DefaultOutputPath(input))
	require.Equal(t, 3, table.Len())
	assert.Equal(t, []core.CategoryPath{"Category > Food + Beverage"}, table.Record(1).Existing,
		"failed image falls back to manual selection without orientation")
	assert.Contains(t, table.Record(0).Existing, core.PathHorizontal)
}

func TestRunner_FailureMessage(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte("Images\n"+filepath.Join(dir, "nope.png")+"\n"), 0o644))

	r := newTestRunner(t)
	mc := mock.NewMockCategorizer()
	r2 := newTestRunner(t, WithProvider(mock.NewMockProviderWithCategorizer(mc)))

	// Completed runs report success even when every image failed
	snap, err := r.Run(context.Background(), Job{InputPath: input, Mode: ModeMock})
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Failed)
	assert.True(t, snap.Success)

	// Live AI errors are retried then recorded as a per-image failure
	img := filepath.Join(dir, "ok.png")
	noisePNG(t, img, 40, 40, 3)
	require.NoError(t, os.WriteFile(input, []byte("Images\n"+img+"\n"), 0o644))
	mc.CategorizeFunc = func(ctx context.Context, req ai.Request) (*core.Suggestion, error) {
		return nil, fmt.Errorf("%w: truncated", ai.ErrMalformedResponse)
	}
	snap, err = r2.Run(context.Background(), Job{InputPath: input, Mode: ModeLive})
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, testConfig().MaxRetries, mc.CallCount())
}

func TestRunner_FatalCredential(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, 4)
	out := filepath.Join(dir, "out.csv")

	mc := mock.NewMockCategorizer()
	mc.CategorizeFunc = func(ctx context.Context, req ai.Request) (*core.Suggestion, error) {
		return nil, fmt.Errorf("%w: 401 Unauthorized", ai.ErrInvalidCredential)
	}
	r := newTestRunner(t, WithProvider(mock.NewMockProviderWithCategorizer(mc)))

	snap, err := r.Run(context.Background(), Job{InputPath: input, OutputPath: out, Mode: ModeLive})
	assert.ErrorIs(t, err, ai.ErrInvalidCredential)
	assert.True(t, snap.Complete)
	assert.False(t, snap.Success)
	assert.Equal(t, 0, snap.Current)
	assert.Contains(t, snap.Message, "invalid API credential")
	assert.Equal(t, 1, mc.CallCount(), "credential errors are not retried")
	assert.Equal(t, 0, readOutput(t, out).Len(), "the failing row is not written")
}

func TestRunner_ProviderFactory(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, 2)

	r := newTestRunner(t, WithProviderFactory(func(ctx context.Context) (ai.Provider, error) {
		return nil, fmt.Errorf("%w: set OPENAI_API_KEY", ai.ErrMissingCredential)
	}))
	snap, err := r.Run(context.Background(), Job{InputPath: input, Mode: ModeLive})
	assert.ErrorIs(t, err, ai.ErrMissingCredential)
	assert.Contains(t, snap.Message, "initialize AI client")
	assert.NoFileExists(t, catalog.DefaultOutputPath(input))

	r = newTestRunner(t)
	_, err = r.Run(context.Background(), Job{InputPath: input, Mode: ModeLive})
	assert.ErrorIs(t, err, ErrNoProvider)

	var built atomic.Int32
	r = newTestRunner(t, WithProviderFactory(func(ctx context.Context) (ai.Provider, error) {
		built.Add(1)
		return mock.NewMockProvider(), nil
	}))
	snap, err = r.Run(context.Background(), Job{InputPath: input, Mode: ModeLive})
	require.NoError(t, err)
	assert.True(t, snap.Success)
	assert.Equal(t, int32(1), built.Load())
}

func TestRunner_NoPeopleOverridesManualPeople(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, 1)

	mc := mock.NewMockCategorizer()
	mc.CategorizeFunc = func(ctx context.Context, req ai.Request) (*core.Suggestion, error) {
		return &core.Suggestion{
			Categories: []core.CategoryPath{"Category > Food + Beverage", "ORIENTATION > Vertical"},
			NoPeople:   true,
		}, nil
	}
	r := newTestRunner(t, WithProvider(mock.NewMockProviderWithCategorizer(mc)))

	_, err := r.Run(context.Background(), Job{
		InputPath: input,
		Mode:      ModeLive,
		Manual:    []core.CategoryPath{"PEOPLE > Any Age > 30s"},
	})
	require.NoError(t, err)

	cats := readOutput(t, catalog.DefaultOutputPath(input)).Record(0).Existing
	assert.Equal(t, []core.CategoryPath{
		"Category > Food + Beverage",
		core.PathHorizontal,
		core.PathNoPeople,
	}, cats)
}

func TestRunner_DescriptionInference(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "a.png")
	noisePNG(t, img, 40, 60, 11)
	input := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte("Images,Description\n"+img+",Smiling asian woman in her 30s\n"), 0o644))

	mc := mock.NewMockCategorizer()
	mc.CategorizeFunc = func(ctx context.Context, req ai.Request) (*core.Suggestion, error) {
		assert.Equal(t, "Smiling asian woman in her 30s", req.Description)
		assert.NotEmpty(t, req.Image, "a preview is sent")
		return &core.Suggestion{Categories: []core.CategoryPath{"Category > Lifestyle", "PEOPLE > Faceless"}}, nil
	}
	r := newTestRunner(t, WithProvider(mock.NewMockProviderWithCategorizer(mc)))

	_, err := r.Run(context.Background(), Job{InputPath: input, Mode: ModeLive})
	require.NoError(t, err)

	cats := readOutput(t, catalog.DefaultOutputPath(input)).Record(0).Existing
	assert.Contains(t, cats, core.CategoryPath("PEOPLE > Any Ethnicity > Asian"))
	assert.Contains(t, cats, core.CategoryPath("PEOPLE > Any Age > 30s"))
	assert.Contains(t, cats, core.PathVertical)
}

func TestRunner_IdenticalImagesReuseSuggestion(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	c := filepath.Join(dir, "c.png")
	noisePNG(t, a, 48, 32, 99)
	noisePNG(t, b, 48, 32, 99)
	noisePNG(t, c, 48, 32, 5)
	input := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte("Images\n"+a+"\n"+b+"\n"+c+"\n"), 0o644))

	mc := mock.NewMockCategorizer()
	r := newTestRunner(t, WithProvider(mock.NewMockProviderWithCategorizer(mc)))

	snap, err := r.Run(context.Background(), Job{InputPath: input, Mode: ModeLive})
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Succeeded)
	assert.Equal(t, []string{a, c}, mc.URLs(), "byte-identical image reuses the earlier suggestion")

	table := readOutput(t, catalog.DefaultOutputPath(input))
	assert.Equal(t, table.Record(0).Existing, table.Record(1).Existing)
}

func TestRunner_ColorVariantsCategorizedSeparately(t *testing.T) {
	dir := t.TempDir()
	red := filepath.Join(dir, "red.png")
	blue := filepath.Join(dir, "blue.png")
	solidPNG(t, red, 48, 32, color.RGBA{R: 255, A: 255})
	solidPNG(t, blue, 48, 32, color.RGBA{B: 255, A: 255})
	input := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte("Images\n"+red+"\n"+blue+"\n"), 0o644))

	mc := mock.NewMockCategorizer()
	mc.CategorizeFunc = func(ctx context.Context, req ai.Request) (*core.Suggestion, error) {
		if req.URL == red {
			return &core.Suggestion{Categories: []core.CategoryPath{"Colors > Red"}}, nil
		}
		return &core.Suggestion{Categories: []core.CategoryPath{"Colors > Blue"}}, nil
	}
	r := newTestRunner(t, WithProvider(mock.NewMockProviderWithCategorizer(mc)))

	_, err := r.Run(context.Background(), Job{InputPath: input, Mode: ModeLive})
	require.NoError(t, err)
	assert.Equal(t, 2, mc.CallCount())

	table := readOutput(t, catalog.DefaultOutputPath(input))
	assert.Equal(t, []core.CategoryPath{"Colors > Red", core.PathHorizontal}, table.Record(0).Existing)
	assert.Equal(t, []core.CategoryPath{"Colors > Blue", core.PathHorizontal}, table.Record(1).Existing)
}

func TestRunner_SuggestionCache(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, 4)

	_, cache, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	mc := mock.NewMockCategorizer()
	r := newTestRunner(t, WithProvider(mock.NewMockProviderWithCategorizer(mc)), WithSuggestionCache(cache))

	first := filepath.Join(dir, "first.csv")
	_, err = r.Run(context.Background(), Job{InputPath: input, OutputPath: first, Mode: ModeLive})
	require.NoError(t, err)
	assert.Equal(t, 4, mc.CallCount())

	second := filepath.Join(dir, "second.csv")
	_, err = r.Run(context.Background(), Job{InputPath: input, OutputPath: second, Mode: ModeLive})
	require.NoError(t, err)
	assert.Equal(t, 4, mc.CallCount(), "second run is served from the cache")

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRunner_ModeOff(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, 3)

	mc := mock.NewMockCategorizer()
	r := newTestRunner(t, WithProvider(mock.NewMockProviderWithCategorizer(mc)))

	manual := []core.CategoryPath{"MOCKUPS > Phone", "Category > Workspace"}
	snap, err := r.Run(context.Background(), Job{InputPath: input, Mode: ModeOff, Manual: manual})
	require.NoError(t, err)
	assert.Equal(t, "Successfully processed 3 images with 2 manual categories!", snap.Message)
	assert.Equal(t, 0, mc.CallCount())
	assert.Equal(t, 3, snap.Succeeded)

	table := readOutput(t, catalog.DefaultOutputPath(input))
	assert.Equal(t, []core.CategoryPath{"Category > Workspace", "MOCKUPS > Phone", core.PathHorizontal}, table.Record(0).Existing)
	assert.Equal(t, []core.CategoryPath{"Category > Workspace", "MOCKUPS > Phone", core.PathVertical}, table.Record(1).Existing)
	assert.Equal(t, []core.CategoryPath{"Category > Workspace", "MOCKUPS > Phone", core.PathHorizontal}, table.Record(2).Existing)
}

func TestRunner_ModeOffFetchFailure(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte("Images\n"+filepath.Join(dir, "missing.png")+"\n"), 0o644))

	r := newTestRunner(t)
	manual := []core.CategoryPath{"Colors > Red", core.PathVertical}
	snap, err := r.Run(context.Background(), Job{InputPath: input, Mode: ModeOff, Manual: manual})
	require.NoError(t, err)
	assert.True(t, snap.Success)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, []core.CategoryPath{"Colors > Red"}, readOutput(t, catalog.DefaultOutputPath(input)).Record(0).Existing,
		"orientation is omitted when the image cannot be read")
}

func TestRunner_KeepExisting(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "a.png")
	noisePNG(t, img, 64, 48, 21)
	input := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte("Images,Categories\n"+img+",\"Colors > Red, Legacy > Tag\"\n"), 0o644))

	r := newTestRunner(t)
	manual := []core.CategoryPath{"Category > Food + Beverage"}

	_, err := r.Run(context.Background(), Job{InputPath: input, Mode: ModeOff, Manual: manual})
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryPath{"Category > Food + Beverage", core.PathHorizontal},
		readOutput(t, catalog.DefaultOutputPath(input)).Record(0).Existing)

	_, err = r.Run(context.Background(), Job{InputPath: input, Mode: ModeOff, Manual: manual, KeepExisting: true})
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryPath{"Category > Food + Beverage", "Colors > Red", "Legacy > Tag", core.PathHorizontal},
		readOutput(t, catalog.DefaultOutputPath(input)).Record(0).Existing)
}

func TestRunner_KeepExistingConflicts(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "a.png")
	noisePNG(t, img, 64, 48, 22)
	input := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(input,
		[]byte("Images,Categories\n"+img+",\"ORIENTATION > Vertical, PEOPLE > Any Age > 40s, MOCKUPS > Phone\"\n"), 0o644))

	mc := mock.NewMockCategorizer()
	mc.CategorizeFunc = func(ctx context.Context, req ai.Request) (*core.Suggestion, error) {
		return &core.Suggestion{Categories: []core.CategoryPath{core.PathAnyAge, "Category > Lifestyle"}}, nil
	}
	r := newTestRunner(t, WithProvider(mock.NewMockProviderWithCategorizer(mc)))

	manual := []core.CategoryPath{"PEOPLE > Any Age > 30s", "MOCKUPS > Mug"}
	_, err := r.Run(context.Background(), Job{InputPath: input, Mode: ModeLive, Manual: manual, KeepExisting: true})
	require.NoError(t, err)

	cats := readOutput(t, catalog.DefaultOutputPath(input)).Record(0).Existing
	assert.Equal(t, []core.CategoryPath{core.PathHorizontal}, family(cats, core.FamilyOrientation))
	assert.Contains(t, cats, core.CategoryPath("PEOPLE > Any Age > 30s"))
	assert.NotContains(t, cats, core.CategoryPath("PEOPLE > Any Age > 40s"))
	assert.NotContains(t, cats, core.PathAnyAge, "generic parent collapses into the manual child")
	assert.Equal(t, []core.CategoryPath{"MOCKUPS > Mug"}, family(cats, core.FamilyMockups))
	assert.NoError(t, core.ValidateSelection(cats, nil))
}

// family returns the paths of paths belonging to f.
func family(paths []core.CategoryPath, f core.Family) []core.CategoryPath {
	var out []core.CategoryPath
	for _, p := range paths {
		if p.Family() == f {
			out = append(out, p)
		}
	}
	return out
}

func TestRunner_Reset(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, 2)

	r := newTestRunner(t)
	assert.Equal(t, "Ready", r.Snapshot().Message)

	_, err := r.Run(context.Background(), Job{InputPath: input, Mode: ModeMock})
	require.NoError(t, err)
	assert.True(t, r.Snapshot().Complete)
	assert.False(t, r.Stop(), "nothing to stop")

	require.NoError(t, r.Reset())
	snap := r.Snapshot()
	assert.Equal(t, "Ready", snap.Message)
	assert.False(t, snap.Complete)
	assert.Zero(t, snap.Current)
	assert.Empty(t, snap.RunID)
}

func TestRunner_ResetStopsActiveRun(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, 5)

	entered := make(chan struct{}, 5)
	mc := mock.NewMockCategorizer()
	mc.CategorizeFunc = func(ctx context.Context, req ai.Request) (*core.Suggestion, error) {
		entered <- struct{}{}
		time.Sleep(20 * time.Millisecond)
		return &core.Suggestion{}, nil
	}
	r := newTestRunner(t, WithProvider(mock.NewMockProviderWithCategorizer(mc)))

	require.NoError(t, r.Start(context.Background(), Job{InputPath: input, Mode: ModeLive}))
	<-entered

	require.NoError(t, r.Reset())
	assert.False(t, r.Running())
	assert.Equal(t, "Ready", r.Snapshot().Message)
	assert.Less(t, mc.CallCount(), 5)
}

func TestRunner_CheckpointDeletedOnSuccess(t *testing.T) {
	dir := t.TempDir()
	input := writeCatalog(t, dir, 2)

	checkpoints, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	r := newTestRunner(t, WithCheckpoints(checkpoints))
	_, err = r.Run(context.Background(), Job{InputPath: input, Mode: ModeMock})
	require.NoError(t, err)

	cp, err := checkpoints.LoadCheckpoint(context.Background(), input)
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"", ModeLive},
		{"live", ModeLive},
		{"MOCK", ModeMock},
		{" off ", ModeOff},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseMode("sometimes")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	for _, size := range []int{0, 21, -1} {
		cfg := DefaultConfig()
		cfg.BatchSize = size
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidBatchSize, "size %d", size)
	}

	cfg := DefaultConfig()
	cfg.MaxRetries = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidMaxAttempts)

	cfg = DefaultConfig()
	cfg.APITimeout = 0
	assert.Error(t, cfg.Validate())
}
