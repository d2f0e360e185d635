package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/imagecat/core"
	"github.com/poiesic/imagecat/run"
	"github.com/poiesic/imagecat/taxonomy"
)

type fakeController struct {
	mu       sync.Mutex
	jobs     []run.Job
	startErr error
	resetErr error
	running  bool
	state    run.Snapshot
}

func (f *fakeController) Start(_ context.Context, job run.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.jobs = append(f.jobs, job)
	f.running = true
	f.state = run.Snapshot{RunID: "run-1", Running: true, InputFile: job.InputPath}
	return nil
}

func (f *fakeController) Stop() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeController) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resetErr != nil {
		return f.resetErr
	}
	f.running = false
	f.state = run.Snapshot{Message: "Ready"}
	return nil
}

func (f *fakeController) Snapshot() run.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

type fakeSession struct {
	remembered []run.Job
	resets     int
}

func (f *fakeSession) Remember(job run.Job) error {
	f.remembered = append(f.remembered, job)
	return nil
}

func (f *fakeSession) Reset() error {
	f.resets++
	return nil
}

func newTestServer(t *testing.T, ctrl Controller, opts ...Option) *Server {
	t.Helper()
	srv, err := New("127.0.0.1:0", ctrl, taxonomy.Default(), opts...)
	require.NoError(t, err)
	return srv
}

func writeCSV(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(rows))
	require.NoError(t, f.Close())
	return path
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp Response
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("", &fakeController{}, taxonomy.Default())
	assert.Error(t, err)
	_, err = New(":0", nil, taxonomy.Default())
	assert.Error(t, err)
	_, err = New(":0", &fakeController{}, nil)
	assert.Error(t, err)
	_, err = New(":0", &fakeController{}, taxonomy.Default(), WithLogger(nil))
	assert.Error(t, err)
}

func TestProgress(t *testing.T) {
	ctrl := &fakeController{state: run.Snapshot{Current: 2, Total: 10, Message: "Processing rows 1 to 5 of 10..."}}
	srv := newTestServer(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/progress", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var snap run.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 2, snap.Current)
	assert.Equal(t, 10, snap.Total)
}

func TestProgress_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakeController{})
	w, _ := do(t, srv.Handler(), http.MethodPost, "/api/progress", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCategories(t *testing.T) {
	srv := newTestServer(t, &fakeController{})

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var groups taxonomy.Groups
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &groups))
	assert.Contains(t, groups.Orientation, core.PathHorizontal)
	assert.Contains(t, groups.PeopleMain, core.PathNoPeople)
	assert.NotEmpty(t, groups.Main)
	assert.NotEmpty(t, groups.PeopleAge)
}

func TestProcess(t *testing.T) {
	input := writeCSV(t, [][]string{{"Images"}, {"http://example.com/a.jpg"}})
	ctrl := &fakeController{}
	session := &fakeSession{}
	srv := newTestServer(t, ctrl, WithSession(session))

	w, resp := do(t, srv.Handler(), http.MethodPost, "/api/process", ProcessRequest{
		InputFile:  input,
		BatchSize:  3,
		StartRow:   0,
		MockMode:   true,
		Categories: []string{"colors > red", "MOCKUPS > Phone"},
	})

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.True(t, resp.Success)
	assert.Equal(t, "run-1", resp.RunID)

	require.Len(t, ctrl.jobs, 1)
	job := ctrl.jobs[0]
	assert.Equal(t, input, job.InputPath)
	assert.Equal(t, filepath.Join(filepath.Dir(input), "products_categorized.csv"), job.OutputPath)
	assert.Equal(t, run.ModeMock, job.Mode)
	assert.Equal(t, 3, job.BatchSize)
	assert.Equal(t, []core.CategoryPath{"Colors > Red", "MOCKUPS > Phone"}, job.Manual)

	require.Len(t, session.remembered, 1)
	assert.Equal(t, job, session.remembered[0])
}

func TestProcess_ExplicitModeWins(t *testing.T) {
	input := writeCSV(t, [][]string{{"Images"}, {"http://example.com/a.jpg"}})
	ctrl := &fakeController{}
	srv := newTestServer(t, ctrl)

	w, _ := do(t, srv.Handler(), http.MethodPost, "/api/process", ProcessRequest{
		InputFile: input,
		MockMode:  true,
		Mode:      "off",
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, run.ModeOff, ctrl.jobs[0].Mode)
}

func TestProcess_Validation(t *testing.T) {
	input := writeCSV(t, [][]string{{"Images"}, {"http://example.com/a.jpg"}})

	tests := []struct {
		name string
		req  any
	}{
		{"missing input", ProcessRequest{}},
		{"nonexistent input", ProcessRequest{InputFile: filepath.Join(t.TempDir(), "nope.csv")}},
		{"bad mode", ProcessRequest{InputFile: input, Mode: "turbo"}},
		{"batch too large", ProcessRequest{InputFile: input, BatchSize: 21}},
		{"negative start", ProcessRequest{InputFile: input, StartRow: -1}},
		{"unknown category", ProcessRequest{InputFile: input, Categories: []string{"Category > Spaceships"}}},
		{"exclusive conflict", ProcessRequest{InputFile: input, Categories: []string{"PEOPLE > Any Age > 20s", "PEOPLE > Any Age > 30s"}}},
		{"malformed body", "not an object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{}
			srv := newTestServer(t, ctrl)
			w, resp := do(t, srv.Handler(), http.MethodPost, "/api/process", tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
			assert.Empty(t, ctrl.jobs)
		})
	}
}

func TestProcess_AlreadyRunning(t *testing.T) {
	input := writeCSV(t, [][]string{{"Images"}, {"http://example.com/a.jpg"}})
	ctrl := &fakeController{startErr: run.ErrRunInProgress}
	session := &fakeSession{}
	srv := newTestServer(t, ctrl, WithSession(session))

	w, resp := do(t, srv.Handler(), http.MethodPost, "/api/process", ProcessRequest{InputFile: input})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, resp.Message, "Already processing")
	assert.Empty(t, session.remembered)
}

func TestStop(t *testing.T) {
	ctrl := &fakeController{}
	srv := newTestServer(t, ctrl)

	_, resp := do(t, srv.Handler(), http.MethodPost, "/api/stop", nil)
	assert.False(t, resp.Success)

	ctrl.running = true
	w, resp := do(t, srv.Handler(), http.MethodPost, "/api/stop", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
}

func TestReset(t *testing.T) {
	ctrl := &fakeController{running: true}
	session := &fakeSession{}
	srv := newTestServer(t, ctrl, WithSession(session))

	w, resp := do(t, srv.Handler(), http.MethodPost, "/api/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "Application has been reset", resp.Message)
	assert.Equal(t, 1, session.resets)
	assert.Equal(t, "Ready", ctrl.Snapshot().Message)
}

func TestReset_StillRunning(t *testing.T) {
	ctrl := &fakeController{resetErr: run.ErrRunInProgress}
	session := &fakeSession{}
	srv := newTestServer(t, ctrl, WithSession(session))

	w, _ := do(t, srv.Handler(), http.MethodPost, "/api/reset", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, session.resets)
}

func TestApply(t *testing.T) {
	input := writeCSV(t, [][]string{
		{"SKU", "Images", "Categories"},
		{"1", "http://example.com/a.jpg", "Colors > Blue"},
		{"2", "http://example.com/b.jpg", ""},
	})
	srv := newTestServer(t, &fakeController{})

	w, resp := do(t, srv.Handler(), http.MethodPost, "/api/apply", ApplyRequest{
		Categories: []string{"Colors > Red", "MOCKUPS > Phone"},
		InputFile:  input,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, resp.Success)
	assert.Equal(t, "Applied 2 categories to all images", resp.Message)
	assert.Equal(t, 2, resp.Rows)

	f, err := os.Open(input)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Colors > Blue, Colors > Red, MOCKUPS > Phone", rows[1][2])
	assert.Equal(t, "Colors > Red, MOCKUPS > Phone", rows[2][2])
}

func TestApply_Errors(t *testing.T) {
	input := writeCSV(t, [][]string{{"Images"}, {"http://example.com/a.jpg"}})
	srv := newTestServer(t, &fakeController{})

	w, resp := do(t, srv.Handler(), http.MethodPost, "/api/apply", ApplyRequest{InputFile: input})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No categories selected", resp.Message)

	w, resp = do(t, srv.Handler(), http.MethodPost, "/api/apply", ApplyRequest{
		Categories: []string{"Colors > Red"},
		InputFile:  filepath.Join(t.TempDir(), "missing.csv"),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Input file not found", resp.Message)

	w, _ = do(t, srv.Handler(), http.MethodPost, "/api/apply", ApplyRequest{
		Categories: []string{"Nonsense"},
		InputFile:  input,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_WithRunner(t *testing.T) {
	dir := t.TempDir()
	rows := [][]string{{"SKU", "Images"}}
	for i := range 4 {
		path := filepath.Join(dir, fmt.Sprintf("%d.png", i))
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 12, 8))))
		require.NoError(t, f.Close())
		rows = append(rows, []string{fmt.Sprint(i), path})
	}
	input := writeCSV(t, rows)

	runner, err := run.NewRunner(taxonomy.Default())
	require.NoError(t, err)
	t.Cleanup(runner.Release)

	srv := newTestServer(t, runner)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, srv.Start(ctx))
	base := "http://" + srv.Addr().String()

	body, err := json.Marshal(ProcessRequest{
		InputFile:  input,
		Mode:       "off",
		Categories: []string{"Colors > Red"},
	})
	require.NoError(t, err)
	resp, err := http.Post(base+"/api/process", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	waitCtx, waitCancel := context.WithTimeout(ctx, 10*time.Second)
	defer waitCancel()
	require.NoError(t, runner.Wait(waitCtx))

	resp, err = http.Get(base + "/api/progress")
	require.NoError(t, err)
	defer resp.Body.Close()
	var snap run.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.True(t, snap.Complete)
	assert.True(t, snap.Success)
	assert.Equal(t, 4, snap.Total)
	assert.Equal(t, 4, snap.Current)
	assert.Equal(t, 4, snap.Succeeded)
	assert.Contains(t, snap.Message, "Successfully processed 4 images")
}
