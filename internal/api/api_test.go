package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/simspaceweaver/types"
	"github.com/google/uuid"

	"github.com/shaiso/simsnap/internal/domain"
	"github.com/shaiso/simsnap/internal/repo"
)

type fakeRuns struct {
	runs       map[uuid.UUID]domain.Run
	lastFilter repo.RunFilter
	createErr  error
}

func newFakeRuns(runs ...domain.Run) *fakeRuns {
	f := &fakeRuns{runs: make(map[uuid.UUID]domain.Run)}
	for _, r := range runs {
		f.runs[r.ID] = r
	}
	return f
}

func (f *fakeRuns) Create(_ context.Context, run *domain.Run) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.runs[run.ID] = *run
	return nil
}

func (f *fakeRuns) GetByID(_ context.Context, id uuid.UUID) (*domain.Run, error) {
	run, ok := f.runs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &run, nil
}

func (f *fakeRuns) List(_ context.Context, filter repo.RunFilter) ([]domain.Run, error) {
	f.lastFilter = filter
	var out []domain.Run
	for _, r := range f.runs {
		if filter.Simulation == "" || r.Simulation == filter.Simulation {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakePublisher struct {
	published []string
}

func (f *fakePublisher) PublishSnapshotRequested(_ context.Context, _ uuid.UUID, simulation string) error {
	f.published = append(f.published, simulation)
	return nil
}

type fakeSimulations struct {
	sim    *domain.Simulation
	app    *domain.App
	simErr error
	appErr error
}

func (f *fakeSimulations) DescribeSimulation(context.Context, string) (*domain.Simulation, error) {
	return f.sim, f.simErr
}

func (f *fakeSimulations) DescribeApp(context.Context, string, string, string) (*domain.App, error) {
	return f.app, f.appErr
}

func newTestServer(cfg Config) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(cfg).RegisterRoutes(mux)
	return mux
}

func do(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var resp struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Data
}

func TestRequestSnapshot_Accepted(t *testing.T) {
	runs := newFakeRuns()
	pub := &fakePublisher{}
	mux := newTestServer(Config{Runs: runs, Publisher: pub})

	rec := do(t, mux, http.MethodPost, "/api/v1/snapshots", CreateSnapshotRequest{Simulation: "MySimulation"})

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(HeaderRequestID) == "" {
		t.Error("expected request id header")
	}

	run := decodeData[RunResponse](t, rec)
	if run.Status != domain.RunStatusPending || run.Trigger != domain.TriggerAPI {
		t.Errorf("unexpected run %+v", run)
	}
	if _, ok := runs.runs[run.ID]; !ok {
		t.Error("run must be stored")
	}
	if len(pub.published) != 1 || pub.published[0] != "MySimulation" {
		t.Errorf("expected snapshot.requested published, got %v", pub.published)
	}
}

func TestRequestSnapshot_Validation(t *testing.T) {
	mux := newTestServer(Config{Runs: newFakeRuns()})

	rec := do(t, mux, http.MethodPost, "/api/v1/snapshots", CreateSnapshotRequest{Simulation: "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty simulation, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/snapshots", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid json, got %d", rec.Code)
	}
}

func TestRequestSnapshot_StoreError(t *testing.T) {
	runs := newFakeRuns()
	runs.createErr = errors.New("db down")
	mux := newTestServer(Config{Runs: runs})

	rec := do(t, mux, http.MethodPost, "/api/v1/snapshots", CreateSnapshotRequest{Simulation: "MySimulation"})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestGetRun(t *testing.T) {
	run := *domain.NewRun("MySimulation", domain.TriggerCLI)
	mux := newTestServer(Config{Runs: newFakeRuns(run)})

	rec := do(t, mux, http.MethodGet, "/api/v1/runs/"+run.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decodeData[RunResponse](t, rec); got.ID != run.ID {
		t.Errorf("expected run %s, got %s", run.ID, got.ID)
	}

	if rec := do(t, mux, http.MethodGet, "/api/v1/runs/"+uuid.NewString(), nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec := do(t, mux, http.MethodGet, "/api/v1/runs/not-a-uuid", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestListRuns_Filters(t *testing.T) {
	runs := newFakeRuns(*domain.NewRun("sim-a", domain.TriggerCLI), *domain.NewRun("sim-b", domain.TriggerCLI))
	mux := newTestServer(Config{Runs: runs})

	rec := do(t, mux, http.MethodGet, "/api/v1/runs?simulation=sim-a&status=pending&limit=5&offset=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	f := runs.lastFilter
	if f.Simulation != "sim-a" || f.Status != domain.RunStatusPending || f.Limit != 5 || f.Offset != 2 {
		t.Errorf("unexpected filter %+v", f)
	}
	if got := decodeData[[]RunResponse](t, rec); len(got) != 1 {
		t.Errorf("expected 1 run, got %d", len(got))
	}
}

func TestListRuns_BadQuery(t *testing.T) {
	mux := newTestServer(Config{Runs: newFakeRuns()})

	for _, q := range []string{"status=DONE", "limit=-1", "limit=x", "offset=-3"} {
		if rec := do(t, mux, http.MethodGet, "/api/v1/runs?"+q, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestGetSimulation(t *testing.T) {
	sims := &fakeSimulations{
		sim: &domain.Simulation{Name: "MySimulation", Status: domain.SimulationStatusStarted, ClockStatus: domain.ClockStatusStarted},
		app: &domain.App{Name: "SampleApp", Status: domain.AppStatusStarted},
	}
	mux := newTestServer(Config{Runs: newFakeRuns(), Simulations: sims, Domain: "MyViewDomain", App: "SampleApp"})

	rec := do(t, mux, http.MethodGet, "/api/v1/simulations/MySimulation", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeData[SimulationResponse](t, rec)
	if !resp.ReadyForSnapshot || resp.App == nil {
		t.Errorf("expected ready simulation, got %+v", resp)
	}
}

func TestGetSimulation_AppNotStarted(t *testing.T) {
	sims := &fakeSimulations{
		sim:    &domain.Simulation{Name: "MySimulation", Status: domain.SimulationStatusStarted, ClockStatus: domain.ClockStatusStopped},
		appErr: &types.ResourceNotFoundException{},
	}
	mux := newTestServer(Config{Runs: newFakeRuns(), Simulations: sims})

	rec := do(t, mux, http.MethodGet, "/api/v1/simulations/MySimulation", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeData[SimulationResponse](t, rec)
	if resp.ReadyForSnapshot || resp.App != nil {
		t.Errorf("expected not ready without app, got %+v", resp)
	}
}

func TestGetSimulation_Errors(t *testing.T) {
	mux := newTestServer(Config{Runs: newFakeRuns()})
	if rec := do(t, mux, http.MethodGet, "/api/v1/simulations/x", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without service, got %d", rec.Code)
	}

	mux = newTestServer(Config{Runs: newFakeRuns(), Simulations: &fakeSimulations{simErr: &types.ResourceNotFoundException{}}})
	rec := do(t, mux, http.MethodGet, "/api/v1/simulations/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", resp.Error.Code)
	}
}

func TestRecovery(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/boom", Recovery(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := do(t, mux, http.MethodGet, "/boom", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 after panic, got %d", rec.Code)
	}
}
