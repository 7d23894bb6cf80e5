package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shaiso/simsnap/internal/domain"
	"github.com/shaiso/simsnap/internal/telemetry"
)

// fakeAPI — сервис со сценарием ответов.
// Последний элемент последовательности повторяется бесконечно.
type fakeAPI struct {
	sims []domain.Simulation
	apps []domain.AppStatus

	startAppOutcome domain.StartOutcome
	startAppErr     error
	snapshotErr     error

	describeSimCalls int
	describeAppCalls int
	startAppCalls    int
	startClockCalls  int
	snapshotCalls    int
	lastDestination  domain.Destination
}

func (f *fakeAPI) DescribeSimulation(_ context.Context, simulation string) (*domain.Simulation, error) {
	i := min(f.describeSimCalls, len(f.sims)-1)
	f.describeSimCalls++
	sim := f.sims[i]
	sim.Name = simulation
	return &sim, nil
}

func (f *fakeAPI) StartApp(_ context.Context, _, _, _ string) (domain.StartOutcome, error) {
	f.startAppCalls++
	if f.startAppErr != nil {
		return 0, f.startAppErr
	}
	if f.startAppOutcome == 0 {
		return domain.StartRequested, nil
	}
	return f.startAppOutcome, nil
}

func (f *fakeAPI) DescribeApp(_ context.Context, simulation, domainName, app string) (*domain.App, error) {
	i := min(f.describeAppCalls, len(f.apps)-1)
	f.describeAppCalls++
	return &domain.App{Name: app, Domain: domainName, Simulation: simulation, Status: f.apps[i]}, nil
}

func (f *fakeAPI) StartClock(_ context.Context, _ string) error {
	f.startClockCalls++
	return nil
}

func (f *fakeAPI) CreateSnapshot(_ context.Context, _ string, dest domain.Destination) error {
	f.snapshotCalls++
	f.lastDestination = dest
	return f.snapshotErr
}

func started(clock domain.ClockStatus) domain.Simulation {
	return domain.Simulation{Status: domain.SimulationStatusStarted, ClockStatus: clock}
}

func withStatus(status domain.SimulationStatus) domain.Simulation {
	return domain.Simulation{Status: status, ClockStatus: domain.ClockStatusUnknown}
}

func fastPolicy(mode domain.WaitMode, maxAttempts int) *domain.WaitPolicy {
	return &domain.WaitPolicy{
		Mode:         mode,
		MaxAttempts:  maxAttempts,
		Backoff:      domain.BackoffFixed,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
	}
}

func newDriver(api API, wait *domain.WaitPolicy, snapshot domain.SnapshotPolicy) *Driver {
	return New(Config{
		API:      api,
		Domain:   "MyViewDomain",
		App:      "SampleApp",
		Wait:     wait,
		Snapshot: snapshot,
	})
}

func TestRun_AllStarted(t *testing.T) {
	api := &fakeAPI{
		sims: []domain.Simulation{started(domain.ClockStatusStarted)},
		apps: []domain.AppStatus{domain.AppStatusStarted},
	}
	dest := domain.Destination{BucketName: "snaps"}
	d := newDriver(api, fastPolicy(domain.WaitModePoll, 0), domain.SnapshotPolicy{Destination: dest})

	res, err := d.Run(context.Background(), "MySimulation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Ready() || !res.SnapshotTaken {
		t.Errorf("expected snapshot taken, got %+v", res)
	}
	if api.startAppCalls != 1 {
		t.Errorf("expected 1 StartApp, got %d", api.startAppCalls)
	}
	if api.startClockCalls != 0 {
		t.Errorf("clock already started, got %d StartClock calls", api.startClockCalls)
	}
	if api.snapshotCalls != 1 || api.lastDestination != dest {
		t.Errorf("expected one snapshot to %v, got %d to %v", dest, api.snapshotCalls, api.lastDestination)
	}
	if res.Stage != domain.StageSnapshot {
		t.Errorf("expected stage snapshot, got %s", res.Stage)
	}
}

func TestRun_PollsUntilStarted(t *testing.T) {
	api := &fakeAPI{
		sims: []domain.Simulation{
			withStatus(domain.SimulationStatusStarting),
			withStatus(domain.SimulationStatusStarting),
			started(domain.ClockStatusStopped),
			started(domain.ClockStatusStopped),
			started(domain.ClockStatusStarting),
			started(domain.ClockStatusStarted),
		},
		apps: []domain.AppStatus{domain.AppStatusStarting, domain.AppStatusStarted},
	}
	d := newDriver(api, fastPolicy(domain.WaitModePoll, 0), domain.SnapshotPolicy{})

	res, err := d.Run(context.Background(), "MySimulation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.SnapshotTaken {
		t.Fatal("expected snapshot taken")
	}
	if api.startAppCalls != 1 {
		t.Errorf("StartApp must be called once, got %d", api.startAppCalls)
	}
	if api.startClockCalls != 1 || !res.ClockStartRequested {
		t.Errorf("StartClock must be called once, got %d", api.startClockCalls)
	}
	if api.describeSimCalls != 6 {
		t.Errorf("expected 6 DescribeSimulation calls, got %d", api.describeSimCalls)
	}
	if api.describeAppCalls != 2 {
		t.Errorf("expected 2 DescribeApp calls, got %d", api.describeAppCalls)
	}
	if res.Polls != 8 {
		t.Errorf("expected 8 polls, got %d", res.Polls)
	}
}

func TestRun_AppConflictIsNotFatal(t *testing.T) {
	api := &fakeAPI{
		sims:            []domain.Simulation{started(domain.ClockStatusStarted)},
		apps:            []domain.AppStatus{domain.AppStatusStarted},
		startAppOutcome: domain.AlreadyStarted,
	}
	d := newDriver(api, fastPolicy(domain.WaitModePoll, 0), domain.SnapshotPolicy{})

	res, err := d.Run(context.Background(), "MySimulation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AppOutcome != domain.AlreadyStarted {
		t.Errorf("expected AlreadyStarted, got %s", res.AppOutcome)
	}
	if api.snapshotCalls != 1 {
		t.Errorf("expected snapshot after conflict, got %d", api.snapshotCalls)
	}
}

func TestRun_StartAppError(t *testing.T) {
	boom := errors.New("access denied")
	api := &fakeAPI{
		sims:        []domain.Simulation{started(domain.ClockStatusStarted)},
		apps:        []domain.AppStatus{domain.AppStatusStarted},
		startAppErr: boom,
	}
	d := newDriver(api, fastPolicy(domain.WaitModePoll, 0), domain.SnapshotPolicy{})

	res, err := d.Run(context.Background(), "MySimulation")
	if !errors.Is(err, boom) {
		t.Fatalf("expected StartApp error, got %v", err)
	}
	if res.Stage != domain.StageApp {
		t.Errorf("expected stage app, got %s", res.Stage)
	}
	if api.snapshotCalls != 0 {
		t.Error("snapshot must not be taken after a failed stage")
	}
}

func TestRun_OnceSimulationNotReady(t *testing.T) {
	api := &fakeAPI{
		sims: []domain.Simulation{withStatus(domain.SimulationStatusStarting)},
		apps: []domain.AppStatus{domain.AppStatusStarted},
	}
	d := newDriver(api, fastPolicy(domain.WaitModeOnce, 0), domain.SnapshotPolicy{})

	res, err := d.Run(context.Background(), "MySimulation")
	if err != nil {
		t.Fatalf("once mode should not fail: %v", err)
	}
	if res.NotReady != domain.StageSimulation {
		t.Errorf("expected simulation not ready, got %q", res.NotReady)
	}
	if api.describeSimCalls != 1 {
		t.Errorf("once mode must check once, got %d", api.describeSimCalls)
	}
	if api.startAppCalls != 0 || api.snapshotCalls != 0 {
		t.Error("no further stages should run")
	}
}

func TestRun_OnceStartsClockThenNotReady(t *testing.T) {
	api := &fakeAPI{
		sims: []domain.Simulation{started(domain.ClockStatusStopped)},
		apps: []domain.AppStatus{domain.AppStatusStarted},
	}
	d := newDriver(api, fastPolicy(domain.WaitModeOnce, 0), domain.SnapshotPolicy{})

	res, err := d.Run(context.Background(), "MySimulation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.startClockCalls != 1 {
		t.Errorf("expected clock start requested, got %d", api.startClockCalls)
	}
	if res.NotReady != domain.StageClock {
		t.Errorf("expected clock not ready, got %q", res.NotReady)
	}
	if res.SnapshotTaken || api.snapshotCalls != 0 {
		t.Error("snapshot must not be taken before clock is STARTED")
	}
}

func TestRun_MaxAttemptsExhausted(t *testing.T) {
	api := &fakeAPI{
		sims: []domain.Simulation{withStatus(domain.SimulationStatusStarting)},
		apps: []domain.AppStatus{domain.AppStatusStarted},
	}
	d := newDriver(api, fastPolicy(domain.WaitModePoll, 3), domain.SnapshotPolicy{})

	_, err := d.Run(context.Background(), "MySimulation")
	if !errors.Is(err, ErrWaitExhausted) {
		t.Fatalf("expected ErrWaitExhausted, got %v", err)
	}
	if api.describeSimCalls != 3 {
		t.Errorf("expected 3 status checks, got %d", api.describeSimCalls)
	}
}

func TestRun_UnboundedWaitStopsOnCancel(t *testing.T) {
	api := &fakeAPI{
		sims: []domain.Simulation{withStatus(domain.SimulationStatusStarting)},
		apps: []domain.AppStatus{domain.AppStatusStarted},
	}
	d := newDriver(api, fastPolicy(domain.WaitModePoll, 0), domain.SnapshotPolicy{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := d.Run(ctx, "MySimulation")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if api.describeSimCalls < 2 {
		t.Errorf("expected repeated polling, got %d calls", api.describeSimCalls)
	}
	if api.startAppCalls != 0 {
		t.Error("app must not be started")
	}
}

func TestRun_TerminalSimulation(t *testing.T) {
	api := &fakeAPI{
		sims: []domain.Simulation{withStatus(domain.SimulationStatusFailed)},
		apps: []domain.AppStatus{domain.AppStatusStarted},
	}
	d := newDriver(api, fastPolicy(domain.WaitModePoll, 0), domain.SnapshotPolicy{})

	_, err := d.Run(context.Background(), "MySimulation")
	if !errors.Is(err, ErrSimulationUnavailable) {
		t.Fatalf("expected ErrSimulationUnavailable, got %v", err)
	}
}

func TestRun_SimulationRequired(t *testing.T) {
	d := newDriver(&fakeAPI{}, nil, domain.SnapshotPolicy{})

	if _, err := d.Run(context.Background(), ""); !errors.Is(err, ErrSimulationRequired) {
		t.Fatalf("expected ErrSimulationRequired, got %v", err)
	}
}

func TestRun_EmptyBucketPassedThrough(t *testing.T) {
	api := &fakeAPI{
		sims: []domain.Simulation{started(domain.ClockStatusStarted)},
		apps: []domain.AppStatus{domain.AppStatusStarted},
	}
	d := newDriver(api, fastPolicy(domain.WaitModePoll, 0), domain.SnapshotPolicy{})

	res, err := d.Run(context.Background(), "MySimulation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.snapshotCalls != 1 || api.lastDestination.BucketName != "" {
		t.Errorf("expected snapshot with empty bucket, got %+v", api.lastDestination)
	}
	if !res.SnapshotTaken {
		t.Error("expected snapshot taken")
	}
}

func TestRun_WaitForSnapshotCompletion(t *testing.T) {
	api := &fakeAPI{
		sims: []domain.Simulation{
			started(domain.ClockStatusStarted),
			started(domain.ClockStatusStarted),
			{Status: domain.SimulationStatusSnapshotInProgress, ClockStatus: domain.ClockStatusStarted},
			started(domain.ClockStatusStarted),
		},
		apps: []domain.AppStatus{domain.AppStatusStarted},
	}
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	d := New(Config{
		API:      api,
		Domain:   "MyViewDomain",
		App:      "SampleApp",
		Wait:     fastPolicy(domain.WaitModePoll, 0),
		Snapshot: domain.SnapshotPolicy{WaitForCompletion: true, PreSnapshotDelay: time.Millisecond},
		Metrics:  metrics,
	})

	res, err := d.Run(context.Background(), "MySimulation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.SnapshotComplete {
		t.Error("expected snapshot complete")
	}
	if api.snapshotCalls != 1 {
		t.Errorf("expected exactly one snapshot, got %d", api.snapshotCalls)
	}
	if got := testutil.ToFloat64(metrics.StatusPolls.WithLabelValues("snapshot", "not_ready")); got != 1 {
		t.Errorf("expected 1 not_ready snapshot poll, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.StatusPolls.WithLabelValues("snapshot", "ready")); got != 1 {
		t.Errorf("expected 1 ready snapshot poll, got %v", got)
	}
}

func TestRun_OnceSnapshotStillInProgress(t *testing.T) {
	api := &fakeAPI{
		sims: []domain.Simulation{
			started(domain.ClockStatusStarted),
			started(domain.ClockStatusStarted),
			{Status: domain.SimulationStatusSnapshotInProgress, ClockStatus: domain.ClockStatusStarted},
		},
		apps: []domain.AppStatus{domain.AppStatusStarted},
	}
	d := newDriver(api, fastPolicy(domain.WaitModeOnce, 0), domain.SnapshotPolicy{WaitForCompletion: true})

	res, err := d.Run(context.Background(), "MySimulation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.SnapshotTaken || res.SnapshotComplete {
		t.Errorf("expected taken but not complete, got %+v", res)
	}
	if res.NotReady != domain.StageSnapshot {
		t.Errorf("expected snapshot not ready, got %q", res.NotReady)
	}
}

func TestRun_ConflictPollingAndClockScenario(t *testing.T) {
	api := &fakeAPI{
		sims: []domain.Simulation{
			withStatus(domain.SimulationStatusStarting),
			withStatus(domain.SimulationStatusStarting),
			started(domain.ClockStatusStopped),
			started(domain.ClockStatusStopped),
			started(domain.ClockStatusStarted),
		},
		apps:            []domain.AppStatus{domain.AppStatusStarted},
		startAppOutcome: domain.AlreadyStarted,
	}
	dest := domain.Destination{BucketName: "b"}
	d := newDriver(api, fastPolicy(domain.WaitModePoll, 0), domain.SnapshotPolicy{Destination: dest})

	res, err := d.Run(context.Background(), "MySimulation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.startAppCalls != 1 || res.AppOutcome != domain.AlreadyStarted {
		t.Errorf("expected one conflicting StartApp, got %d (%s)", api.startAppCalls, res.AppOutcome)
	}
	if api.startClockCalls != 1 {
		t.Errorf("expected one StartClock, got %d", api.startClockCalls)
	}
	if api.snapshotCalls != 1 || api.lastDestination != dest {
		t.Errorf("expected one snapshot to %v, got %d to %v", dest, api.snapshotCalls, api.lastDestination)
	}
	if res.Destination.String() != "s3://b" {
		t.Errorf("unexpected destination %s", res.Destination)
	}
	if api.describeSimCalls != 5 {
		t.Errorf("expected 5 DescribeSimulation calls, got %d", api.describeSimCalls)
	}
}

func TestRun_OnceSnapshotCompletionNotObserved(t *testing.T) {
	api := &fakeAPI{
		sims: []domain.Simulation{started(domain.ClockStatusStarted)},
		apps: []domain.AppStatus{domain.AppStatusStarted},
	}
	d := newDriver(api, fastPolicy(domain.WaitModeOnce, 0), domain.SnapshotPolicy{WaitForCompletion: true})

	res, err := d.Run(context.Background(), "MySimulation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.SnapshotTaken || res.SnapshotComplete {
		t.Errorf("expected taken but not complete, got %+v", res)
	}
	if res.NotReady != domain.StageSnapshot {
		t.Errorf("expected snapshot not ready, got %q", res.NotReady)
	}
	// Статус после CreateSnapshot не читается
	if api.describeSimCalls != 2 {
		t.Errorf("expected 2 DescribeSimulation calls, got %d", api.describeSimCalls)
	}
}

func TestRun_SnapshotNeverInProgress(t *testing.T) {
	api := &fakeAPI{
		sims: []domain.Simulation{started(domain.ClockStatusStarted)},
		apps: []domain.AppStatus{domain.AppStatusStarted},
	}
	d := newDriver(api, fastPolicy(domain.WaitModePoll, 3), domain.SnapshotPolicy{WaitForCompletion: true})

	res, err := d.Run(context.Background(), "MySimulation")
	if !errors.Is(err, ErrWaitExhausted) {
		t.Fatalf("expected ErrWaitExhausted, got %v", err)
	}
	if res.SnapshotComplete {
		t.Error("STARTED without SNAPSHOT_IN_PROGRESS must not count as complete")
	}
	if !res.SnapshotTaken || api.snapshotCalls != 1 {
		t.Errorf("expected exactly one snapshot, got %d", api.snapshotCalls)
	}
	if api.describeSimCalls != 2+3 {
		t.Errorf("expected 3 completion checks, got %d total calls", api.describeSimCalls)
	}
}
