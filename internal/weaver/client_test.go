package weaver

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/simspaceweaver"
	"github.com/aws/aws-sdk-go-v2/service/simspaceweaver/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shaiso/simsnap/internal/domain"
	"github.com/shaiso/simsnap/internal/telemetry"
)

// fakeService — заглушка simspaceweaver.Client.
type fakeService struct {
	describeSim *simspaceweaver.DescribeSimulationOutput
	describeApp *simspaceweaver.DescribeAppOutput
	startAppErr error
	err         error

	startAppInput *simspaceweaver.StartAppInput
	snapshotInput *simspaceweaver.CreateSnapshotInput
	startSimInput *simspaceweaver.StartSimulationInput
	clockInput    *simspaceweaver.StartClockInput
}

func (f *fakeService) DescribeSimulation(_ context.Context, _ *simspaceweaver.DescribeSimulationInput, _ ...func(*simspaceweaver.Options)) (*simspaceweaver.DescribeSimulationOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.describeSim, nil
}

func (f *fakeService) StartSimulation(_ context.Context, in *simspaceweaver.StartSimulationInput, _ ...func(*simspaceweaver.Options)) (*simspaceweaver.StartSimulationOutput, error) {
	f.startSimInput = in
	if f.err != nil {
		return nil, f.err
	}
	return &simspaceweaver.StartSimulationOutput{Arn: aws.String("arn:aws:simspaceweaver:sim/" + aws.ToString(in.Name))}, nil
}

func (f *fakeService) StartApp(_ context.Context, in *simspaceweaver.StartAppInput, _ ...func(*simspaceweaver.Options)) (*simspaceweaver.StartAppOutput, error) {
	f.startAppInput = in
	if f.startAppErr != nil {
		return nil, f.startAppErr
	}
	return &simspaceweaver.StartAppOutput{}, nil
}

func (f *fakeService) DescribeApp(_ context.Context, _ *simspaceweaver.DescribeAppInput, _ ...func(*simspaceweaver.Options)) (*simspaceweaver.DescribeAppOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.describeApp, nil
}

func (f *fakeService) StartClock(_ context.Context, in *simspaceweaver.StartClockInput, _ ...func(*simspaceweaver.Options)) (*simspaceweaver.StartClockOutput, error) {
	f.clockInput = in
	if f.err != nil {
		return nil, f.err
	}
	return &simspaceweaver.StartClockOutput{}, nil
}

func (f *fakeService) CreateSnapshot(_ context.Context, in *simspaceweaver.CreateSnapshotInput, _ ...func(*simspaceweaver.Options)) (*simspaceweaver.CreateSnapshotOutput, error) {
	f.snapshotInput = in
	if f.err != nil {
		return nil, f.err
	}
	return &simspaceweaver.CreateSnapshotOutput{}, nil
}

func TestDescribeSimulation_ClockStatus(t *testing.T) {
	svc := &fakeService{describeSim: &simspaceweaver.DescribeSimulationOutput{
		Name:   aws.String("sim-a"),
		Status: types.SimulationStatus("STARTED"),
		LiveSimulationState: &types.LiveSimulationState{
			Clocks:  []types.SimulationClock{{Status: types.ClockStatus("STOPPED")}},
			Domains: []types.Domain{{Name: aws.String("MyViewDomain")}},
		},
	}}
	c := newClient(svc, nil, nil)

	sim, err := c.DescribeSimulation(context.Background(), "sim-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sim.Status.IsStarted() {
		t.Errorf("expected STARTED, got %s", sim.Status)
	}
	if sim.ClockStatus != domain.ClockStatusStopped {
		t.Errorf("expected clock STOPPED, got %s", sim.ClockStatus)
	}
	if len(sim.Domains) != 1 || sim.Domains[0] != "MyViewDomain" {
		t.Errorf("unexpected domains %v", sim.Domains)
	}
}

func TestDescribeSimulation_NoClocks(t *testing.T) {
	svc := &fakeService{describeSim: &simspaceweaver.DescribeSimulationOutput{
		Status: types.SimulationStatus("STARTING"),
	}}
	c := newClient(svc, nil, nil)

	sim, err := c.DescribeSimulation(context.Background(), "sim-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sim.ClockStatus != domain.ClockStatusUnknown {
		t.Errorf("expected UNKNOWN clock without live state, got %s", sim.ClockStatus)
	}
	if sim.Name != "sim-a" {
		t.Errorf("expected requested name, got %s", sim.Name)
	}
}

func TestStartApp_Conflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	svc := &fakeService{startAppErr: &types.ConflictException{Message: aws.String("app already started")}}
	c := newClient(svc, nil, metrics)

	outcome, err := c.StartApp(context.Background(), "sim-a", "MyViewDomain", "SampleApp")
	if err != nil {
		t.Fatalf("conflict should not be an error: %v", err)
	}
	if outcome != domain.AlreadyStarted {
		t.Errorf("expected AlreadyStarted, got %s", outcome)
	}
	if got := testutil.ToFloat64(metrics.RemoteCalls.WithLabelValues("StartApp", "conflict")); got != 1 {
		t.Errorf("expected conflict counted, got %v", got)
	}
}

func TestStartApp_Requested(t *testing.T) {
	svc := &fakeService{}
	c := newClient(svc, nil, nil)

	outcome, err := c.StartApp(context.Background(), "sim-a", "MyViewDomain", "SampleApp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != domain.StartRequested {
		t.Errorf("expected StartRequested, got %s", outcome)
	}
	in := svc.startAppInput
	if aws.ToString(in.Domain) != "MyViewDomain" || aws.ToString(in.Name) != "SampleApp" || aws.ToString(in.Simulation) != "sim-a" {
		t.Errorf("unexpected input %+v", in)
	}
	if aws.ToString(in.ClientToken) == "" {
		t.Error("expected client token")
	}
}

func TestStartApp_OtherError(t *testing.T) {
	boom := errors.New("access denied")
	c := newClient(&fakeService{startAppErr: boom}, nil, nil)

	_, err := c.StartApp(context.Background(), "sim-a", "d", "a")
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestCreateSnapshot_Destination(t *testing.T) {
	svc := &fakeService{}
	c := newClient(svc, nil, nil)

	err := c.CreateSnapshot(context.Background(), "sim-a", domain.Destination{BucketName: "snaps", ObjectKeyPrefix: "nightly"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dest := svc.snapshotInput.Destination
	if aws.ToString(dest.BucketName) != "snaps" || aws.ToString(dest.ObjectKeyPrefix) != "nightly" {
		t.Errorf("unexpected destination %+v", dest)
	}
}

func TestCreateSnapshot_EmptyBucket(t *testing.T) {
	svc := &fakeService{}
	c := newClient(svc, nil, nil)

	if err := c.CreateSnapshot(context.Background(), "sim-a", domain.Destination{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dest := svc.snapshotInput.Destination
	if dest == nil || dest.BucketName == nil || *dest.BucketName != "" {
		t.Errorf("empty bucket should pass through, got %+v", dest)
	}
	if dest.ObjectKeyPrefix != nil {
		t.Error("empty prefix should not be sent")
	}
}

func TestStartSimulation_FromSnapshot(t *testing.T) {
	svc := &fakeService{}
	c := newClient(svc, nil, nil)

	arn, err := c.StartSimulation(context.Background(), domain.StartSimulationRequest{
		Name:           "sim-b",
		RoleArn:        "arn:aws:iam::1:role/weaver",
		SnapshotBucket: "snaps",
		SnapshotKey:    "sim-a.zip",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if arn == "" {
		t.Error("expected arn")
	}
	in := svc.startSimInput
	if in.SnapshotS3Location == nil || in.SchemaS3Location != nil {
		t.Errorf("expected snapshot location only, got %+v", in)
	}
}

func TestStartClock(t *testing.T) {
	svc := &fakeService{}
	c := newClient(svc, nil, nil)

	if err := c.StartClock(context.Background(), "sim-a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aws.ToString(svc.clockInput.Simulation) != "sim-a" {
		t.Errorf("unexpected input %+v", svc.clockInput)
	}
}

func TestIsConflict(t *testing.T) {
	if !IsConflict(&types.ConflictException{}) {
		t.Error("ConflictException should be a conflict")
	}
	if IsConflict(&types.ValidationException{}) {
		t.Error("ValidationException is not a conflict")
	}
}

func TestIsNotFound(t *testing.T) {
	c := newClient(&fakeService{err: &types.ResourceNotFoundException{Message: aws.String("no such simulation")}}, nil, nil)

	_, err := c.DescribeSimulation(context.Background(), "ghost")
	if !IsNotFound(err) {
		t.Errorf("wrapped ResourceNotFoundException should be not found, got %v", err)
	}
	if IsNotFound(&types.ConflictException{}) {
		t.Error("ConflictException is not a not-found error")
	}
}
