package weaver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/simspaceweaver"
	"github.com/aws/aws-sdk-go-v2/service/simspaceweaver/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/shaiso/simsnap/internal/domain"
	"github.com/shaiso/simsnap/internal/telemetry"
)

// serviceAPI — подмножество simspaceweaver.Client, которое мы вызываем.
type serviceAPI interface {
	DescribeSimulation(ctx context.Context, params *simspaceweaver.DescribeSimulationInput, optFns ...func(*simspaceweaver.Options)) (*simspaceweaver.DescribeSimulationOutput, error)
	StartSimulation(ctx context.Context, params *simspaceweaver.StartSimulationInput, optFns ...func(*simspaceweaver.Options)) (*simspaceweaver.StartSimulationOutput, error)
	StartApp(ctx context.Context, params *simspaceweaver.StartAppInput, optFns ...func(*simspaceweaver.Options)) (*simspaceweaver.StartAppOutput, error)
	DescribeApp(ctx context.Context, params *simspaceweaver.DescribeAppInput, optFns ...func(*simspaceweaver.Options)) (*simspaceweaver.DescribeAppOutput, error)
	StartClock(ctx context.Context, params *simspaceweaver.StartClockInput, optFns ...func(*simspaceweaver.Options)) (*simspaceweaver.StartClockOutput, error)
	CreateSnapshot(ctx context.Context, params *simspaceweaver.CreateSnapshotInput, optFns ...func(*simspaceweaver.Options)) (*simspaceweaver.CreateSnapshotOutput, error)
}

// Client — адаптер SimSpace Weaver, возвращающий доменные типы.
type Client struct {
	api     serviceAPI
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// Options — параметры создания Client.
type Options struct {
	// Region — регион AWS. Пусто — из стандартной цепочки конфигурации.
	Region string

	// Endpoint — переопределение адреса сервиса (локальные стенды, тесты).
	Endpoint string

	Logger  *slog.Logger
	Metrics *telemetry.Metrics
}

// New создаёт Client с конфигурацией AWS по умолчанию
// (переменные окружения, shared config, роль Lambda).
func New(ctx context.Context, opts Options) (*Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	svc := simspaceweaver.NewFromConfig(awsCfg, func(o *simspaceweaver.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return newClient(svc, opts.Logger, opts.Metrics), nil
}

func newClient(api serviceAPI, logger *slog.Logger, metrics *telemetry.Metrics) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{api: api, logger: logger, metrics: metrics}
}

// DescribeSimulation возвращает статус симуляции и её первых часов.
func (c *Client) DescribeSimulation(ctx context.Context, simulation string) (*domain.Simulation, error) {
	out, err := c.api.DescribeSimulation(ctx, &simspaceweaver.DescribeSimulationInput{
		Simulation: aws.String(simulation),
	})
	if err != nil {
		return nil, c.fail("DescribeSimulation", simulation, err)
	}
	c.metrics.ObserveCall("DescribeSimulation", "ok")

	sim := &domain.Simulation{
		Name:         simulation,
		Arn:          aws.ToString(out.Arn),
		Status:       domain.SimulationStatus(out.Status),
		TargetStatus: string(out.TargetStatus),
		ClockStatus:  domain.ClockStatusUnknown,
	}
	if out.Name != nil {
		sim.Name = *out.Name
	}
	if sim.Status == "" {
		sim.Status = domain.SimulationStatusUnknown
	}

	if state := out.LiveSimulationState; state != nil {
		if len(state.Clocks) > 0 && state.Clocks[0].Status != "" {
			sim.ClockStatus = domain.ClockStatus(state.Clocks[0].Status)
		}
		for _, d := range state.Domains {
			sim.Domains = append(sim.Domains, aws.ToString(d.Name))
		}
	}

	return sim, nil
}

// StartSimulation запускает новую симуляцию и возвращает её ARN.
func (c *Client) StartSimulation(ctx context.Context, req domain.StartSimulationRequest) (string, error) {
	in := &simspaceweaver.StartSimulationInput{
		Name:        aws.String(req.Name),
		RoleArn:     aws.String(req.RoleArn),
		ClientToken: aws.String(uuid.NewString()),
	}
	if req.Description != "" {
		in.Description = aws.String(req.Description)
	}
	if req.MaximumDuration != "" {
		in.MaximumDuration = aws.String(req.MaximumDuration)
	}
	if req.FromSnapshot() {
		in.SnapshotS3Location = &types.S3Location{
			BucketName: aws.String(req.SnapshotBucket),
			ObjectKey:  aws.String(req.SnapshotKey),
		}
	} else {
		in.SchemaS3Location = &types.S3Location{
			BucketName: aws.String(req.SchemaBucket),
			ObjectKey:  aws.String(req.SchemaKey),
		}
	}

	out, err := c.api.StartSimulation(ctx, in)
	if err != nil {
		return "", c.fail("StartSimulation", req.Name, err)
	}
	c.metrics.ObserveCall("StartSimulation", "ok")

	return aws.ToString(out.Arn), nil
}

// StartApp запрашивает запуск app.
//
// ConflictException означает, что app уже запущен: возвращается
// AlreadyStarted без ошибки.
func (c *Client) StartApp(ctx context.Context, simulation, domainName, app string) (domain.StartOutcome, error) {
	_, err := c.api.StartApp(ctx, &simspaceweaver.StartAppInput{
		Simulation:  aws.String(simulation),
		Domain:      aws.String(domainName),
		Name:        aws.String(app),
		ClientToken: aws.String(uuid.NewString()),
	})
	if err != nil {
		if IsConflict(err) {
			c.metrics.ObserveCall("StartApp", "conflict")
			c.logger.Debug("app already started", "simulation", simulation, "app", app)
			return domain.AlreadyStarted, nil
		}
		return 0, c.fail("StartApp", simulation, err)
	}
	c.metrics.ObserveCall("StartApp", "ok")

	return domain.StartRequested, nil
}

// DescribeApp возвращает статус app.
func (c *Client) DescribeApp(ctx context.Context, simulation, domainName, app string) (*domain.App, error) {
	out, err := c.api.DescribeApp(ctx, &simspaceweaver.DescribeAppInput{
		Simulation: aws.String(simulation),
		Domain:     aws.String(domainName),
		App:        aws.String(app),
	})
	if err != nil {
		return nil, c.fail("DescribeApp", simulation, err)
	}
	c.metrics.ObserveCall("DescribeApp", "ok")

	status := domain.AppStatus(out.Status)
	if status == "" {
		status = domain.AppStatusUnknown
	}

	return &domain.App{
		Name:       app,
		Domain:     domainName,
		Simulation: simulation,
		Status:     status,
	}, nil
}

// StartClock запрашивает запуск часов симуляции.
func (c *Client) StartClock(ctx context.Context, simulation string) error {
	_, err := c.api.StartClock(ctx, &simspaceweaver.StartClockInput{
		Simulation: aws.String(simulation),
	})
	if err != nil {
		return c.fail("StartClock", simulation, err)
	}
	c.metrics.ObserveCall("StartClock", "ok")
	return nil
}

// CreateSnapshot запрашивает экспорт snapshot в S3.
// Пустое имя bucket передаётся сервису без проверки.
func (c *Client) CreateSnapshot(ctx context.Context, simulation string, dest domain.Destination) error {
	s3dest := &types.S3Destination{
		BucketName: aws.String(dest.BucketName),
	}
	if dest.ObjectKeyPrefix != "" {
		s3dest.ObjectKeyPrefix = aws.String(dest.ObjectKeyPrefix)
	}

	_, err := c.api.CreateSnapshot(ctx, &simspaceweaver.CreateSnapshotInput{
		Simulation:  aws.String(simulation),
		Destination: s3dest,
	})
	if err != nil {
		return c.fail("CreateSnapshot", simulation, err)
	}
	c.metrics.ObserveCall("CreateSnapshot", "ok")
	return nil
}

// fail учитывает и логирует ошибку вызова, возвращая её обёрнутой.
func (c *Client) fail(op, simulation string, err error) error {
	c.metrics.ObserveCall(op, "error")

	attrs := []any{"operation", op, "simulation", simulation, "error", err}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		attrs = append(attrs, "error_code", apiErr.ErrorCode())
	}
	c.logger.Warn("simspaceweaver call failed", attrs...)

	return fmt.Errorf("%s %s: %w", op, simulation, err)
}

// IsConflict проверяет, что ошибка — ConflictException сервиса.
func IsConflict(err error) bool {
	var conflict *types.ConflictException
	return errors.As(err, &conflict)
}

// IsNotFound проверяет, что симуляция или app не существуют.
func IsNotFound(err error) bool {
	var notFound *types.ResourceNotFoundException
	return errors.As(err, &notFound)
}
