package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/shaiso/simsnap/internal/domain"
)

// NewSimulationCmd создаёт группу команд для управления симуляциями.
func NewSimulationCmd(localFn LocalFn, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulation",
		Short: "Manage simulations",
	}

	cmd.AddCommand(newSimulationStartCmd(localFn, outputFn))

	return cmd
}

func newSimulationStartCmd(localFn LocalFn, outputFn func() *Output) *cobra.Command {
	var req domain.StartSimulationRequest

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a simulation from a schema or a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateStartRequest(req); err != nil {
				return err
			}

			ctx := cmd.Context()
			out := outputFn()

			local, err := localFn(ctx)
			if err != nil {
				return err
			}

			arn, err := local.API.StartSimulation(ctx, req)
			if err != nil {
				return err
			}

			source := "schema"
			if req.FromSnapshot() {
				source = "snapshot"
			}

			out.Success("Simulation starting: " + req.Name)
			out.Print(
				[]string{"NAME", "ARN", "SOURCE"},
				[][]string{{req.Name, arn, source}},
				map[string]string{"name": req.Name, "arn": arn, "source": source},
			)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.Name, "name", "", "Simulation name (required)")
	flags.StringVar(&req.RoleArn, "role-arn", "", "IAM role the simulation assumes (required)")
	flags.StringVar(&req.SchemaBucket, "schema-bucket", "", "S3 bucket with the simulation schema")
	flags.StringVar(&req.SchemaKey, "schema-key", "", "S3 key of the simulation schema")
	flags.StringVar(&req.SnapshotBucket, "snapshot-bucket", "", "S3 bucket with a snapshot to start from")
	flags.StringVar(&req.SnapshotKey, "snapshot-key", "", "S3 key of the snapshot to start from")
	flags.StringVar(&req.MaximumDuration, "max-duration", "", "Maximum duration, e.g. 2D or 14H")
	flags.StringVar(&req.Description, "description", "", "Simulation description")

	return cmd
}

// validateStartRequest проверяет, что задан ровно один источник: схема или snapshot.
func validateStartRequest(req domain.StartSimulationRequest) error {
	if req.Name == "" {
		return errors.New("--name is required")
	}
	if req.RoleArn == "" {
		return errors.New("--role-arn is required")
	}

	schema := req.SchemaBucket != "" || req.SchemaKey != ""
	switch {
	case schema && req.FromSnapshot():
		return errors.New("use either --schema-* or --snapshot-* flags, not both")
	case req.FromSnapshot():
		if req.SnapshotBucket == "" || req.SnapshotKey == "" {
			return errors.New("--snapshot-bucket and --snapshot-key are both required")
		}
	default:
		if req.SchemaBucket == "" || req.SchemaKey == "" {
			return errors.New("--schema-bucket and --schema-key are required")
		}
	}
	return nil
}
