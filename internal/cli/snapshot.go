package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/simsnap/internal/controller"
	"github.com/shaiso/simsnap/internal/domain"
	"github.com/shaiso/simsnap/internal/runner"
)

// snapshotView — JSON вывод команды snapshot.
type snapshotView struct {
	Run    *domain.Run        `json:"run"`
	Result *controller.Result `json:"result,omitempty"`
}

// NewSnapshotCmd создаёт команду, которая доводит симуляцию до snapshot
// в текущем процессе.
func NewSnapshotCmd(localFn LocalFn, outputFn func() *Output) *cobra.Command {
	var mode string
	var interval time.Duration
	var maxAttempts int
	var backoff string
	var preDelay time.Duration
	var waitSnapshot bool

	cmd := &cobra.Command{
		Use:   "snapshot SIMULATION_NAME",
		Short: "Start app and clock, then take a snapshot",
		Args:  simulationArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			local, err := localFn(ctx)
			if err != nil {
				return err
			}

			wait := local.Config.Wait
			snap := local.Config.Snapshot

			flags := cmd.Flags()
			if flags.Changed("mode") {
				wait.Mode = domain.WaitMode(mode)
			}
			if flags.Changed("interval") {
				wait.InitialDelay = interval
			}
			if flags.Changed("max-attempts") {
				wait.MaxAttempts = maxAttempts
			}
			if flags.Changed("backoff") {
				wait.Backoff = backoff
			}
			if flags.Changed("pre-snapshot-delay") {
				snap.PreSnapshotDelay = preDelay
			}
			if flags.Changed("wait-snapshot") {
				snap.WaitForCompletion = waitSnapshot
			}
			if err := wait.Validate(); err != nil {
				return err
			}

			driver := controller.New(controller.Config{
				API:      local.API,
				Domain:   local.Config.Domain,
				App:      local.Config.App,
				Wait:     &wait,
				Snapshot: snap,
				Logger:   local.Logger,
				Metrics:  local.Metrics,
			})

			r := runner.New(runner.Config{
				Driver:  driver,
				Store:   local.Store,
				Metrics: local.Metrics,
				Logger:  local.Logger,
			})

			run, res, err := r.Start(ctx, args[0], domain.TriggerCLI)
			if err != nil {
				return err
			}

			if res.Ready() {
				out.Success("Snapshot requested: " + run.Destination)
			} else {
				out.Success("Not ready: " + string(res.NotReady))
			}

			out.Print(
				[]string{"RUN_ID", "SIMULATION", "STATUS", "STAGE", "SNAPSHOT_TAKEN", "POLLS", "DESTINATION"},
				[][]string{{
					run.ID.String(),
					run.Simulation,
					string(run.Status),
					string(run.Stage),
					strconv.FormatBool(run.SnapshotTaken),
					strconv.Itoa(res.Polls),
					run.Destination,
				}},
				snapshotView{Run: run, Result: res},
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(domain.WaitModePoll), "Wait mode (poll, once)")
	cmd.Flags().DurationVar(&interval, "interval", domain.DefaultWaitInterval, "Delay between status polls")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "Maximum status polls per stage (0 = unlimited)")
	cmd.Flags().StringVar(&backoff, "backoff", domain.BackoffFixed, "Backoff strategy (fixed, exponential)")
	cmd.Flags().DurationVar(&preDelay, "pre-snapshot-delay", 0, "Pause before CreateSnapshot")
	cmd.Flags().BoolVar(&waitSnapshot, "wait-snapshot", false, "Wait until the snapshot is written")

	return cmd
}
