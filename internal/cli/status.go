package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/simsnap/internal/domain"
	"github.com/shaiso/simsnap/internal/weaver"
)

// statusView — JSON вывод команды status.
type statusView struct {
	Simulation       *domain.Simulation `json:"simulation"`
	App              *domain.App        `json:"app,omitempty"`
	ReadyForSnapshot bool               `json:"ready_for_snapshot"`
}

// NewStatusCmd создаёт команду, показывающую состояние симуляции, app и часов.
func NewStatusCmd(localFn LocalFn, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status SIMULATION_NAME",
		Short: "Show simulation, app and clock status",
		Args:  simulationArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			local, err := localFn(ctx)
			if err != nil {
				return err
			}

			sim, err := local.API.DescribeSimulation(ctx, args[0])
			if err != nil {
				return err
			}

			view := statusView{Simulation: sim}
			appStatus := "-"

			// Пока симуляция не запущена, app в ней не существует
			if sim.Status.IsStarted() || sim.SnapshotInProgress() {
				app, err := local.API.DescribeApp(ctx, args[0], local.Config.Domain, local.Config.App)
				switch {
				case err == nil:
					view.App = app
					appStatus = string(app.Status)
				case weaver.IsNotFound(err):
				default:
					return err
				}
			}
			view.ReadyForSnapshot = domain.ReadyForSnapshot(sim, view.App)

			out.Print(
				[]string{"SIMULATION", "STATUS", "CLOCK", "APP", "APP_STATUS", "DOMAINS", "READY"},
				[][]string{{
					sim.Name,
					string(sim.Status),
					string(sim.ClockStatus),
					local.Config.Domain + "/" + local.Config.App,
					appStatus,
					strings.Join(sim.Domains, ","),
					strconv.FormatBool(view.ReadyForSnapshot),
				}},
				view,
			)
			return nil
		},
	}
}
