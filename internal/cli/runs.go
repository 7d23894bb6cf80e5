package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewRunsCmd создаёт группу команд для истории runs (через API).
func NewRunsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect and request snapshot runs via the API",
	}

	cmd.AddCommand(
		newRunsListCmd(clientFn, outputFn),
		newRunsShowCmd(clientFn, outputFn),
		newRunsRequestCmd(clientFn, outputFn),
	)

	return cmd
}

var runHeaders = []string{"ID", "SIMULATION", "TRIGGER", "STATUS", "STAGE", "SNAPSHOT", "CREATED"}

func runRow(r RunResponse) []string {
	return []string{r.ID, r.Simulation, r.Trigger, r.Status, r.Stage, strconv.FormatBool(r.SnapshotTaken), r.CreatedAt}
}

func newRunsListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListRunsOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runs, err := client.ListRuns(cmd.Context(), opts)
			if err != nil {
				return err
			}

			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = runRow(r)
			}

			out.Print(runHeaders, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Simulation, "simulation", "", "Filter by simulation name")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status (PENDING, RUNNING, SUCCEEDED, NOT_READY, FAILED)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Number of results to skip")

	return cmd
}

func newRunsShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "SIMULATION", "STATUS", "STAGE", "DESTINATION", "ERROR", "DURATION_MS"},
				[][]string{{run.ID, run.Simulation, run.Status, run.Stage, run.Destination, run.Error, strconv.FormatInt(run.DurationMs, 10)}},
				run,
			)
			return nil
		},
	}
}

func newRunsRequestCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "request SIMULATION_NAME",
		Short: "Queue a snapshot run for the worker",
		Args:  simulationArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.RequestSnapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run queued: %s", run.ID))
			out.Print(runHeaders, [][]string{runRow(*run)}, run)
			return nil
		},
	}
}
