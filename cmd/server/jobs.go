package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"hoa-http-service/internal/domain/jobs"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/domain/services/container"

	"github.com/spf13/cobra"
)

func jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and run scheduled jobs",
	}
	cmd.AddCommand(jobsListCmd())
	cmd.AddCommand(jobsRunCmd())
	return cmd
}

// newRunner wires a runner without starting the scheduler
func newRunner() (*jobs.Runner, func(), error) {
	cfg := loadConfig()
	pool, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	serviceContainer := container.NewServiceContainer(pool.GetDB(), cfg, services.NewRedisClient(cfg))
	return jobs.NewRunner(serviceContainer), func() { pool.Close() }, nil
}

func jobsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the jobs, their schedules and last run",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, closeFn, err := newRunner()
			if err != nil {
				return err
			}
			defer closeFn()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSCHEDULE\tLAST RUN\tPROCESSED\tSKIPPED\tFAILED")
			for _, name := range runner.Names() {
				job, _ := runner.Job(name)
				schedule := job.Schedule
				if schedule == "" {
					schedule = "disabled"
				}
				runs, err := runner.Runs(name, 1)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintf(w, "%s\t%s\tnever\t-\t-\t-\n", name, schedule)
					continue
				}
				last := runs[0]
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n", name, schedule, last.StartedAt.Format("2006-01-02 15:04:05"), last.Processed, last.Skipped, last.Failed)
			}
			return w.Flush()
		},
	}
}

func jobsRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [name]",
		Short: "Run one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, closeFn, err := newRunner()
			if err != nil {
				return err
			}
			defer closeFn()

			run, err := runner.RunNow(context.Background(), args[0])
			if run != nil {
				fmt.Printf("%s run %s: %d processed, %d skipped, %d failed\n", run.JobName, run.RunID, run.Processed, run.Skipped, run.Failed)
			}
			return err
		},
	}
}
