package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"kiosk/internal/config"
	"kiosk/internal/models"
	"kiosk/internal/pipeline"
)

func newFetchCommand(e *env) *cobra.Command {
	var strategies []string

	cmd := &cobra.Command{
		Use:   "fetch [--strategy name]...",
		Short: "Runs the acquisition pipeline once and prints the resulting slides.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := e.open(ctx, func(c *config.Config) {
				if len(strategies) > 0 {
					c.Pipeline.Strategies = strategies
				}
			})
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			set, runErr := a.Pipeline.Run(ctx)
			attempts := a.Pipeline.Attempts()

			if e.asJSON {
				out := struct {
					Set      *models.SlideSet      `json:"set,omitempty"`
					Error    string                `json:"error,omitempty"`
					Attempts []models.FetchAttempt `json:"attempts"`
					Stats    pipeline.AttemptStats `json:"stats"`
				}{Set: set, Attempts: attempts.Attempts(), Stats: attempts.GetAttemptStats()}

				if runErr != nil {
					out.Error = runErr.Error()
				}

				if err := e.printJSON(out); err != nil {
					return err
				}

				return runErr
			}

			e.renderAttempts(attempts.Attempts())

			if runErr != nil {
				return runErr
			}

			fmt.Fprintf(e.out, "\n📊 %d slides via %s (hash %.12s)\n", len(set.Slides), set.Strategy, set.Hash)
			e.renderSlides(set.Slides)

			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&strategies, "strategy", "s", nil, "Strategies to try, in order (defaults to the configured list)")

	return cmd
}

func (e *env) renderSlides(slides []models.Slide) {
	t := e.table()
	t.AppendHeader(table.Row{"#", "Title", "Campus", "Image"})

	for _, s := range slides {
		t.AppendRow(table.Row{s.Index + 1, s.Title, s.Campus, s.ImageURL})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 40},
		{Number: 4, WidthMax: 60},
	})
	t.Render()
}

func (e *env) renderAttempts(attempts []models.FetchAttempt) {
	t := e.table()
	t.AppendHeader(table.Row{"At", "Strategy", "OK", "HTTP", "Rows", "Took", "Error"})

	for _, a := range attempts {
		status := ""
		if a.StatusCode != 0 {
			status = fmt.Sprint(a.StatusCode)
		}

		t.AppendRow(table.Row{
			a.At.Format("2006-01-02 15:04:05"),
			a.Strategy,
			check(a.Success),
			status,
			a.Rows,
			a.Duration.Round(time.Millisecond),
			a.Error,
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{{Number: 7, WidthMax: 60}})
	t.Render()
}
