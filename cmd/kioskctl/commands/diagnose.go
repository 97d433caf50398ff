package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"kiosk/internal/app"
	"kiosk/internal/config"
	"kiosk/internal/kiosk"
)

func enableDiagnostics(c *config.Config) {
	c.Features.EnableDiagnostics = true
	c.Features.SchemaWarnings = true
}

func newTestConnectionCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "test-connection",
		Short: "Checks the spreadsheet endpoints and runs one refresh.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := e.open(ctx, enableDiagnostics)
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			report := a.Diagnostics.TestConnection(ctx)

			if e.asJSON {
				return e.printJSON(report)
			}

			fmt.Fprintf(e.out, "📄 %s\n", report.SpreadsheetURL)
			fmt.Fprintf(e.out, "🔑 API key provided: %s\n\n", check(report.APIKeyProvided))

			t := e.table()
			t.AppendHeader(table.Row{"Check", "OK", "Detail"})
			t.AppendRow(table.Row{"values API", check(report.Values.OK), valuesDetail(report.Values)})
			t.AppendRow(table.Row{"refresh", check(report.Refresh.OK), refreshDetail(report.Refresh)})
			t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, WidthMax: 70}})
			t.Render()

			if report.Values.Schema != nil {
				for _, w := range report.Values.Schema.Warnings {
					fmt.Fprintf(e.out, "⚠️  %s\n", w)
				}

				for _, ve := range report.Values.Schema.Errors {
					fmt.Fprintf(e.out, "❌ %s\n", ve.Error())
				}
			}

			if !report.Refresh.OK {
				fmt.Fprintln(e.out, "\nChecklist:")

				for _, item := range report.Checklist {
					fmt.Fprintf(e.out, "  - %s\n", item)
				}

				return errors.New("connection test failed")
			}

			return nil
		},
	}
}

func valuesDetail(v kiosk.ValuesCheck) string {
	if !v.OK {
		if v.StatusCode != 0 {
			return fmt.Sprintf("HTTP %d: %s", v.StatusCode, v.Error)
		}

		return v.Error
	}

	return fmt.Sprintf("%d rows, headers: %s", v.TotalRows, strings.Join(v.Headers, ", "))
}

func refreshDetail(r kiosk.RefreshCheck) string {
	if !r.OK {
		return r.Error
	}

	return fmt.Sprintf("%d slides", len(r.Slides))
}

func newTestImageCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "test-image <url>",
		Short: "Normalizes one image address and checks that it loads.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := e.open(ctx, enableDiagnostics)
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			result := a.Diagnostics.TestImageURL(ctx, args[0])

			if e.asJSON {
				return e.printJSON(result)
			}

			e.renderImageTests([]kiosk.ImageTest{result})

			if !result.IsValid {
				return errors.New("image did not load")
			}

			return nil
		},
	}
}

func newTestImagesCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "test-images",
		Short: "Fetches the sheet and checks every slide image.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := e.open(ctx, enableDiagnostics)
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			if err := a.Diagnostics.RefreshData(ctx); err != nil {
				return err
			}

			results, err := a.Diagnostics.TestAllImages(ctx)
			if err != nil {
				return err
			}

			if e.asJSON {
				return e.printJSON(results)
			}

			e.renderImageTests(results)

			return nil
		},
	}
}

func (e *env) renderImageTests(results []kiosk.ImageTest) {
	t := e.table()
	t.AppendHeader(table.Row{"Title", "Rule", "Converted", "OK", "Detail"})

	for _, r := range results {
		detail := ""
		if r.Check != nil {
			detail = r.Check.ContentType
			if r.Check.Error != "" {
				detail = r.Check.Error
			}
		}

		t.AppendRow(table.Row{r.Title, r.Rule, r.Converted, check(r.IsValid), detail})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: 30},
		{Number: 3, WidthMax: 70},
	})
	t.Render()
}

func newURLsCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "urls [url]...",
		Short: "Shows how image addresses are rewritten. Without arguments, runs the built-in samples.",
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := e.config()
			if err != nil {
				return err
			}

			images := app.NewImages(cfg, e.logger(cfg))
			diag := kiosk.NewDiagnostics(nil, nil, nil, images, cfg.Source.SheetName, cfg.Source.APIKey != "")

			cases := diag.TestURLTypes()
			if len(args) > 0 {
				cases = cases[:0]

				for _, raw := range args {
					res := images.Explain(raw)
					cases = append(cases, kiosk.URLTypeCase{
						Name:   raw,
						Input:  res.Original,
						Output: res.Converted,
						Rule:   res.Rule,
						Valid:  res.IsDirect,
					})
				}
			}

			if e.asJSON {
				return e.printJSON(cases)
			}

			t := e.table()
			t.AppendHeader(table.Row{"Name", "Rule", "Output", "OK"})

			for _, c := range cases {
				t.AppendRow(table.Row{c.Name, c.Rule, c.Output, check(c.Valid)})
			}

			t.SetColumnConfigs([]table.ColumnConfig{
				{Number: 1, WidthMax: 40},
				{Number: 3, WidthMax: 70},
			})
			t.Render()

			return nil
		},
	}
}
