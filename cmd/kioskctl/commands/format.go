package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kiosk/internal/formatter"
	"kiosk/internal/normalizer"
	"kiosk/internal/tabular"
	"kiosk/internal/validator"
)

func newFormatCommand(e *env) *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "format <export.csv>",
		Short: "Pretty-prints a CSV export of the sheet and validates its columns.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			text := string(data)

			fmt.Fprint(e.out, formatter.New(width).CSV(text))

			rows, ok := tabular.ParseCSV(text)
			if !ok {
				return fmt.Errorf("%s has no data rows", args[0])
			}

			schema := validator.NewSchemaValidator()
			headers := schema.ValidateHeaders(tabular.CSVHeaders(text))
			result := schema.ValidateRows(rows)

			if e.asJSON {
				return e.printJSON(struct {
					Headers *validator.ValidationResult `json:"headers"`
					Rows    *validator.ValidationResult `json:"rows"`
				}{headers, result})
			}

			fmt.Fprintln(e.out)

			for _, r := range []*validator.ValidationResult{headers, result} {
				for _, w := range r.Warnings {
					fmt.Fprintf(e.out, "⚠️  %s\n", w)
				}
			}

			if err := headers.Err(); err != nil {
				return err
			}

			processed, err := normalizer.NewProcessor(nil, nil).Process(rows)
			if err != nil {
				return err
			}

			fmt.Fprintf(e.out, "✅ %d of %d rows become slides\n", processed.Report.Kept, processed.Report.Total)

			return nil
		},
	}

	cmd.Flags().IntVarP(&width, "width", "w", formatter.DefaultCellWidth, "Maximum cell width (0 disables truncation)")

	return cmd
}
