package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// errNoStorage is returned when history is requested without a database.
var errNoStorage = errors.New("storage.path is not configured")

func newHistoryCommand(e *env) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [--limit n]",
		Short: "Prints recorded fetch attempts, newest first.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := e.open(ctx, nil)
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			if a.Store == nil {
				return errNoStorage
			}

			attempts, err := a.Store.History(ctx, limit)
			if err != nil {
				return err
			}

			if e.asJSON {
				return e.printJSON(attempts)
			}

			if len(attempts) == 0 {
				fmt.Fprintln(e.out, "No fetch attempts recorded yet.")

				return nil
			}

			e.renderAttempts(attempts)

			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of attempts to show")

	return cmd
}
