package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/coi-cli/internal/model"
	"github.com/sells-group/coi-cli/internal/store"
)

var assessmentsCmd = &cobra.Command{
	Use:   "assessments",
	Short: "List persisted assessments",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		partner, _ := cmd.Flags().GetString("partner")
		action, _ := cmd.Flags().GetString("action")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.AssessmentFilter{PartnerID: partner, Limit: limit}
		if action != "" {
			act, err := model.ParseAction(action)
			if err != nil {
				return eris.Wrap(err, "assessments: --action")
			}
			filter.Action = act
		}

		list, err := st.ListAssessments(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "assessments list")
		}

		if len(list) == 0 {
			fmt.Fprintln(os.Stderr, "No assessments found.")
			return nil
		}

		formatAssessmentsList(os.Stdout, list)
		return nil
	},
}

func init() {
	assessmentsCmd.Flags().String("partner", "", "filter by trading partner id")
	assessmentsCmd.Flags().String("action", "", "filter by action (approve, reject, ignore)")
	assessmentsCmd.Flags().Int("limit", 20, "max number of assessments to show")
	rootCmd.AddCommand(assessmentsCmd)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func formatAssessmentsList(out io.Writer, list []model.Assessment) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPARTNER\tDOCUMENT\tACTION\tEXPIRES\tASSESSED\tREASONS")
	_, _ = fmt.Fprintln(w, "--\t-------\t--------\t------\t-------\t--------\t-------")

	for _, a := range list {
		partner := a.Document.Partner.Name
		if partner == "" {
			partner = a.Document.Partner.ID
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(a.ID),
			truncate(partner, 30),
			truncate(a.Document.ID, 20),
			a.Result.Action,
			a.Result.MinExpireDate,
			a.AssessedAt.Format("2006-01-02 15:04"),
			truncate(a.Result.Message, 60),
		)
	}
	_ = w.Flush()
}
