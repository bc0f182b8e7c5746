package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/coi-cli/internal/batch"
	"github.com/sells-group/coi-cli/internal/extract"
	"github.com/sells-group/coi-cli/internal/model"
	"github.com/sells-group/coi-cli/internal/report"
)

var (
	assessOut     string
	assessSheet   string
	assessPersist bool
)

var assessCmd = &cobra.Command{
	Use:   "assess <dir|file>",
	Short: "Assess certificate documents and write a review spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		docs, err := extract.Load(args[0])
		if err != nil {
			return err
		}

		a := &batch.Assessor{
			Extractor:   initExtractor(cfg.Extract),
			Options:     assessOptions(cfg.Assess),
			Concurrency: cfg.Batch.MaxConcurrentPartners,
		}
		if assessPersist {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			a.Store = st
		}

		sheet := assessSheet
		if sheet == "" {
			sheet = cfg.Assess.ReportSheet
		}
		return runAssess(ctx, a, docs, assessOut, sheet, report.RowOptions{DocumentURL: cfg.Portal.DocumentURL}, os.Stdout)
	},
}

func init() {
	assessCmd.Flags().StringVarP(&assessOut, "out", "o", "coi-review.xlsx", "output spreadsheet path")
	assessCmd.Flags().StringVar(&assessSheet, "sheet", "", "sheet name (defaults to assess.report_sheet)")
	assessCmd.Flags().BoolVar(&assessPersist, "persist", false, "save assessments to the configured store")
	rootCmd.AddCommand(assessCmd)
}

func runAssess(ctx context.Context, a *batch.Assessor, docs []model.Document, out, sheet string, opts report.RowOptions, w io.Writer) error {
	if len(docs) == 0 {
		zap.L().Info("no documents to assess")
		return nil
	}

	assessments, err := a.Assess(ctx, docs)
	if err != nil {
		return eris.Wrap(err, "assess")
	}

	if err := report.WriteXLSX(out, sheet, report.BuildRows(assessments, opts)); err != nil {
		return err
	}

	counts := map[model.Action]int{}
	for _, as := range assessments {
		counts[as.Result.Action]++
	}
	_, _ = fmt.Fprintf(w, "assessed %d documents: %d approve, %d reject, %d ignore -> %s\n",
		len(assessments),
		counts[model.ActionApprove],
		counts[model.ActionReject],
		counts[model.ActionIgnore],
		out,
	)
	return nil
}
