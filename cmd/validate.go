package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/coi-cli/internal/batch"
	"github.com/sells-group/coi-cli/internal/extract"
	"github.com/sells-group/coi-cli/internal/model"
	"github.com/sells-group/coi-cli/pkg/portal"
)

var validatePost bool

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check one document's expiration and print the approval decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := extract.LoadFile(args[0])
		if err != nil {
			return err
		}

		var pc portal.Client
		if validatePost {
			if cfg.Portal.BaseURL == "" {
				return eris.New("validate: portal.base_url is required with --post (COI_PORTAL_BASE_URL)")
			}
			pc = initPortal(cfg.Portal)
		}
		return runValidate(cmd.Context(), initExtractor(cfg.Extract), pc, doc, time.Now().UTC(), os.Stdout)
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validatePost, "post", false, "post the decision to the portal")
	rootCmd.AddCommand(validateCmd)
}

// runValidate prints the decision as JSON and posts it when pc is set.
func runValidate(ctx context.Context, ex batch.Extractor, pc portal.Client, doc model.Document, today time.Time, w io.Writer) error {
	d, err := batch.Validate(ctx, ex, doc, today)
	if err != nil {
		return eris.Wrap(err, "validate")
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return eris.Wrap(err, "validate: write decision")
	}

	if pc == nil {
		return nil
	}
	if err := pc.PostDecision(ctx, doc.ID, d); err != nil {
		return eris.Wrapf(err, "validate: post decision for %s", doc.ID)
	}
	zap.L().Info("decision posted",
		zap.String("document", doc.ID),
		zap.Bool("approved", d.Status),
	)
	return nil
}
