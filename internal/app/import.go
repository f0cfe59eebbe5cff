package app

import (
	"fmt"
	"path/filepath"

	"github.com/blackwell-systems/shelfview/internal/ingest"
	"github.com/blackwell-systems/shelfview/internal/operations"
	"github.com/blackwell-systems/shelfview/internal/util"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newImportCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import <file|url>",
		Short: "Import books from a spreadsheet (.xlsx, .xls or .csv)",
		Long: `Import books from a spreadsheet.

The file is uploaded, imported and then removed from the server. Rows whose
ISBN already exists are reported as duplicates. Use 'shelfview template' to
download a spreadsheet with the expected columns.

Every import is recorded locally; importing the same file again asks for
--force.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if !ingest.IsURL(input) {
				input = util.ExpandHome(input)
			}

			ledger, err := operations.OpenLedger(ledgerPath())
			if err != nil {
				return fmt.Errorf("opening import ledger: %w", err)
			}
			key, err := operations.LedgerKey(input)
			if err != nil {
				return err
			}
			if prev, err := ledger.Find(key); err != nil {
				logger.Warn("reading import ledger", zap.Error(err))
			} else if prev != nil && !force {
				return fmt.Errorf("%s was already imported on %s (%d imported); use --force to import it again",
					input, prev.Timestamp.Local().Format("2006-01-02 15:04"), prev.Success)
			}

			fmt.Printf("Importing %s...\n", input)
			rep, err := operations.ImportSpreadsheet(cmd.Context(), client, input, logger.Named("import"))
			if err != nil {
				return err
			}
			if err := ledger.Record(input, key, rep); err != nil {
				warn("Could not record import: %v", err)
			}

			lines := operations.ReportLines(rep)
			if rep.Failed > 0 || len(rep.Errors) > 0 {
				warn("%s", lines[0])
			} else {
				ok("%s", lines[0])
			}
			for _, l := range lines[1:] {
				fmt.Println("  " + color.YellowString(l))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Import even if this file was imported before")
	return cmd
}

// ledgerPath keeps the import ledger next to the session file.
func ledgerPath() string {
	return filepath.Join(filepath.Dir(cfg.Session.Path), "imports.jsonl")
}
