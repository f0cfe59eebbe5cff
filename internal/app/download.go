package app

import (
	"github.com/blackwell-systems/shelfview/internal/cache"
	"github.com/blackwell-systems/shelfview/internal/operations"
	"github.com/blackwell-systems/shelfview/internal/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTemplateCmd() *cobra.Command {
	return newDownloadCmd("template [dir]",
		"Download the spreadsheet import template",
		"books-template.xlsx",
		func() operations.Fetch { return client.SpreadsheetTemplate })
}

func newExportCmd() *cobra.Command {
	return newDownloadCmd("export [dir]",
		"Export the catalog as a spreadsheet",
		"books-export.xlsx",
		func() operations.Fetch { return client.ExportBooks })
}

// newDownloadCmd builds a command that saves a binary endpoint into the
// downloads directory, or into dir when given. The client only exists once
// the command runs, so the fetch is resolved lazily.
func newDownloadCmd(use, short, fallback string, fetch func() operations.Fetch) *cobra.Command {
	opts := operations.DownloadOptions{Fallback: fallback}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := downloads
			if len(args) == 1 {
				store = cache.New(util.ExpandHome(args[0]))
			}
			saved, err := operations.Download(cmd.Context(), fetch(), store, opts)
			if err != nil {
				return err
			}
			ok("Saved %s (%s)", saved.Path, util.HumanBytes(saved.Size))
			logger.Debug("download saved", zap.String("path", saved.Path), zap.String("sha256", saved.SHA256))
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.Replace, "replace", false, "Overwrite an existing file of the same name")
	cmd.Flags().StringVar(&opts.SHA256, "sha256", "", "Expected SHA-256 of the download")
	return cmd
}
