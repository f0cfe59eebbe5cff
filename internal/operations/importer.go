package operations

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/shelfview/internal/api"
	"github.com/blackwell-systems/shelfview/internal/ingest"
	"go.uber.org/zap"
)

// Importer is the subset of the API client used by ImportSpreadsheet.
type Importer interface {
	UploadSpreadsheet(ctx context.Context, path string) (string, error)
	ImportSpreadsheet(ctx context.Context, fileID string) (*api.ImportReport, error)
	DeleteSpreadsheetFile(ctx context.Context, fileID string) error
}

// spreadsheetExts are the file types the import endpoint accepts.
var spreadsheetExts = map[string]bool{".xlsx": true, ".xls": true, ".csv": true}

// ImportSpreadsheet uploads a spreadsheet, imports it and always removes the
// uploaded copy from the server afterwards, even if the import failed.
// This function is shared by both CLI (import) and TUI.
func ImportSpreadsheet(ctx context.Context, im Importer, path string, log *zap.Logger) (*api.ImportReport, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := checkSpreadsheet(path); err != nil {
		return nil, err
	}

	fileID, err := im.UploadSpreadsheet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	log.Info("spreadsheet uploaded", zap.String("file_id", fileID), zap.String("path", path))

	defer func() {
		// Cleanup runs even when ctx was cancelled.
		if err := im.DeleteSpreadsheetFile(context.WithoutCancel(ctx), fileID); err != nil {
			log.Warn("could not delete uploaded spreadsheet", zap.String("file_id", fileID), zap.Error(err))
		}
	}()

	rep, err := im.ImportSpreadsheet(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	log.Info("spreadsheet imported",
		zap.Int("success", rep.Success),
		zap.Int("failed", rep.Failed),
		zap.Int("duplicates", rep.Duplicates))
	return rep, nil
}

// checkSpreadsheet rejects inputs that are missing or not a spreadsheet.
// URLs are only checked by name; they are fetched during upload.
func checkSpreadsheet(path string) error {
	src, err := ingest.Resolve(path)
	if err != nil {
		return fmt.Errorf("spreadsheet: %w", err)
	}
	if !spreadsheetExts[strings.ToLower(filepath.Ext(src.Name))] {
		return &api.ValidationError{Fields: map[string]string{"file": "must be an .xlsx, .xls or .csv file"}}
	}
	return nil
}

// ReportLines renders an import report as summary lines: counts first, then
// one line per duplicate and per error.
func ReportLines(rep *api.ImportReport) []string {
	if rep == nil {
		return nil
	}
	lines := []string{fmt.Sprintf("%d imported, %d failed, %d duplicates", rep.Success, rep.Failed, rep.Duplicates)}
	for _, d := range rep.DuplicateDetails {
		lines = append(lines, fmt.Sprintf("duplicate (row %d): %s [%s]", d.Row, d.Title, d.ISBN))
	}
	for _, e := range rep.Errors {
		lines = append(lines, "error: "+e)
	}
	return lines
}
