package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
)

// ImportReport is the outcome of importing an uploaded spreadsheet.
type ImportReport struct {
	Success          int               `json:"success"`
	Failed           int               `json:"failed"`
	Duplicates       int               `json:"duplicates"`
	DuplicateDetails []DuplicateDetail `json:"duplicateDetails"`
	Errors           []string          `json:"errors"`
}

// DuplicateDetail describes a spreadsheet row skipped as a duplicate.
type DuplicateDetail struct {
	Row   int    `json:"row"`
	Title string `json:"title"`
	ISBN  string `json:"isbn"`
}

// UploadSpreadsheet uploads a spreadsheet, given as a local path or an
// http(s) URL, and returns the server's file ID.
func (c *Client) UploadSpreadsheet(ctx context.Context, path string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := c.attachFile(ctx, mw, "file", path); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("imports", "upload"), &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.do(ctx, req, true)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return "", err
	}
	var res struct {
		FileID string `json:"fileId"`
	}
	if err := decode("upload spreadsheet", resp.Body, &res); err != nil {
		return "", err
	}
	return res.FileID, nil
}

// ImportSpreadsheet imports a previously uploaded spreadsheet.
func (c *Client) ImportSpreadsheet(ctx context.Context, fileID string) (*ImportReport, error) {
	var rep ImportReport
	if err := c.doJSON(ctx, http.MethodPost, c.url("imports", fileID), nil, &rep, true); err != nil {
		return nil, err
	}
	return &rep, nil
}

// DeleteSpreadsheetFile removes an uploaded spreadsheet from the server.
func (c *Client) DeleteSpreadsheetFile(ctx context.Context, fileID string) error {
	return c.doJSON(ctx, http.MethodDelete, c.url("imports", fileID), nil, nil, true)
}

// SpreadsheetTemplate downloads the blank import template.
// Caller is responsible for closing the returned ReadCloser.
func (c *Client) SpreadsheetTemplate(ctx context.Context) (io.ReadCloser, string, error) {
	return c.doBinary(ctx, c.url("imports", "template"))
}
