package operations

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blackwell-systems/shelfview/internal/api"
	"github.com/blackwell-systems/shelfview/internal/ingest"
	"github.com/blackwell-systems/shelfview/internal/util"
)

// LedgerEntry records one completed spreadsheet import.
type LedgerEntry struct {
	Source     string    `json:"source"`           // path or URL as given
	Key        string    `json:"key"`              // content sha256, or the URL
	Success    int       `json:"success"`
	Failed     int       `json:"failed"`
	Duplicates int       `json:"duplicates"`
	Timestamp  time.Time `json:"timestamp"`
}

// Ledger is a JSONL append-only log of imported spreadsheets, used to warn
// before importing the same file twice.
type Ledger struct {
	path string
}

// OpenLedger opens (or creates the directory of) the ledger at path.
func OpenLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}
	return &Ledger{path: path}, nil
}

// LedgerKey identifies a spreadsheet: the sha256 of a local file's content,
// or the URL itself.
func LedgerKey(input string) (string, error) {
	if ingest.IsURL(input) {
		return input, nil
	}
	return util.SHA256File(input)
}

// Record appends the outcome of importing source.
func (l *Ledger) Record(source, key string, rep *api.ImportReport) error {
	e := LedgerEntry{Source: source, Key: key, Timestamp: time.Now().UTC()}
	if rep != nil {
		e.Success, e.Failed, e.Duplicates = rep.Success, rep.Failed, rep.Duplicates
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, string(data))
	return err
}

// Find returns the most recent entry with the given key.
func (l *Ledger) Find(key string) (*LedgerEntry, error) {
	entries, err := l.Entries()
	if err != nil {
		return nil, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Key == key {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// Entries returns all ledger entries, oldest first. Malformed lines are
// skipped.
func (l *Ledger) Entries() ([]LedgerEntry, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []LedgerEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e LedgerEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}
