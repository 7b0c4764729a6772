package harvest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Store owns the on-disk checkpoint ledgers under the download
// directory, one pair of files per year plus a year directory for the
// downloaded invoice documents. i/o errors propagate untouched, the
// pipeline treats them as fatal and never retries.
type Store struct {
	dir string
}

func NewStore(dir string) Store {
	return Store{dir: dir}
}

func (s Store) yearLedgerPath(year int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d-order-ids.json", year))
}

func (s Store) detailsPath(year int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d-order-details.json", year))
}

// InvoiceDir is the year partition downloaded documents land in.
func (s Store) InvoiceDir(year int) string {
	return filepath.Join(s.dir, strconv.Itoa(year))
}

// ReadYearLedger loads the persisted id ledger. a year that was never
// harvested reports found=false, not an error.
func (s Store) ReadYearLedger(year int) (ledger YearLedger, found bool, err error) {
	err = readJson(s.yearLedgerPath(year), &ledger)
	if errors.Is(err, os.ErrNotExist) {
		return YearLedger{}, false, nil
	}
	if err != nil {
		return YearLedger{}, false, err
	}
	return ledger, true, nil
}

func (s Store) WriteYearLedger(ledger YearLedger) error {
	return writeJson(s.yearLedgerPath(ledger.Year), ledger)
}

// ReadYearDetails loads the detail ledger, an empty slice when none
// exists yet.
func (s Store) ReadYearDetails(year int) ([]OrderRecord, error) {
	var records []OrderRecord
	err := readJson(s.detailsPath(year), &records)
	if errors.Is(err, os.ErrNotExist) {
		return []OrderRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s Store) WriteYearDetails(year int, records []OrderRecord) error {
	return writeJson(s.detailsPath(year), records)
}

// AppendUniqueOrder appends candidate unless a record with the same id
// is already present. this is the dedup contract that makes resuming
// idempotent: re-running detail collection never duplicates a record.
func AppendUniqueOrder(records []OrderRecord, candidate OrderRecord) ([]OrderRecord, bool) {
	for _, r := range records {
		if r.Id == candidate.Id {
			return records, false
		}
	}
	return append(records, candidate), true
}

func readJson(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	err = json.Unmarshal(data, v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// writeJson replaces path via write-then-rename. a crash mid-write
// leaves the previous complete file in place, never a torn one.
func writeJson(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("create parent for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(data)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	err = tmp.Chmod(0o644)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file for %s: %w", path, err)
	}
	err = tmp.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	err = os.Rename(tmpPath, path)
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("atomic rename for %s: %w", path, err)
	}
	return nil
}
