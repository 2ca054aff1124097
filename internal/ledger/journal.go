package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"crypto-agentv1/internal/model"
)

// JSONLJournal appends one JSON object per line to a file — the durable
// trade journal consumed by offline analysis. Records are flushed to the
// OS on every write; the file is only ever opened in append mode.
type JSONLJournal struct {
	f *os.File
}

// NewJSONLJournal opens (or creates) the journal file for appending.
func NewJSONLJournal(path string) (*JSONLJournal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal open: %w", err)
	}
	return &JSONLJournal{f: f}, nil
}

// Record appends one trade as a JSON line.
func (j *JSONLJournal) Record(tr model.TradeRecord) error {
	b, err := json.Marshal(tr)
	if err != nil {
		return fmt.Errorf("journal marshal: %w", err)
	}
	if _, err := j.f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("journal append: %w", err)
	}
	return nil
}

// Close closes the journal file.
func (j *JSONLJournal) Close() error {
	return j.f.Close()
}

// ReadJournal loads all records from a JSONL journal file, in write order.
// Used by offline analysis and by journal-replay consistency checks.
func ReadJournal(path string) ([]model.TradeRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("journal read: %w", err)
	}
	var out []model.TradeRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var tr model.TradeRecord
		if err := dec.Decode(&tr); err != nil {
			return nil, fmt.Errorf("journal decode: %w", err)
		}
		out = append(out, tr)
	}
	return out, nil
}
