package sink

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cputracker/agent/internal/models"
)

// Writer persists aggregate records as indented JSON files. One run produces
// two independent writes: the noised record to the aggregator-readable path
// and the exact record to the owner-only path.
type Writer struct{}

// NewWriter creates a record writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write serializes record to path, overwriting any existing file. The
// destination directory must already exist; a missing or unwritable
// directory surfaces the I/O error to the caller unretried.
func (w *Writer) Write(record models.AggregateRecord, path string) error {
	data, err := json.MarshalIndent(record, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write record to %s: %w", path, err)
	}

	return nil
}
