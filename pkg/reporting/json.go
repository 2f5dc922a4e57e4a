package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quantfarm/seasonal-edge/internal/analyzer"
)

// JSONReporter writes results as indented JSON, one document per run.
type JSONReporter struct{}

// NewJSONReporter creates a JSON reporter.
func NewJSONReporter() *JSONReporter {
	return &JSONReporter{}
}

// Write saves a single result to path, creating parent directories.
func (r *JSONReporter) Write(res *analyzer.Result, path string) error {
	return writeJSON(res, path)
}

// WriteBatch saves a multi-symbol run as one document keyed by symbol.
// Failed symbols appear with their error string instead of a result.
func (r *JSONReporter) WriteBatch(results map[string]analyzer.JobResult, path string) error {
	type entry struct {
		Result *analyzer.Result `json:"result,omitempty"`
		Error  string           `json:"error,omitempty"`
	}
	doc := make(map[string]entry, len(results))
	for symbol, jr := range results {
		e := entry{Result: jr.Result}
		if jr.Error != nil {
			e.Error = jr.Error.Error()
		}
		doc[symbol] = e
	}
	return writeJSON(doc, path)
}

func writeJSON(v any, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
