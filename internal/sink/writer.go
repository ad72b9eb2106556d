// Package sink persists the final contact list as CSV and JSON files.
package sink

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/sitescout/harvester/internal/harvest"
)

var csvHeader = []string{"name", "email", "phone", "designation", "department", "source_url", "method"}

// FileWriter writes run output under a directory, one CSV and one JSON file
// per run, timestamped. It satisfies harvest.ResultSink.
type FileWriter struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewFileWriter builds a writer rooted at dir (created if missing).
func NewFileWriter(dir string, logger *zap.Logger) *FileWriter {
	if dir == "" {
		dir = "output"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileWriter{dir: dir, logger: logger, now: time.Now}
}

// Write persists contacts and a stats summary.
func (w *FileWriter) Write(contacts []harvest.ContactRecord, stats harvest.StatsSnapshot) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	stamp := w.now().UTC().Format("2006-01-02T15-04-05")

	jsonPath := filepath.Join(w.dir, fmt.Sprintf("contacts_%s.json", stamp))
	if err := w.writeJSON(jsonPath, contacts, stats); err != nil {
		return err
	}
	csvPath := filepath.Join(w.dir, fmt.Sprintf("contacts_%s.csv", stamp))
	if err := w.writeCSV(csvPath, contacts); err != nil {
		return err
	}

	w.logger.Info("results written",
		zap.String("json", jsonPath),
		zap.String("csv", csvPath),
		zap.Int("contacts", len(contacts)),
	)
	return nil
}

func (w *FileWriter) writeJSON(path string, contacts []harvest.ContactRecord, stats harvest.StatsSnapshot) error {
	payload := struct {
		Stats    harvest.StatsSnapshot   `json:"stats"`
		Contacts []harvest.ContactRecord `json:"contacts"`
	}{Stats: stats, Contacts: contacts}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode contacts: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json output: %w", err)
	}
	return nil
}

func (w *FileWriter) writeCSV(path string, contacts []harvest.ContactRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, c := range contacts {
		row := []string{c.Name, c.Email, c.Phone, c.Designation, c.Department, c.SourceURL, c.Method}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}
