package sink

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sitescout/harvester/internal/harvest"
)

func TestWriteProducesCSVAndJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := NewFileWriter(dir, zap.NewNop())
	w.now = func() time.Time {
		return time.Date(2026, 8, 26, 10, 30, 0, 0, time.UTC)
	}

	contacts := []harvest.ContactRecord{
		{Email: "jane.doe@example.edu", Name: "Jane Doe", Designation: "Professor", SourceURL: "https://example.edu/staff", Method: "card"},
		{Email: "info@example.edu", SourceURL: "https://example.edu/contact", Method: "text"},
	}
	stats := harvest.StatsSnapshot{
		RunID:        "run-1",
		TargetURL:    "https://example.edu",
		Phase:        "done",
		PagesScraped: 5,
		EmailsFound:  2,
	}

	require.NoError(t, w.Write(contacts, stats))

	csvPath := filepath.Join(dir, "contacts_2026-08-26T10-30-00.csv")
	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, csvHeader, rows[0])
	require.Equal(t, "Jane Doe", rows[1][0])
	require.Equal(t, "jane.doe@example.edu", rows[1][1])
	require.Equal(t, "info@example.edu", rows[2][1])

	jsonPath := filepath.Join(dir, "contacts_2026-08-26T10-30-00.json")
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var payload struct {
		Stats    harvest.StatsSnapshot   `json:"stats"`
		Contacts []harvest.ContactRecord `json:"contacts"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	require.Equal(t, "run-1", payload.Stats.RunID)
	require.Len(t, payload.Contacts, 2)
	require.Equal(t, "jane.doe@example.edu", payload.Contacts[0].Email)
}

func TestWriteCreatesOutputDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "out")
	w := NewFileWriter(dir, zap.NewNop())
	require.NoError(t, w.Write(nil, harvest.StatsSnapshot{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
