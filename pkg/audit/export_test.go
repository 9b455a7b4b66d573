package audit

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellum-app/vellum/pkg/roles"
)

func sampleRecords() []*Record {
	role := roles.DocumentEditor
	shared := DocumentRecord(1, 2, 100, 10, ActionShared, &role)
	shared.ID = 1
	shared.Timestamp = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	unshared := DocumentRecord(1, 2, 100, 10, ActionUnshared, nil)
	unshared.ID = 2
	unshared.Timestamp = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	return []*Record{unshared, shared}
}

func TestExportCSV(t *testing.T) {
	data, err := Export(sampleRecords(), ExportFormatCSV)
	require.NoError(t, err)

	reader := csv.NewReader(strings.NewReader(string(data)))
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Timestamp", "Actor", "Target User", "Role", "Action", "Document", "Project"}, rows[0])
	assert.Equal(t, []string{"2026-03-15T10:00:00Z", "1", "2", "", "unshared", "100", "10"}, rows[1])
	assert.Equal(t, []string{"2026-03-14T09:26:53Z", "1", "2", "editor", "shared", "100", "10"}, rows[2])
}

func TestExportCSVDeterministic(t *testing.T) {
	records := sampleRecords()
	first, err := Export(records, ExportFormatCSV)
	require.NoError(t, err)
	second, err := Export(records, ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExportJSON(t *testing.T) {
	data, err := Export(sampleRecords(), ExportFormatJSON)
	require.NoError(t, err)

	var decoded []*Record
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, ActionUnshared, decoded[0].Action)
	assert.Nil(t, decoded[0].Role)
	require.NotNil(t, decoded[1].Role)
	assert.Equal(t, "editor", *decoded[1].Role)
}

func TestExportNDJSON(t *testing.T) {
	data, err := Export(sampleRecords(), ExportFormatNDJSON)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var decoded Record
		require.NoError(t, json.Unmarshal([]byte(line), &decoded))
	}
}

func TestExportDefaultsToCSV(t *testing.T) {
	data, err := Export(sampleRecords(), "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Timestamp,"))
}

func TestExportUnsupportedFormat(t *testing.T) {
	_, err := Export(sampleRecords(), ExportFormat("xml"))
	assert.Error(t, err)
}
