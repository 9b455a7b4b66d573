package audit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ExportFormat represents the serialization format for exported records
type ExportFormat string

const (
	ExportFormatCSV    ExportFormat = "csv"
	ExportFormatJSON   ExportFormat = "json"
	ExportFormatNDJSON ExportFormat = "ndjson"
)

// Export serializes records in the given format. CSV is the reporting
// default; JSON and NDJSON exist for machine consumers.
func Export(records []*Record, format ExportFormat) ([]byte, error) {
	switch format {
	case ExportFormatJSON:
		return exportJSON(records)
	case ExportFormatNDJSON:
		return exportNDJSON(records)
	case ExportFormatCSV, "":
		return exportCSV(records)
	default:
		return nil, fmt.Errorf("unsupported export format: %q", format)
	}
}

func exportJSON(records []*Record) ([]byte, error) {
	return json.MarshalIndent(records, "", "  ")
}

func exportNDJSON(records []*Record) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			return nil, fmt.Errorf("failed to encode record: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// exportCSV writes one row per record with a stable column order. Timestamps
// use RFC 3339 so exported rows sort lexicographically by time.
func exportCSV(records []*Record) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{
		"Timestamp",
		"Actor",
		"Target User",
		"Role",
		"Action",
		"Document",
		"Project",
	}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, record := range records {
		row := []string{
			record.Timestamp.UTC().Format(time.RFC3339),
			formatInt64Ptr(record.ActorID),
			formatInt64Ptr(record.TargetID),
			formatStringPtr(record.Role),
			string(record.Action),
			formatInt64Ptr(record.DocumentID),
			formatInt64Ptr(record.ProjectID),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func formatInt64Ptr(val *int64) string {
	if val == nil {
		return ""
	}
	return strconv.FormatInt(*val, 10)
}

func formatStringPtr(val *string) string {
	if val == nil {
		return ""
	}
	return *val
}
