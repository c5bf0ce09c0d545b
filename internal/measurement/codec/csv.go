package codec

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	measurementdomain "github.com/smallbiznis/sensorlog/internal/measurement/domain"
)

const (
	csvDelimiter = ';'
	// minImportFields is the smallest row accepted in either layout.
	minImportFields = 4
)

// ExportHeader is the first line of every CSV export.
var ExportHeader = []string{
	"ID",
	"Sensor Name",
	"Messwert",
	"Einheit",
	"Zeitstempel",
	"Standort",
	"Beschreibung",
	"Erstellt von",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is one decoded data row of an import file. Line counts data rows
// starting at 1; the header is not counted.
type Row struct {
	Line    int
	Request measurementdomain.CreateRequest
	// Err is set when the row could not be parsed at all.
	Err error
}

// ReadStats summarizes rows that never reached the visitor.
type ReadStats struct {
	Skipped int
}

// layout maps column positions of an import file.
type layout struct {
	sensor, value, unit, timestamp, location, description int
}

var (
	// plainLayout is sensor;value;unit;location;description.
	plainLayout = layout{sensor: 0, value: 1, unit: 2, timestamp: -1, location: 3, description: 4}
	// exportLayout reads files produced by WriteCSV.
	exportLayout = layout{sensor: 1, value: 2, unit: 3, timestamp: 4, location: 5, description: 6}
)

// ReadCSV decodes a ';' separated import file. The first line is a header
// and is skipped. Rows with fewer than four fields are skipped silently.
// A header starting with "ID" selects the export column layout, in which
// case the Zeitstempel column is kept. visit is called once per data row;
// returning an error from it aborts the read.
func ReadCSV(r io.Reader, loc *time.Location, visit func(Row) error) (ReadStats, error) {
	var stats ReadStats
	if loc == nil {
		loc = time.UTC
	}

	reader := csv.NewReader(skipBOM(r))
	reader.Comma = csvDelimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return stats, nil
	}
	if err != nil && !isParseError(err) {
		return stats, err
	}

	cols := plainLayout
	if len(header) > 0 && strings.EqualFold(strings.TrimSpace(header[0]), ExportHeader[0]) {
		cols = exportLayout
	}
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		line++
		if err != nil {
			if !isParseError(err) {
				return stats, err
			}
			if verr := visit(Row{Line: line, Err: err}); verr != nil {
				return stats, verr
			}
			continue
		}
		if len(record) < minImportFields {
			stats.Skipped++
			continue
		}
		if err := visit(Row{Line: line, Request: cols.request(record, loc)}); err != nil {
			return stats, err
		}
	}
}

func (l layout) request(record []string, loc *time.Location) measurementdomain.CreateRequest {
	value := ParseValue(field(record, l.value))
	req := measurementdomain.CreateRequest{
		SensorName:  strings.TrimSpace(field(record, l.sensor)),
		Value:       &value,
		Unit:        strings.TrimSpace(field(record, l.unit)),
		Location:    strings.TrimSpace(field(record, l.location)),
		Description: strings.TrimSpace(field(record, l.description)),
	}
	if raw := strings.TrimSpace(field(record, l.timestamp)); raw != "" {
		if ts, err := time.ParseInLocation(TimestampLayout, raw, loc); err == nil {
			req.Timestamp = &ts
		}
	}
	return req
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

var numericPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParseValue reads a measured value leniently: a comma decimal separator is
// accepted, trailing garbage is ignored and anything unreadable becomes 0.
func ParseValue(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	prefix := numericPrefix.FindString(s)
	if prefix == "" {
		return 0
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0
	}
	return v
}

// WriteCSV writes items with the export header.
func WriteCSV(w io.Writer, items []measurementdomain.Response, loc *time.Location) error {
	writer := csv.NewWriter(w)
	writer.Comma = csvDelimiter

	if err := writer.Write(ExportHeader); err != nil {
		return err
	}
	for _, item := range items {
		record := []string{
			item.ID,
			item.SensorName,
			strconv.FormatFloat(item.Value, 'f', 4, 64),
			item.Unit,
			formatTimestamp(item.Timestamp, loc),
			item.Location,
			item.Description,
			item.CreatedBy,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

func isParseError(err error) bool {
	var parseErr *csv.ParseError
	return errors.As(err, &parseErr)
}
