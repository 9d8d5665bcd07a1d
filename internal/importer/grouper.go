// Package importer turns chat export CSV files into per-phone message groups.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Victor-talka/talka-history/internal/models"

	"go.uber.org/zap"
)

// minRowFields is timestamp, phone number and content; from_me is optional.
const minRowFields = 3

// ErrInvalidEncoding is returned when the CSV body is not valid UTF-8
var ErrInvalidEncoding = errors.New("file is not valid UTF-8")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// fromMeValues are the accepted spellings of a true from_me flag
var fromMeValues = map[string]bool{
	"true": true,
	"1":    true,
	"sim":  true,
	"você": true,
}

// ParsedMessage is one message derived from a CSV row
type ParsedMessage struct {
	Content       string
	Timestamp     time.Time
	FromMe        bool
	MessageType   models.MessageType
	MediaURL      *string
	MediaFilename *string
}

// Group holds the messages of one phone number in CSV row order
type Group struct {
	PhoneNumber string
	Messages    []ParsedMessage
}

// LatestTimestamp returns the maximum message timestamp of the group
func (g Group) LatestTimestamp() time.Time {
	var latest time.Time
	for _, msg := range g.Messages {
		if msg.Timestamp.After(latest) {
			latest = msg.Timestamp
		}
	}
	return latest
}

// Result is the output of GroupRows
type Result struct {
	// Groups are ordered by the first appearance of each phone number.
	Groups      []Group
	RowsTotal   int
	RowsSkipped int
}

// MessageCount returns the number of messages across all groups
func (r Result) MessageCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Messages)
	}
	return n
}

// Records is the raw content of a CSV file
type Records struct {
	Rows [][]string
	// Malformed counts lines the CSV reader rejected.
	Malformed int
}

// ReadCSV reads every record of a CSV body. Lines the CSV reader rejects
// are counted and dropped; only I/O and encoding failures are errors.
func ReadCSV(r io.Reader) (*Records, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records := &Records{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				records.Malformed++
				continue
			}
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}
		records.Rows = append(records.Rows, row)
	}

	return records, nil
}

// IsHeader reports whether a first row looks like a header: none of its
// fields is a pure-digit token. A data row without any numeric-only field
// (e.g. "+5511..." phones) is misread as a header.
func IsHeader(row []string) bool {
	for _, field := range row {
		if isDigits(field) {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// GroupRows converts CSV rows into per-phone message groups. Rows with too
// few fields or an unparseable timestamp are skipped, and a row that fails
// unexpectedly is logged and skipped without aborting the batch.
func GroupRows(rows [][]string, log *zap.Logger) Result {
	var result Result
	if len(rows) == 0 {
		return result
	}

	if IsHeader(rows[0]) {
		rows = rows[1:]
	}

	index := make(map[string]int)
	for i, row := range rows {
		result.RowsTotal++

		msg, phone, ok := parseRow(row, i, log)
		if !ok {
			result.RowsSkipped++
			continue
		}

		pos, exists := index[phone]
		if !exists {
			pos = len(result.Groups)
			index[phone] = pos
			result.Groups = append(result.Groups, Group{PhoneNumber: phone})
		}
		result.Groups[pos].Messages = append(result.Groups[pos].Messages, msg)
	}

	return result
}

func parseRow(row []string, line int, log *zap.Logger) (msg ParsedMessage, phone string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("Skipping csv row",
				zap.Int("row", line),
				zap.Any("error", r),
			)
			ok = false
		}
	}()

	if len(row) < minRowFields {
		return msg, "", false
	}

	timestamp, parsed := ParseTimestamp(row[0])
	if !parsed {
		return msg, "", false
	}

	phone = strings.TrimSpace(row[1])
	content := strings.TrimSpace(row[2])
	fromMe := len(row) > minRowFields && fromMeValues[strings.ToLower(strings.TrimSpace(row[3]))]
	media := ClassifyMedia(content)

	return ParsedMessage{
		Content:       content,
		Timestamp:     timestamp,
		FromMe:        fromMe,
		MessageType:   media.Type,
		MediaURL:      media.URL,
		MediaFilename: media.Filename,
	}, phone, true
}
