package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TempIDPrefix marks ids minted on the client before the server confirms a task.
// Server ids never carry it.
const TempIDPrefix = "temp_"

// ID is an opaque task identifier. Spreadsheet rows often come back with
// numeric ids, so both JSON strings and numbers decode into it.
type ID string

// NewTempID returns a unique, time-ordered placeholder id.
func NewTempID() ID {
	u, err := uuid.NewV7()
	if err != nil {
		u = uuid.New()
	}
	return ID(TempIDPrefix + u.String())
}

func (id ID) IsTemp() bool { return strings.HasPrefix(string(id), TempIDPrefix) }

func (id ID) String() string { return string(id) }

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Timestamp wraps time.Time with the lenient decoding a spreadsheet backend needs:
// empty strings and null decode to the zero time, numbers are unix milliseconds.
// Text no layout understands decodes to the zero time and is kept in Raw, so a
// single odd cell never fails a whole row.
type Timestamp struct {
	time.Time
	Raw string
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	time.RFC1123,
	time.RFC1123Z,
	// Date.prototype.toString, with the zone name in parentheses stripped.
	"Mon Jan 02 2006 15:04:05 GMT-0700",
}

// Unparsed reports whether the source text could not be read as a time.
func (t Timestamp) Unparsed() bool { return t.Raw != "" }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return json.Marshal(t.Raw)
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	if b[0] != '"' {
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		ms, err := n.Float64()
		if err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		*t = Timestamp{Time: time.UnixMilli(int64(math.Round(ms))).UTC()}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		*t = Timestamp{Raw: strings.TrimSpace(s)}
		return nil
	}
	*t = parsed
	return nil
}

// ParseTimestamp accepts the formats a spreadsheet row tends to hold.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	if i := strings.Index(s, " ("); i > 0 && strings.HasSuffix(s, ")") {
		s = s[:i]
	}
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: v}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("timestamp: unrecognised format %q", s)
}
