package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Flag is a boolean field read from the remote record store.
// Unreadable values decode to false so the rules fail toward raising an alert.
type Flag bool

// UnmarshalJSON accepts booleans, numbers and the usual checkbox spellings.
// It never returns an error.
func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = Flag(parseFlag(data))
	return nil
}

func parseFlag(data []byte) bool {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return false
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		return b
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		return n != 0
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "checked", "x", "on":
		return true
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return n != 0
	}
	return false
}

// Note is a free-text field. Blank and whitespace-only text counts as no note.
type Note string

// Present reports whether the note contains anything besides whitespace.
func (n Note) Present() bool {
	return strings.TrimSpace(string(n)) != ""
}

// Trimmed returns the note without surrounding whitespace.
func (n Note) Trimmed() string {
	return strings.TrimSpace(string(n))
}

// UnmarshalJSON keeps non-string values as their raw JSON text so a malformed
// note still counts as present.
func (n *Note) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = Note(s)
		return nil
	}

	*n = Note(string(data))
	return nil
}

// UnmarshalJSON decodes a record leniently: a numeric id is kept as text and an
// unreadable days_until is treated as unknown instead of failing the whole record.
func (e *EventRecord) UnmarshalJSON(data []byte) error {
	type plain EventRecord
	aux := struct {
		*plain
		ID        json.RawMessage `json:"id"`
		DaysUntil json.RawMessage `json:"days_until"`
	}{plain: (*plain)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	e.ID = parseText(aux.ID)
	e.DaysUntil = parseDays(aux.DaysUntil)
	return nil
}

func parseText(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	return string(data)
}

func parseDays(data []byte) *int {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		n = parsed
	}

	// Fractional or out-of-range day counts are unreadable, not rounded.
	if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
		return nil
	}

	days := int(n)
	return &days
}
