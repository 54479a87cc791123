package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/court-scheduler/internal/scheduler"
)

// Backend names accepted by configuration.
const (
	BackendJSON     = "json"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

// ParseBackend validates a backend name, ignoring case and surrounding space.
func ParseBackend(value string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(value))
	switch name {
	case BackendJSON, BackendSQLite, BackendPostgres, BackendNone:
		return name, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, value)
	}
}

// Discard is a snapshot store that keeps nothing.
var Discard discard

type discard struct{}

func (discard) Load(context.Context) (scheduler.Snapshot, error) {
	return scheduler.Snapshot{}, nil
}

func (discard) Save(context.Context, scheduler.Snapshot) error {
	return nil
}

// EncodeSnapshot renders the full 7x14 grid as an indented JSON document keyed
// by day and then by hour. Vacant cells are null. Days and hours keep their
// natural order.
func EncodeSnapshot(snap scheduler.Snapshot) []byte {
	owners := make(map[scheduler.Day]map[int]string, len(scheduler.Days))
	for _, r := range snap.Reservations {
		if owners[r.Day] == nil {
			owners[r.Day] = make(map[int]string)
		}
		owners[r.Day][r.Hour] = r.Username
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for d, day := range scheduler.Days {
		fmt.Fprintf(&buf, "  %s: {\n", quote(string(day)))
		for _, hour := range scheduler.Hours() {
			value := "null"
			if owner, ok := owners[day][hour]; ok {
				value = quote(owner)
			}
			fmt.Fprintf(&buf, "    %s: %s", quote(strconv.Itoa(hour)), value)
			if hour != scheduler.LastHour {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString("  }")
		if d != len(scheduler.Days)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}")
	return buf.Bytes()
}

// DecodeSnapshot parses a document produced by EncodeSnapshot. Unknown keys,
// days whose value is not an object, and non-string owners are ignored.
func DecodeSnapshot(data []byte) (scheduler.Snapshot, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return scheduler.Snapshot{}, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}

	var snap scheduler.Snapshot
	for _, day := range scheduler.Days {
		raw, ok := doc[string(day)]
		if !ok {
			continue
		}
		var cells map[string]any
		if err := json.Unmarshal(raw, &cells); err != nil {
			continue
		}
		for _, hour := range scheduler.Hours() {
			owner, ok := cells[strconv.Itoa(hour)].(string)
			if !ok || owner == "" {
				continue
			}
			snap.Reservations = append(snap.Reservations, scheduler.Reservation{Username: owner, Day: day, Hour: hour})
		}
	}
	return snap, nil
}

func quote(value string) string {
	encoded, _ := json.Marshal(value)
	return string(encoded)
}
