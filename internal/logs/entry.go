package logs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Entry is one decoded run log record.
type Entry struct {
	Time      time.Time
	Level     slog.Level
	Message   string
	Component string
	Stage     string
	Attrs     map[string]any
	Raw       string
}

// Parse decodes a JSON log line. Lines that are not JSON objects come back as
// an info entry carrying the raw text.
func Parse(line string) Entry {
	entry := Entry{Level: slog.LevelInfo, Raw: line}
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		entry.Message = line
		return entry
	}

	if ts, ok := fields["ts"].(string); ok {
		entry.Time, _ = time.Parse(time.RFC3339Nano, ts)
	}
	if lvl, ok := fields["level"].(string); ok {
		_ = entry.Level.UnmarshalText([]byte(lvl))
	}
	entry.Message, _ = fields["msg"].(string)
	entry.Component, _ = fields["component"].(string)
	entry.Stage, _ = fields["stage"].(string)

	for _, key := range []string{"ts", "level", "msg", "component", "stage", "run_id"} {
		delete(fields, key)
	}
	if len(fields) > 0 {
		entry.Attrs = fields
	}
	return entry
}

// Filter selects entries by minimum level and stage. The zero value keeps
// everything.
type Filter struct {
	MinLevel slog.Level
	Stage    string
	set      bool
}

// NewFilter builds a filter from a level name ("debug", "warn", ...) and an
// optional stage.
func NewFilter(level, stage string) (Filter, error) {
	f := Filter{MinLevel: slog.LevelDebug, Stage: strings.TrimSpace(stage), set: true}
	if level = strings.TrimSpace(level); level != "" {
		if err := f.MinLevel.UnmarshalText([]byte(level)); err != nil {
			return Filter{}, fmt.Errorf("invalid log level %q", level)
		}
	}
	return f, nil
}

// Match reports whether entry passes the filter.
func (f Filter) Match(entry Entry) bool {
	if !f.set {
		return true
	}
	if entry.Level < f.MinLevel {
		return false
	}
	return f.Stage == "" || strings.EqualFold(entry.Stage, f.Stage)
}

// Format renders entry as a single line: time, level, stage or component,
// message, then attributes sorted by key.
func Format(entry Entry) string {
	if entry.Time.IsZero() && entry.Attrs == nil && entry.Component == "" && entry.Stage == "" {
		return entry.Message
	}
	var b strings.Builder
	if !entry.Time.IsZero() {
		b.WriteString(entry.Time.Local().Format("15:04:05.000"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", strings.ToUpper(entry.Level.String()))
	switch {
	case entry.Stage != "":
		fmt.Fprintf(&b, " [%s]", entry.Stage)
	case entry.Component != "":
		fmt.Fprintf(&b, " [%s]", entry.Component)
	}
	b.WriteByte(' ')
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Attrs))
	for k := range entry.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, formatValue(entry.Attrs[k]))
	}
	return b.String()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		if val == "" || strings.ContainsAny(val, " \t\"=") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case nil:
		return "null"
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
