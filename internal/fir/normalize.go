// Package fir knows the shape of a First Information Report document: how a
// collected document is normalised before it is stored, and its typed view.
package fir

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/firdesk/internal/docpath"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
	"02/01/2006",
	"02-01-2006",
}

// Normalize returns a copy of doc prepared for storage. Dates become
// YYYY-MM-DD, timestamps RFC 3339 in UTC, numeric fields numbers, and
// section2 a list of {sno, act, section} rows. Values that cannot be parsed
// become nil rather than failing the save.
func Normalize(doc any) map[string]any {
	p, ok := docpath.Clone(doc).(map[string]any)
	if !ok {
		p = map[string]any{}
	}

	p["section2"] = sectionRows(p["section2"])

	if meta, ok := p["meta"].(map[string]any); ok {
		if year, ok := meta["year"]; ok {
			meta["year"] = numberOrNil(year)
		}
		occ, _ := p["occurrence"].(map[string]any)
		dateFrom, timeFrom := truthy(get(occ, "dateFrom")), truthy(get(occ, "timeFrom"))
		fdt := meta["firDateTime"]
		if dateFrom && timeFrom && (!truthy(fdt) || len(str(fdt)) < 6) {
			if combined, ok := combineDateAndTime(str(occ["dateFrom"]), str(occ["timeFrom"])); ok {
				meta["firDateTime"] = combined
			}
		} else if truthy(fdt) {
			if t, ok := parseTime(fdt); ok {
				meta["firDateTime"] = t.UTC().Format(time.RFC3339)
			}
		}
	}

	if occ, ok := p["occurrence"].(map[string]any); ok {
		for _, key := range []string{"dateFrom", "dateTo"} {
			if truthy(occ[key]) {
				occ[key] = dateOrNil(occ[key])
			}
		}
		if info, ok := occ["infoReceivedAtPS"].(map[string]any); ok && truthy(info["date"]) {
			info["date"] = dateOrNil(info["date"])
		}
		if gd, ok := occ["gdRef"].(map[string]any); ok && truthy(gd["dateTime"]) {
			if t, ok := parseTime(gd["dateTime"]); ok {
				gd["dateTime"] = t.UTC().Format(time.RFC3339)
			} else {
				gd["dateTime"] = nil
			}
		}
	}

	total := 0.0
	if v, ok := p["totalValueOfProperty"]; ok {
		if f, ok := toFloat(v); ok {
			total = f
		}
	}
	p["totalValueOfProperty"] = number(total)

	return p
}

// sectionRows coerces whatever section2 holds into a list of rows. Objects
// are wrapped, JSON text is parsed, anything else yields no rows. Rows with
// neither act nor section are dropped.
func sectionRows(v any) []any {
	var rows []any
	switch s := v.(type) {
	case []any:
		rows = s
	case map[string]any:
		rows = []any{s}
	case string:
		var parsed any
		if err := json.Unmarshal([]byte(strings.ReplaceAll(s, "'", `"`)), &parsed); err == nil {
			if list, ok := parsed.([]any); ok {
				rows = list
			}
		}
	}

	out := []any{}
	for _, r := range rows {
		row, ok := r.(map[string]any)
		if !ok {
			continue
		}
		if !truthy(row["act"]) && !truthy(row["section"]) {
			continue
		}
		sno := 1.0
		if f, ok := toFloat(row["sno"]); ok && f != 0 {
			sno = f
		}
		row["sno"] = number(sno)
		out = append(out, row)
	}
	return out
}

func combineDateAndTime(date, clock string) (string, bool) {
	if strings.Contains(date, "T") {
		t, ok := parseTime(date)
		if !ok {
			return "", false
		}
		return t.UTC().Format(time.RFC3339), true
	}
	if len(clock) == 5 {
		clock += ":00"
	}
	t, err := time.Parse("2006-01-02T15:04:05", date+"T"+clock)
	if err != nil {
		return "", false
	}
	return t.UTC().Format(time.RFC3339), true
}

func parseTime(v any) (time.Time, bool) {
	s := strings.TrimSpace(str(v))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func dateOrNil(v any) any {
	t, ok := parseTime(v)
	if !ok {
		return nil
	}
	return t.UTC().Format(time.DateOnly)
}

func numberOrNil(v any) any {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	return number(f)
}

// number keeps integral values integral so they print without a fraction.
func number(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case string:
		x, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(n), ",", ""), 64)
		if err != nil {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	}
	return true
}

func str(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return strings.Trim(string(b), `"`)
	}
}

func get(m map[string]any, key string) any {
	if m == nil {
		return nil
	}
	return m[key]
}

// FormatDate renders any recognised date or timestamp as YYYY-MM-DD and
// anything else as the empty string.
func FormatDate(s string) string {
	if s == "" {
		return ""
	}
	t, ok := parseTime(s)
	if !ok {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}
