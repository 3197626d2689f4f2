package eligibility

import (
	"strconv"
	"strings"
	"time"
)

// Well-known PNCP record fields the closed-procurement rule inspects.
const (
	fieldClosingDate      = "dataEncerramentoProposta"
	fieldHomologatedTotal = "valorTotalHomologado"
	fieldStatusName       = "situacaoCompraNome"
)

var closedStatuses = map[string]struct{}{
	"revogada": {},
	"anulada":  {},
	"suspensa": {},
}

// ReferenceZone is the time zone the proposal-closing comparison uses.
const ReferenceZone = "America/Sao_Paulo"

// Today returns the current date in Brasília time, truncated to midnight UTC
// so it compares cleanly against parsed record dates.
func Today() time.Time {
	loc, err := time.LoadLocation(ReferenceZone)
	if err != nil {
		loc = time.FixedZone("BRT", -3*60*60)
	}
	now := time.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// IsClosed reports whether a record represents a closed procurement as of
// the given reference date. A record is closed when its proposal-closing
// date is on or before today, its homologated total is above zero, or its
// status marks it revoked, annulled, or suspended. Missing or unparseable
// fields never fail a record; they just do not satisfy their clause.
func IsClosed(record map[string]any, today time.Time) bool {
	if closing, ok := parseDate(record[fieldClosingDate]); ok && !closing.After(today) {
		return true
	}
	if total, ok := parseNumber(record[fieldHomologatedTotal]); ok && total > 0 {
		return true
	}
	status := strings.ToLower(strings.TrimSpace(stringValue(record[fieldStatusName])))
	_, closed := closedStatuses[status]
	return closed
}

func parseDate(value any) (time.Time, bool) {
	raw := strings.TrimSpace(stringValue(value))
	if raw == "" {
		return time.Time{}, false
	}
	if len(raw) >= 10 {
		if parsed, err := time.Parse("2006-01-02", raw[:10]); err == nil {
			return parsed, true
		}
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

func parseNumber(value any) (float64, bool) {
	switch typed := value.(type) {
	case nil:
		return 0, false
	case float64:
		return typed, true
	case int:
		return float64(typed), true
	case string:
		trimmed := strings.TrimSpace(strings.ReplaceAll(typed, ",", "."))
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func stringValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}
