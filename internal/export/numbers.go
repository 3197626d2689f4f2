package export

import (
	"fmt"
	"strconv"
	"strings"
)

// Key fragments that mark a column as numeric for spreadsheet treatment.
// Matched against the lowercased key with separators stripped.
var numericKeyHints = []string{
	"valor", "valortotal", "valortotalestimado", "valortotalhomologado",
	"quantidade", "ano", "numero", "cnpj",
}

// looksNumeric reports whether a cell should be rendered as a number. Actual
// numeric values always qualify; strings qualify only when the column name
// carries a numeric hint and the text parses as a number.
func looksNumeric(key string, value any) bool {
	switch value.(type) {
	case nil:
		return false
	case float64, int, int64:
		return true
	}
	normalized := strings.NewReplacer("_", "", ".", "").Replace(strings.ToLower(key))
	for _, hint := range numericKeyHints {
		if strings.Contains(normalized, hint) {
			_, ok := toNumber(value)
			return ok
		}
	}
	return false
}

// toNumber coerces a cell to float64, accepting both dot and comma decimals
// in string values. Brazilian "1.234,56" grouping is normalized first.
func toNumber(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case string:
		s := strings.TrimSpace(typed)
		if s == "" {
			return 0, false
		}
		if strings.Count(s, ",") == 1 && strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
		}
		s = strings.ReplaceAll(s, ",", ".")
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// formatInternational renders a numeric cell with a dot decimal separator.
func formatInternational(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// formatBrazilian renders a numeric cell with a comma decimal separator.
// Only the separator changes; the value keeps its natural precision.
func formatBrazilian(n float64) string {
	return strings.Replace(strconv.FormatFloat(n, 'f', -1, 64), ".", ",", 1)
}

// cellText renders a non-numeric cell untouched.
func cellText(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return fmt.Sprint(typed)
	}
}
