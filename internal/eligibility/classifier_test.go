package eligibility_test

import (
	"testing"
	"time"

	"pncpx/internal/eligibility"
)

var today = time.Date(2026, time.August, 29, 0, 0, 0, 0, time.UTC)

func TestClosingDateYesterdayIsClosed(t *testing.T) {
	record := map[string]any{
		"dataEncerramentoProposta": "2026-08-28T23:59:59",
		"situacaoCompraNome":       "Divulgada no PNCP",
	}
	if !eligibility.IsClosed(record, today) {
		t.Fatal("record closing yesterday should be closed regardless of other fields")
	}
}

func TestClosingDateTodayIsClosed(t *testing.T) {
	record := map[string]any{"dataEncerramentoProposta": "2026-08-29"}
	if !eligibility.IsClosed(record, today) {
		t.Fatal("closing date equal to today should count as closed")
	}
}

func TestHomologatedValueClosesFutureRecord(t *testing.T) {
	record := map[string]any{
		"dataEncerramentoProposta": "2027-01-15",
		"valorTotalHomologado":     1500.00,
	}
	if !eligibility.IsClosed(record, today) {
		t.Fatal("positive homologated value should close a record with a future date")
	}
}

func TestRevokedStatusCloses(t *testing.T) {
	for _, status := range []string{"Revogada", " anulada ", "SUSPENSA"} {
		record := map[string]any{"situacaoCompraNome": status}
		if !eligibility.IsClosed(record, today) {
			t.Fatalf("status %q should close the record", status)
		}
	}
}

func TestOpenRecordIsNotClosed(t *testing.T) {
	record := map[string]any{
		"valorTotalHomologado": float64(0),
		"situacaoCompraNome":   "Divulgada no PNCP",
	}
	if eligibility.IsClosed(record, today) {
		t.Fatal("record with no closing date, zero value, and open status must stay open")
	}
}

func TestUnparseableFieldsDegradeToFalse(t *testing.T) {
	record := map[string]any{
		"dataEncerramentoProposta": "not a date",
		"valorTotalHomologado":     "garbage",
		"situacaoCompraNome":       42,
	}
	if eligibility.IsClosed(record, today) {
		t.Fatal("unparseable fields must not satisfy any clause")
	}
}

func TestHomologatedValueAsString(t *testing.T) {
	record := map[string]any{"valorTotalHomologado": "1234,56"}
	if !eligibility.IsClosed(record, today) {
		t.Fatal("comma-decimal string value above zero should close the record")
	}
}
