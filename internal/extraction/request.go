package extraction

import (
	"fmt"
	"strings"
	"time"

	"pncpx/internal/pncp"
	"pncpx/internal/services"
)

// Request is the validated filter configuration one extraction runs with.
// It is built once from external input and never mutated afterwards.
type Request struct {
	Modality int
	Scope    pncp.Scope
	UF       string
	IBGECode string

	// Year selects 01/01..31/12 of that year. Mutually exclusive with the
	// explicit date pair; supplying both is a configuration error.
	Year      int
	StartDate time.Time
	EndDate   time.Time

	StartPage       int
	EndPage         int
	CheckpointPages int

	// OutputBase is the filename stem; page ranges and variant suffixes are
	// appended by the writer.
	OutputBase string
	Format     string
}

func configErr(operation, message string) error {
	return services.Wrap(services.ErrConfiguration, "request", operation, message, nil)
}

// Validate checks type and range sanity and resolves the documented filter
// interactions. It returns a configuration-classified error on the first
// violation.
func (r *Request) Validate() error {
	if _, ok := pncp.Modalities[r.Modality]; !ok {
		return configErr("modality", fmt.Sprintf("unknown modality code %d", r.Modality))
	}
	if !r.Scope.Valid() {
		return configErr("scope", fmt.Sprintf("scope must be one of %v, got %q", pncp.Scopes, r.Scope))
	}
	if err := r.validatePeriod(); err != nil {
		return err
	}
	if err := r.validateLocation(); err != nil {
		return err
	}
	if r.StartPage < 1 {
		return configErr("pages", "start page must be >= 1")
	}
	if r.EndPage != 0 && r.EndPage < r.StartPage {
		return configErr("pages", "end page must not precede start page")
	}
	if r.CheckpointPages < 1 {
		return configErr("checkpoint", "checkpoint interval must be >= 1 pages")
	}
	if strings.TrimSpace(r.OutputBase) == "" {
		return configErr("output", "output base name required")
	}
	switch r.Format {
	case "csv", "csv_br", "both":
	default:
		return configErr("output", fmt.Sprintf("format must be csv, csv_br, or both; got %q", r.Format))
	}
	return nil
}

func (r *Request) validatePeriod() error {
	hasDates := !r.StartDate.IsZero() || !r.EndDate.IsZero()
	if r.Year != 0 && hasDates {
		return configErr("period", "year and explicit date range are mutually exclusive")
	}
	if r.Year != 0 {
		if r.Year < 1900 || r.Year > 2100 {
			return configErr("period", fmt.Sprintf("year %d out of range", r.Year))
		}
		return nil
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return configErr("period", "supply a year or both start and end dates")
	}
	if r.EndDate.Before(r.StartDate) {
		return configErr("period", "end date must not precede start date")
	}
	return nil
}

func (r *Request) validateLocation() error {
	uf := strings.ToUpper(strings.TrimSpace(r.UF))
	ibge := strings.TrimSpace(r.IBGECode)

	switch r.Scope {
	case pncp.ScopeMunicipal, pncp.ScopeState:
		if uf != "" && uf != "BR" {
			if len(uf) != 2 || !isAlpha(uf) {
				return configErr("location", fmt.Sprintf("invalid UF %q", r.UF))
			}
		}
	case pncp.ScopeDistrict, pncp.ScopeFederal:
		// District queries pin UF to DF; federal queries ignore it.
	}

	if ibge != "" {
		if r.Scope != pncp.ScopeMunicipal {
			return configErr("location", "IBGE municipality code applies to municipal scope only")
		}
		if len(ibge) != 7 || !isDigits(ibge) {
			return configErr("location", "IBGE code must be exactly 7 digits")
		}
	}
	return nil
}

// Query resolves the request into consultation API parameters.
func (r *Request) Query() pncp.Query {
	start, end := r.StartDate, r.EndDate
	if r.Year != 0 {
		start = time.Date(r.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(r.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
	}

	query := pncp.Query{
		Modality:  r.Modality,
		Scope:     r.Scope,
		StartDate: start,
		EndDate:   end,
	}

	uf := strings.ToUpper(strings.TrimSpace(r.UF))
	switch r.Scope {
	case pncp.ScopeMunicipal:
		if uf != "" && uf != "BR" {
			query.UF = uf
		}
		query.IBGECode = strings.TrimSpace(r.IBGECode)
	case pncp.ScopeState:
		if uf != "" && uf != "BR" {
			query.UF = uf
		}
	case pncp.ScopeDistrict:
		query.UF = "DF"
	}
	return query
}

// FilterSummary returns the journal representation of the active filters.
func (r *Request) FilterSummary() map[string]any {
	query := r.Query()
	summary := map[string]any{
		"modality":   r.Modality,
		"scope":      string(r.Scope),
		"start_date": query.StartDate.Format("2006-01-02"),
		"end_date":   query.EndDate.Format("2006-01-02"),
		"format":     r.Format,
	}
	if query.UF != "" {
		summary["uf"] = query.UF
	}
	if query.IBGECode != "" {
		summary["ibge"] = query.IBGECode
	}
	if r.Year != 0 {
		summary["year"] = r.Year
	}
	return summary
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
