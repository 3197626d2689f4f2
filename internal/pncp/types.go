package pncp

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Record is one raw API item: an arbitrary nested structure with no fixed
// schema beyond the few fields eligibility inspects.
type Record = map[string]any

// PageSize is fixed by the extractor; the consultation API caps pages at 50.
const PageSize = 50

// Modalities maps PNCP contracting modality codes to their display names.
var Modalities = map[int]string{
	1:  "Leilão - Eletrônico",
	2:  "Diálogo Competitivo",
	3:  "Concurso",
	4:  "Concorrência - Eletrônica",
	5:  "Concorrência - Presencial",
	6:  "Pregão - Eletrônico",
	7:  "Pregão - Presencial",
	8:  "Dispensa de Licitação",
	9:  "Inexigibilidade",
	10: "Manifestação de Interesse",
	11: "Pré-qualificação",
	12: "Credenciamento",
	13: "Leilão - Presencial",
}

// Scope is the administrative sphere a query targets.
type Scope string

const (
	ScopeMunicipal Scope = "municipal"
	ScopeState     Scope = "estadual"
	ScopeFederal   Scope = "federal"
	ScopeDistrict  Scope = "distrital"
)

// Scopes lists the valid scopes in display order.
var Scopes = []Scope{ScopeMunicipal, ScopeState, ScopeFederal, ScopeDistrict}

// EsferaID returns the esferaId value records carry for this scope.
func (s Scope) EsferaID() string {
	switch s {
	case ScopeMunicipal:
		return "M"
	case ScopeState:
		return "E"
	case ScopeFederal:
		return "F"
	case ScopeDistrict:
		return "D"
	default:
		return ""
	}
}

// Valid reports whether the scope is one of the four spheres.
func (s Scope) Valid() bool {
	return s.EsferaID() != ""
}

// Query describes the server-side filters for one extraction.
type Query struct {
	Modality  int
	Scope     Scope
	UF        string
	IBGECode  string
	StartDate time.Time
	EndDate   time.Time
}

// Values encodes the query as consultation API parameters. Page number and
// page size are appended by the client per request.
func (q Query) Values() url.Values {
	values := url.Values{}
	values.Set("dataInicial", q.StartDate.Format("20060102"))
	values.Set("dataFinal", q.EndDate.Format("20060102"))
	values.Set("codigoModalidadeContratacao", strconv.Itoa(q.Modality))
	if q.UF != "" {
		values.Set("uf", q.UF)
	}
	if q.IBGECode != "" {
		values.Set("codigoMunicipioIbge", q.IBGECode)
	}
	return values
}

// Page is one well-formed response page. Records stay untyped so a single
// malformed item can be skipped downstream instead of failing the page.
type Page struct {
	Records []any
	// TotalPages is the API's pagination hint, zero when not reported.
	TotalPages int
}

// Last reports whether this page terminates pagination: an empty or short
// page, or the page number reaching the API's reported total.
func (p *Page) Last(pageNumber int) bool {
	if len(p.Records) < PageSize {
		return true
	}
	return p.TotalPages > 0 && pageNumber >= p.TotalPages
}

type envelope struct {
	Data         []any `json:"data"`
	TotalPaginas int   `json:"totalPaginas"`
	Empty        bool  `json:"empty"`
}

// EsferaOf extracts orgaoEntidade.esferaId from a record, empty when absent.
func EsferaOf(record Record) string {
	entity, ok := record["orgaoEntidade"].(map[string]any)
	if !ok {
		return ""
	}
	esfera, _ := entity["esferaId"].(string)
	return esfera
}

// ModalityLabel formats a modality code with its name for display.
func ModalityLabel(code int) string {
	name, ok := Modalities[code]
	if !ok {
		return strconv.Itoa(code)
	}
	return fmt.Sprintf("%d - %s", code, name)
}
