package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pncpx/internal/testsupport"
)

func TestModalitiesTable(t *testing.T) {
	out, _, err := runCLI(t, []string{"modalities"}, "")
	if err != nil {
		t.Fatalf("modalities: %v", err)
	}
	requireContains(t, out, "Pregão - Eletrônico")
	requireContains(t, out, "Dispensa de Licitação")
	requireContains(t, out, "13")
}

func TestModalitiesJSON(t *testing.T) {
	out, _, err := runCLI(t, []string{"modalities", "--json"}, "")
	if err != nil {
		t.Fatalf("modalities --json: %v", err)
	}
	var entries []struct {
		Code int    `json:"code"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("parse JSON output: %v", err)
	}
	if len(entries) != 13 {
		t.Fatalf("expected 13 modalities, got %d", len(entries))
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, "")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "base_url")
	requireContains(t, out, env.cfg.Output.Dir)
}

func TestExtractRejectsYearWithDateRange(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{
		"extract", "--modality", "6", "--scope", "municipal",
		"--year", "2024", "--from", "2024-01-01", "--to", "2024-06-30",
	}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "mutually exclusive") {
		t.Fatalf("expected mutual-exclusion error, got %v", err)
	}
}

func TestExtractRejectsBadDateFlag(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{
		"extract", "--modality", "6", "--scope", "municipal", "--from", "January 1st",
	}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "invalid date") {
		t.Fatalf("expected date parse error, got %v", err)
	}
}

func TestExtractEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/contratacoes/publicacao" {
			http.NotFound(w, r)
			return
		}
		switch r.URL.Query().Get("pagina") {
		case "1":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []any{
					map[string]any{
						"objetoCompra":             "Aquisicao de material escolar",
						"dataEncerramentoProposta": "2020-05-01",
						"valorTotalHomologado":     1234.5,
						"orgaoEntidade":            map[string]any{"esferaId": "M", "razaoSocial": "Prefeitura"},
					},
					map[string]any{
						"objetoCompra":             "Obra em andamento",
						"dataEncerramentoProposta": "2099-01-01",
						"situacaoCompraNome":       "Divulgada no PNCP",
						"orgaoEntidade":            map[string]any{"esferaId": "M"},
					},
				},
				"totalPaginas": 1,
				"empty":        false,
			})
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer server.Close()

	env := setupCLITestEnv(t, testsupport.WithBaseURL(server.URL), testsupport.WithFormat("csv"))

	out, _, err := runCLI(t, []string{
		"extract", "--modality", "6", "--scope", "municipal", "--uf", "SP",
		"--year", "2020", "--output", "teste",
	}, env.configPath)
	if err != nil {
		t.Fatalf("extract: %v (output: %s)", err, out)
	}
	requireContains(t, out, "completed")
	requireContains(t, out, "ROWS")
	requireContains(t, out, "wrote")

	csvPath := filepath.Join(env.cfg.Output.Dir, "teste_p1-1.csv")
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read output CSV: %v", err)
	}
	content := string(data)
	requireContains(t, content, "objetoCompra")
	requireContains(t, content, "Aquisicao de material escolar")
	requireContains(t, content, "1234.5")
	if strings.Contains(content, "Obra em andamento") {
		t.Fatal("open procurement leaked into the export")
	}

	out, _, err = runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "completed")
}
