package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"spaar/internal/config"
	"spaar/internal/log"
	"spaar/internal/store/memory"
)

func testConfig() *config.Config {
	return &config.Config{
		CSVDelimiter:       ",",
		CSVHasHeader:       false,
		CSVEncoding:        "latin1",
		AutoCategorize:     false,
		AnalysisWindowDays: 30,
		AnomalyZThreshold:  1.5,
		AnalysisCacheSize:  4,
	}
}

func TestImporterConfig(t *testing.T) {
	cfg := testConfig()

	ic, err := ImporterConfig(cfg)
	if err != nil {
		t.Fatalf("ImporterConfig() error = %v", err)
	}
	if ic.Dialect.Delimiter != ',' || ic.Dialect.HasHeader || ic.Dialect.Encoding != "latin1" {
		t.Errorf("Dialect = %+v", ic.Dialect)
	}
	if ic.AutoCategorize {
		t.Error("AutoCategorize should follow the config")
	}
	if ic.Rules == nil || len(ic.Rules.Categories) == 0 {
		t.Error("default rules expected when no rules file is set")
	}
}

func TestImporterConfigRulesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte("recurring_keywords: [contributie]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.RulesFile = path
	ic, err := ImporterConfig(cfg)
	if err != nil {
		t.Fatalf("ImporterConfig() error = %v", err)
	}
	if len(ic.Rules.RecurringKeywords) != 1 || ic.Rules.RecurringKeywords[0] != "contributie" {
		t.Errorf("RecurringKeywords = %v", ic.Rules.RecurringKeywords)
	}

	cfg.RulesFile = filepath.Join(dir, "missing.yaml")
	if _, err := ImporterConfig(cfg); err == nil {
		t.Error("expected error for missing rules file")
	}
}

func TestNewEngineThreshold(t *testing.T) {
	if got := NewEngine(testConfig()).Config().AnomalyZThreshold; got != 1.5 {
		t.Errorf("AnomalyZThreshold = %v, want 1.5", got)
	}
}

func TestNewServices(t *testing.T) {
	svc, err := NewServices(testConfig(), memory.New(nil), log.Discard())
	if err != nil {
		t.Fatalf("NewServices() error = %v", err)
	}
	if svc.Imports == nil || svc.Insights == nil || svc.Janitor == nil || svc.Budgets == nil || svc.Categories == nil {
		t.Errorf("incomplete services %+v", svc)
	}
}

func TestOptionalClientsDisabled(t *testing.T) {
	cfg := testConfig()
	if c, err := NewAMQPClient(cfg, log.Discard()); c != nil || err != nil {
		t.Errorf("NewAMQPClient() = %v, %v; want nil, nil", c, err)
	}
	if c, err := NewSheetsExporter(context.Background(), cfg, log.Discard()); c != nil || err != nil {
		t.Errorf("NewSheetsExporter() = %v, %v; want nil, nil", c, err)
	}
}
