package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"spaar/internal/config"
	"spaar/internal/core"
)

func TestCreateMemoryBackendSeedsRuleCategories(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:          MemoryBackend,
		DataDirectory: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}

	cats, err := res.Backend.ListCategories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != len(systemCategoryIDs()) {
		t.Errorf("seeded %d categories, want %d", len(cats), len(systemCategoryIDs()))
	}
	for _, c := range cats {
		if !c.IsSystem {
			t.Errorf("category %s should be a system category", c.ID)
		}
	}
}

func TestCreateMemoryBackendFromSeedFile(t *testing.T) {
	dir := t.TempDir()
	seed := "# eigen indeling\nvaste_lasten\nvrije_tijd\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	cats, _ := res.Backend.ListCategories(context.Background())
	if len(cats) != 2 || cats[0].ID != "vaste_lasten" {
		t.Errorf("categories = %+v, want the two seeded ids", cats)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spaar.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Cleanup()

	err = res.Backend.DeleteCategory(context.Background(), "supermarkt")
	if !errors.Is(err, core.ErrSystemCategory) {
		t.Errorf("DeleteCategory(supermarkt) error = %v, want ErrSystemCategory", err)
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "unknown type", cfg: Config{Type: "sheets"}},
		{name: "sqlite without path", cfg: Config{Type: SQLiteBackend}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFactory(nil).CreateBackend(context.Background(), tt.cfg); err == nil {
				t.Error("CreateBackend() should fail")
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("FromAppConfig(nil) should fail")
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", DataDir: "d"})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.DataDirectory != "d" {
		t.Errorf("FromAppConfig() = %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("FromAppConfig() should reject unknown backends")
	}
}

func TestBackendTypeShared(t *testing.T) {
	tests := []struct {
		bt   BackendType
		want bool
	}{
		{SQLiteBackend, true},
		{MemoryBackend, false},
		{BackendType("sheets"), false},
	}
	for _, tt := range tests {
		if got := tt.bt.Shared(); got != tt.want {
			t.Errorf("%s.Shared() = %v, want %v", tt.bt, got, tt.want)
		}
	}
}
