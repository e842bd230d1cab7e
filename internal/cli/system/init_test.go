package system

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/julianstephens/elexam/internal/cli"
	"github.com/julianstephens/elexam/internal/storage"
)

func setupTestInitDB(t *testing.T) (*cli.Context, string, func()) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	store := storage.NewSQLiteStore(dbPath)

	cleanup := func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	}
	return &cli.Context{Store: store}, dbPath, cleanup
}

func TestInitCmd_Success(t *testing.T) {
	ctx, dbPath, cleanup := setupTestInitDB(t)
	defer cleanup()

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init command failed: %v", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created at %s", dbPath)
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	ctx, _, cleanup := setupTestInitDB(t)
	defer cleanup()

	cmd := &InitCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if err := ctx.Store.SetSetting("k", "v"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("second init failed: %v", err)
	}

	value, ok, err := ctx.Store.GetSetting("k")
	if err != nil || !ok || value != "v" {
		t.Errorf("setting lost after re-init: %q %v %v", value, ok, err)
	}
}

func TestInitCmd_Force(t *testing.T) {
	ctx, _, cleanup := setupTestInitDB(t)
	defer cleanup()

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if err := ctx.Store.SetSetting("k", "v"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("forced init failed: %v", err)
	}

	_, ok, err := ctx.Store.GetSetting("k")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if ok {
		t.Error("forced init should start from an empty store")
	}
}
