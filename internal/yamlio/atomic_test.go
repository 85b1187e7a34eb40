package yamlio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	yamlv3 "gopkg.in/yaml.v3"
)

func readYAML(t *testing.T, path string, out any) {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile %s: %v", path, err)
	}
	if err := yamlv3.Unmarshal(content, out); err != nil {
		t.Fatalf("Unmarshal %s: %v", path, err)
	}
}

func TestAtomicWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")

	type manifest struct {
		RunID  string `yaml:"run_id"`
		Status string `yaml:"status"`
	}
	if err := AtomicWrite(path, &manifest{RunID: "run-1", Status: "completed"}); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	var got manifest
	readYAML(t, path, &got)
	if got.RunID != "run-1" || got.Status != "completed" {
		t.Errorf("got %+v", got)
	}
}

func TestAtomicWriteBackupKeepsPreviousContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")

	if err := AtomicWrite(path, map[string]int{"total": 1}); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := AtomicWrite(path, map[string]int{"total": 2}); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	var bak, cur map[string]int
	readYAML(t, path+".bak", &bak)
	readYAML(t, path, &cur)

	if bak["total"] != 1 {
		t.Errorf("backup total: got %d, want 1", bak["total"])
	}
	if cur["total"] != 2 {
		t.Errorf("current total: got %d, want 2", cur["total"])
	}
}

func TestAtomicWriteRawRejectsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.yaml")

	err := AtomicWriteRaw(path, []byte(":\n  invalid: [\n    broken"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if _, serr := os.Stat(path); !os.IsNotExist(serr) {
		t.Error("target must not exist after a rejected write")
	}

	// The staging temp file must be cleaned up too.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".conductor-tmp-") {
			t.Errorf("leftover temp file: %s", entry.Name())
		}
	}
}

func TestAtomicWriteRawPreservesTargetOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.yaml")

	if err := AtomicWrite(path, map[string]string{"state": "good"}); err != nil {
		t.Fatalf("initial write failed: %v", err)
	}
	if err := AtomicWriteRaw(path, []byte(":\n  broken: [\n")); err == nil {
		t.Fatal("expected error for invalid YAML")
	}

	var got map[string]string
	readYAML(t, path, &got)
	if got["state"] != "good" {
		t.Errorf("target content changed after failed write: %v", got)
	}
}
