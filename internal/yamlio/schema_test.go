package yamlio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateSchemaHeader_Valid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")

	content := []byte("schema_version: 1\nfile_type: cost_ledger\nentries: []\n")
	os.WriteFile(path, content, 0644)

	if err := ValidateSchemaHeader(path, "cost_ledger"); err != nil {
		t.Errorf("expected valid, got error: %v", err)
	}
}

func TestValidateSchemaHeader_AllFileTypes(t *testing.T) {
	fileTypes := []string{
		"dag_evolution", "execution_trace", "delivery_manifest",
		"cost_ledger", "goal",
	}

	for _, ft := range fileTypes {
		t.Run(ft, func(t *testing.T) {
			content := []byte("schema_version: 1\nfile_type: " + ft + "\n")
			if err := ValidateSchemaHeaderFromBytes(content, ft); err != nil {
				t.Errorf("expected valid for %q, got error: %v", ft, err)
			}
		})
	}
}

func TestValidateSchemaHeader_UnsupportedVersion(t *testing.T) {
	content := []byte("schema_version: 99\nfile_type: cost_ledger\n")
	err := ValidateSchemaHeaderFromBytes(content, "cost_ledger")
	if err == nil {
		t.Error("expected error for unsupported version")
	}
}

func TestValidateSchemaHeader_NegativeVersion(t *testing.T) {
	content := []byte("schema_version: -1\nfile_type: cost_ledger\n")
	err := ValidateSchemaHeaderFromBytes(content, "cost_ledger")
	if err == nil {
		t.Error("expected error for negative schema_version")
	}
}

func TestValidateSchemaHeader_MissingVersion(t *testing.T) {
	content := []byte("file_type: cost_ledger\n")
	err := ValidateSchemaHeaderFromBytes(content, "cost_ledger")
	if err == nil {
		t.Error("expected error for missing schema_version")
	}
}

func TestValidateSchemaHeader_MissingFileType(t *testing.T) {
	content := []byte("schema_version: 1\n")
	err := ValidateSchemaHeaderFromBytes(content, "cost_ledger")
	if err == nil {
		t.Error("expected error for missing file_type")
	}
}

func TestValidateSchemaHeader_UnknownFileType(t *testing.T) {
	content := []byte("schema_version: 1\nfile_type: unknown_type\n")
	err := ValidateSchemaHeaderFromBytes(content, "unknown_type")
	if err == nil {
		t.Error("expected error for unknown file_type")
	}
}

func TestValidateSchemaHeader_FileTypeMismatch(t *testing.T) {
	content := []byte("schema_version: 1\nfile_type: goal\n")
	err := ValidateSchemaHeaderFromBytes(content, "cost_ledger")
	if err == nil {
		t.Error("expected error for file_type mismatch")
	}
}

func TestValidateSchemaHeader_NotYAML(t *testing.T) {
	content := []byte(":\n  broken: [\n")
	err := ValidateSchemaHeaderFromBytes(content, "cost_ledger")
	if err == nil {
		t.Error("expected error for malformed yaml")
	}
}
