package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeModInfo(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ModInfoFile), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write mod descriptor: %v", err)
	}
	return dir
}

func TestReadModInfo(t *testing.T) {
	dir := writeModInfo(t, `
name = "Forged Alliance Forever"
uid = "some-uid"
version = 3701
`)

	info, err := ReadModInfo(dir)
	if err != nil {
		t.Fatalf("ReadModInfo failed: %v", err)
	}
	if info.Name != "Forged Alliance Forever" {
		t.Errorf("Expected name 'Forged Alliance Forever', got %q", info.Name)
	}
	if info.Version != 3701 {
		t.Errorf("Expected version 3701, got %d", info.Version)
	}
}

func TestReadModInfo_TrailingCommas(t *testing.T) {
	dir := writeModInfo(t, "name = \"beta\",\nversion = 42,\n")

	info, err := ReadModInfo(dir)
	if err != nil {
		t.Fatalf("ReadModInfo failed: %v", err)
	}
	if info.Version != 42 {
		t.Errorf("Expected version 42, got %d", info.Version)
	}
}

func TestReadModInfo_MissingFile(t *testing.T) {
	if _, err := ReadModInfo(t.TempDir()); err == nil {
		t.Fatal("Expected error for missing descriptor")
	}
}

func TestReadModInfo_MissingVersion(t *testing.T) {
	dir := writeModInfo(t, `name = "no version here"`)

	_, err := ReadModInfo(dir)
	if err == nil {
		t.Fatal("Expected error for missing version field")
	}
	if !strings.Contains(err.Error(), "version") {
		t.Errorf("Error should name the missing field, got: %v", err)
	}
}

func TestReadModInfo_NonIntegerVersion(t *testing.T) {
	dir := writeModInfo(t, `version = "three"`)

	if _, err := ReadModInfo(dir); err == nil {
		t.Fatal("Expected error for non-integer version")
	}
}
