package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kwsong/biodigitalviz/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, "systemslist.json", `{
		"data": [
			{"name": "Moss Radio", "year": 2016, "img_name": "moss.png"},
			{"name": "Physarum Router", "year": "2019", "img_name": "https://example.org/p.jpg"},
			{"year": null}
		]
	}`)

	records, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []models.Record{
		{Name: "Moss Radio", Year: "2016", ImgName: "moss.png"},
		{Name: "Physarum Router", Year: "2019", ImgName: "https://example.org/p.jpg"},
		{},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "systems.yaml", `
data:
  - name: Algae Lamp
    year: 2021
    img_name: algae.jpg
    author: Studio X
`)

	records, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []models.Record{{Name: "Algae Lamp", Year: "2021", ImgName: "algae.jpg", Author: "Studio X"}}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	path := writeFile(t, "broken.json", `{"data": [`)
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for malformed json")
	}
}
