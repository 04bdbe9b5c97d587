// Package source loads the records to lay out, either from a local
// document or from the project's Airtable base.
package source

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kwsong/biodigitalviz/internal/models"
)

type document struct {
	Data []models.Record `json:"data" yaml:"data"`
}

// LoadFile reads a document with a top-level "data" array. Files ending in
// .yaml or .yml are read as YAML, anything else as JSON.
func LoadFile(path string) ([]models.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading records: %w", err)
	}

	var doc document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("error decoding records from %s: %w", path, err)
	}

	return doc.Data, nil
}
