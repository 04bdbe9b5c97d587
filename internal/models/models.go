package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	UnknownName = "Unknown"
	UnknownYear = "N/A"
)

type Record struct {
	Name    string `json:"name" yaml:"name"`
	Year    Year   `json:"year" yaml:"year"`
	ImgName string `json:"img_name" yaml:"img_name"`
	Author  string `json:"author,omitempty" yaml:"author,omitempty"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
}

func (r Record) DisplayName() string {
	if strings.TrimSpace(r.Name) == "" {
		return UnknownName
	}
	return r.Name
}

func (r Record) DisplayYear() string {
	if r.Year == "" {
		return UnknownYear
	}
	return string(r.Year)
}

// Year is kept as text; input documents store it either as a number or a
// string.
type Year string

func (y *Year) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*y = Year(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("year must be a string or number: %w", err)
	}
	*y = Year(n.String())
	return nil
}

func (y *Year) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("year must be a scalar, got kind %d at line %d", value.Kind, value.Line)
	}
	if value.Tag == "!!null" {
		return nil
	}
	*y = Year(strings.TrimSpace(value.Value))
	return nil
}

// Result is the outcome for one grid index.
type Result struct {
	Index  int
	Row    int
	Col    int
	Record Record
	URL    string
	OK     bool
	Err    error
}
