package models

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestYear_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Year
	}{
		{"number", `{"year": 2019}`, "2019"},
		{"string", `{"year": " 2021 "}`, "2021"},
		{"null", `{"year": null}`, ""},
		{"absent", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Record
			if err := json.Unmarshal([]byte(tt.input), &r); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Year != tt.want {
				t.Errorf("expected year %q, got %q", tt.want, r.Year)
			}
		})
	}
}

func TestYear_UnmarshalJSON_Invalid(t *testing.T) {
	var r Record
	if err := json.Unmarshal([]byte(`{"year": [2019]}`), &r); err == nil {
		t.Fatal("expected error for array year, got nil")
	}
}

func TestYear_UnmarshalYAML(t *testing.T) {
	var r Record
	if err := yaml.Unmarshal([]byte("name: Moss\nyear: 2018\n"), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Year != "2018" {
		t.Errorf("expected year 2018, got %q", r.Year)
	}

	if err := yaml.Unmarshal([]byte("year: [1, 2]\n"), &r); err == nil {
		t.Error("expected error for sequence year, got nil")
	}
}

func TestRecord_DisplayDefaults(t *testing.T) {
	var r Record
	if r.DisplayName() != UnknownName {
		t.Errorf("expected %q, got %q", UnknownName, r.DisplayName())
	}
	if r.DisplayYear() != UnknownYear {
		t.Errorf("expected %q, got %q", UnknownYear, r.DisplayYear())
	}

	r = Record{Name: "Bioluminescent Display", Year: "2020"}
	if r.DisplayName() != "Bioluminescent Display" || r.DisplayYear() != "2020" {
		t.Errorf("unexpected display values: %q %q", r.DisplayName(), r.DisplayYear())
	}
}
