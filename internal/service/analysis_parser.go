package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"github.com/kaptinlin/jsonschema"
)

// analysisSchema is the structural contract requested from the model.
// Violations are reported but never fatal; the tolerant decode below fills the gaps.
const analysisSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["diseaseDetected", "pestsDetected", "animalsDetected", "severity", "diseases", "pests", "animals"],
  "properties": {
    "diseaseDetected": {"type": "boolean"},
    "pestsDetected": {"type": "boolean"},
    "animalsDetected": {"type": "boolean"},
    "severity": {"enum": ["none", "low", "medium", "high", "critical"]},
    "cropType": {"type": "string"},
    "summary": {"type": "string"},
    "diseases": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "category": {"type": "string"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 100},
          "symptoms": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "pests": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 100}
        }
      }
    },
    "animals": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type"],
        "properties": {
          "type": {"type": "string"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 100},
          "estimatedDistance": {"type": "number", "minimum": 0},
          "count": {"type": "integer", "minimum": 0}
        }
      }
    },
    "whatToDoNow": {"type": "array"},
    "prevention": {"type": "array"},
    "organicOptions": {"type": "array"},
    "chemicalOptions": {"type": "array"}
  }
}`

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaErr  error
	compiledSchemaOnce sync.Once
)

func loadAnalysisSchema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiledSchema, compiledSchemaErr = compiler.Compile([]byte(analysisSchema))
	})
	return compiledSchema, compiledSchemaErr
}

// validateAnalysisSchema returns a description of schema violations, or "" when valid
func validateAnalysisSchema(data []byte) string {
	schema, err := loadAnalysisSchema()
	if err != nil {
		return fmt.Sprintf("schema unavailable: %v", err)
	}
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return ""
	}
	return fmt.Sprintf("%v", result.Errors)
}

// extractJSON pulls the JSON object out of a model reply that may be wrapped in
// markdown fences or surrounded by prose.
func extractJSON(rawText string) string {
	text := strings.TrimSpace(rawText)
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		if nl := strings.Index(rest, "\n"); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// parsedAnalysis is the outcome of parsing one model reply
type parsedAnalysis struct {
	Analysis         *domain.Analysis
	SchemaViolations string
}

// parseAnalysis decodes a model reply tolerantly. Only a reply that is not a
// JSON object at all is an error; malformed array elements are dropped and
// missing fields get defaults.
func parseAnalysis(rawText string) (*parsedAnalysis, error) {
	body := []byte(extractJSON(rawText))

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("analysis JSON parse failed: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("analysis JSON parse failed: not an object")
	}

	a := &domain.Analysis{
		Severity: domain.ParseSeverity(stringField(fields, "severity")),
		CropType: stringField(fields, "cropType"),
		Summary:  stringField(fields, "summary"),
		Diseases: decodeElements[domain.Disease](fields["diseases"]),
		Pests:    decodeElements[domain.Pest](fields["pests"]),
		Animals:  decodeElements[domain.Animal](fields["animals"]),

		WhatToDoNow:     fields["whatToDoNow"],
		Prevention:      fields["prevention"],
		OrganicOptions:  fields["organicOptions"],
		ChemicalOptions: fields["chemicalOptions"],
	}
	if len(a.Pests) == 0 {
		a.Pests = decodeElements[domain.Pest](fields["insects"])
	}
	a.DiseaseDetected = boolField(fields, "diseaseDetected", len(a.Diseases) > 0)
	a.PestsDetected = boolField(fields, "pestsDetected", len(a.Pests) > 0)
	a.AnimalsDetected = boolField(fields, "animalsDetected", len(a.Animals) > 0)
	a.Normalize()

	return &parsedAnalysis{Analysis: a, SchemaViolations: validateAnalysisSchema(body)}, nil
}

// decodeElements decodes a JSON array element by element, skipping bad elements
func decodeElements[T any](raw json.RawMessage) []T {
	out := []T{}
	if len(raw) == 0 {
		return out
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func stringField(fields map[string]json.RawMessage, key string) string {
	var s string
	if raw, ok := fields[key]; ok && json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

// boolField reads a boolean (or "true"/"false" string); def is used when absent or invalid
func boolField(fields map[string]json.RawMessage, key string, def bool) bool {
	raw, ok := fields[key]
	if !ok {
		return def
	}
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return b
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes":
			return true
		case "false", "no":
			return false
		}
	}
	return def
}
