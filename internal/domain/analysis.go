package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Severity is the categorical damage estimate of an analysis
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity normalizes a model supplied severity; unknown values map to none
func ParseSeverity(s string) Severity {
	switch sev := Severity(strings.ToLower(strings.TrimSpace(s))); sev {
	case SeverityNone, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return sev
	}
	return SeverityNone
}

// Percent is a 0-100 confidence score. Model output is untrusted, so it
// also accepts numeric strings such as "87" or "87%".
type Percent float64

// UnmarshalJSON implements json.Unmarshaler
func (p *Percent) UnmarshalJSON(b []byte) error {
	f, ok, err := parseLenientFloat(b)
	if err != nil || !ok {
		return err
	}
	*p = Percent(f)
	return nil
}

// Meters is a distance that also accepts strings such as "20m" or "15 meters"
type Meters float64

// UnmarshalJSON implements json.Unmarshaler
func (m *Meters) UnmarshalJSON(b []byte) error {
	f, ok, err := parseLenientFloat(b)
	if err != nil || !ok {
		return err
	}
	*m = Meters(f)
	return nil
}

// parseLenientFloat reads a JSON number or a string with a leading number.
// ok is false for null.
func parseLenientFloat(b []byte) (float64, bool, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return 0, false, nil
	}
	if b[0] != '"' {
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return 0, false, err
		}
		return f, true, nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return 0, false, err
	}
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && strings.ContainsRune("0123456789.+-", rune(s[end])) {
		end++
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false, err
	}
	return f, true, nil
}

// ClampPercent clamps v into [0,100]; NaN becomes 0
func ClampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampPtr(p *Percent) *Percent {
	if p == nil {
		return nil
	}
	v := Percent(ClampPercent(float64(*p)))
	return &v
}

// Disease is a detected plant disease
type Disease struct {
	Name           string   `json:"name"`
	ScientificName string   `json:"scientificName,omitempty"`
	Category       string   `json:"category"`
	Confidence     *Percent `json:"confidence,omitempty"`
	Symptoms       []string `json:"symptoms"`
}

// Pest is a detected insect or other pest
type Pest struct {
	Name           string   `json:"name"`
	ScientificName string   `json:"scientificName,omitempty"`
	Type           string   `json:"type"`
	Lifestage      string   `json:"lifestage"`
	Confidence     *Percent `json:"confidence,omitempty"`
	DamageType     string   `json:"damageType"`
}

// Animal is a wildlife sighting in the image
type Animal struct {
	Type              string   `json:"type"`
	Name              string   `json:"name"`
	Confidence        *Percent `json:"confidence,omitempty"`
	EstimatedDistance *Meters  `json:"estimatedDistance,omitempty"`
	Location          string   `json:"location"`
	Count             int      `json:"count"`
	ThreatLevel       string   `json:"threatLevel"`
}

// DisplayName returns the best human label for the animal
func (a Animal) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	if a.Type != "" {
		return a.Type
	}
	return "unknown animal"
}

// ModelMetadata describes the model call that produced an analysis
type ModelMetadata struct {
	ModelID          string    `json:"modelId"`
	ProcessingTimeMs int64     `json:"processingTimeMs"`
	Timestamp        time.Time `json:"timestamp"`
	Language         string    `json:"language"`
}

// Analysis is the structured model output plus the fields derived from it
type Analysis struct {
	DiseaseDetected bool      `json:"diseaseDetected"`
	PestsDetected   bool      `json:"pestsDetected"`
	AnimalsDetected bool      `json:"animalsDetected"`
	Severity        Severity  `json:"severity"`
	CropType        string    `json:"cropType"`
	Summary         string    `json:"summary"`
	Diseases        []Disease `json:"diseases"`
	Pests           []Pest    `json:"pests"`
	Animals         []Animal  `json:"animals"`

	// Guidance arrays are passed through untouched
	WhatToDoNow     json.RawMessage `json:"whatToDoNow"`
	Prevention      json.RawMessage `json:"prevention"`
	OrganicOptions  json.RawMessage `json:"organicOptions"`
	ChemicalOptions json.RawMessage `json:"chemicalOptions"`

	// Derived
	OverallHealth        int            `json:"overallHealth"`
	AverageConfidence    float64        `json:"averageConfidence"`
	LeafDamage           bool           `json:"leafDamage"`
	NutrientDeficiencies []Disease      `json:"nutrientDeficiencies"`
	Insects              []Pest         `json:"insects"`
	ModelMetadata        *ModelMetadata `json:"modelMetadata,omitempty"`
	Degraded             bool           `json:"degraded"`
}

var emptyArray = json.RawMessage("[]")

// Normalize fills structural defaults so aggregation can assume a full shape
func (a *Analysis) Normalize() {
	a.Severity = ParseSeverity(string(a.Severity))
	a.CropType = strings.TrimSpace(a.CropType)
	if a.Diseases == nil {
		a.Diseases = []Disease{}
	}
	if a.Pests == nil {
		a.Pests = []Pest{}
	}
	if a.Animals == nil {
		a.Animals = []Animal{}
	}
	for i := range a.Diseases {
		a.Diseases[i].Confidence = clampPtr(a.Diseases[i].Confidence)
		if a.Diseases[i].Symptoms == nil {
			a.Diseases[i].Symptoms = []string{}
		}
	}
	for i := range a.Pests {
		a.Pests[i].Confidence = clampPtr(a.Pests[i].Confidence)
	}
	for i := range a.Animals {
		a.Animals[i].Confidence = clampPtr(a.Animals[i].Confidence)
		if d := a.Animals[i].EstimatedDistance; d != nil && (math.IsNaN(float64(*d)) || *d < 0) {
			a.Animals[i].EstimatedDistance = nil
		}
		if a.Animals[i].Count < 1 {
			a.Animals[i].Count = 1
		}
	}
	a.WhatToDoNow = arrayOrEmpty(a.WhatToDoNow)
	a.Prevention = arrayOrEmpty(a.Prevention)
	a.OrganicOptions = arrayOrEmpty(a.OrganicOptions)
	a.ChemicalOptions = arrayOrEmpty(a.ChemicalOptions)
	if a.NutrientDeficiencies == nil {
		a.NutrientDeficiencies = []Disease{}
	}
	if a.Insects == nil {
		a.Insects = []Pest{}
	}
	a.OverallHealth = int(ClampPercent(float64(a.OverallHealth)))
	a.AverageConfidence = ClampPercent(a.AverageConfidence)
}

func arrayOrEmpty(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' || !json.Valid(trimmed) {
		return emptyArray
	}
	return trimmed
}

// UnavailableAnalysis is substituted when the model call or its parse fails
func UnavailableAnalysis() *Analysis {
	a := &Analysis{
		Severity: SeverityNone,
		Summary:  "Analysis unavailable: the image could not be analysed. Please retake the photo in good light and try again.",
		Degraded: true,
	}
	a.Normalize()
	return a
}
