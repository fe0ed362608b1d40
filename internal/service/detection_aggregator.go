package service

import (
	"strings"

	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// severityBaseScore maps severity to the starting health score
var severityBaseScore = map[domain.Severity]int{
	domain.SeverityNone:     100,
	domain.SeverityLow:      85,
	domain.SeverityMedium:   60,
	domain.SeverityHigh:     35,
	domain.SeverityCritical: 10,
}

const (
	diseasePenalty = 5
	pestPenalty    = 3
	animalPenalty  = 2
)

// ComputeOverallHealth turns severity and issue counts into a 0-100 score.
// Missing or unknown severity starts from 100. Per-item confidence is ignored.
func ComputeOverallHealth(a *domain.Analysis) int {
	if a == nil {
		return 100
	}
	base, ok := severityBaseScore[domain.Severity(strings.ToLower(string(a.Severity)))]
	if !ok {
		base = 100
	}
	score := base -
		diseasePenalty*len(a.Diseases) -
		pestPenalty*len(a.Pests) -
		animalPenalty*len(a.Animals)
	return clampInt(score, 0, 100)
}

// ComputeAverageConfidence is the mean of every defined confidence across
// diseases, pests and animals. With nothing flagged it returns 100.
func ComputeAverageConfidence(a *domain.Analysis) float64 {
	values := collectConfidences(a, true)
	if len(values) == 0 {
		return 100
	}
	return domain.ClampPercent(stat.Mean(values, nil))
}

// collectConfidences gathers defined confidences; animals are included only when asked.
func collectConfidences(a *domain.Analysis, withAnimals bool) []float64 {
	if a == nil {
		return nil
	}
	var values []float64
	for _, d := range a.Diseases {
		if d.Confidence != nil {
			values = append(values, domain.ClampPercent(float64(*d.Confidence)))
		}
	}
	for _, p := range a.Pests {
		if p.Confidence != nil {
			values = append(values, domain.ClampPercent(float64(*p.Confidence)))
		}
	}
	if withAnimals {
		for _, an := range a.Animals {
			if an.Confidence != nil {
				values = append(values, domain.ClampPercent(float64(*an.Confidence)))
			}
		}
	}
	return values
}

var leafDamageTerms = []string{"leaf", "leaves", "foliar", "foliage", "defoliat"}

// DeriveLeafDamage reports whether any symptom or pest damage mentions foliage
func DeriveLeafDamage(a *domain.Analysis) bool {
	if a == nil {
		return false
	}
	for _, d := range a.Diseases {
		for _, s := range d.Symptoms {
			if containsAny(s, leafDamageTerms) {
				return true
			}
		}
	}
	for _, p := range a.Pests {
		if containsAny(p.DamageType, leafDamageTerms) {
			return true
		}
	}
	return false
}

// FilterNutrientDeficiencies returns the diseases that are really nutrient deficiencies
func FilterNutrientDeficiencies(a *domain.Analysis) []domain.Disease {
	out := []domain.Disease{}
	if a == nil {
		return out
	}
	for _, d := range a.Diseases {
		if containsAny(d.Category, []string{"nutrient", "deficien"}) || containsAny(d.Name, []string{"deficien"}) {
			out = append(out, d)
		}
	}
	return out
}

// PrimaryDetection summarizes an analysis as a single category.
// Priority: disease > insect > wildlife > healthy. Confidence is 0-1.
type PrimaryDetection struct {
	Category   string
	Name       string
	Confidence float64
}

// DerivePrimaryDetection picks the headline detection of an analysis
func DerivePrimaryDetection(a *domain.Analysis) PrimaryDetection {
	fallback := ComputeAverageConfidence(a) / 100
	pick := func(category, name string, c *domain.Percent) PrimaryDetection {
		conf := fallback
		if c != nil {
			conf = domain.ClampPercent(float64(*c)) / 100
		}
		return PrimaryDetection{Category: category, Name: name, Confidence: conf}
	}

	switch {
	case a == nil:
		return PrimaryDetection{Category: domain.CategoryHealthy, Name: "Healthy", Confidence: 1}
	case a.DiseaseDetected && len(a.Diseases) > 0:
		return pick(domain.CategoryDisease, a.Diseases[0].Name, a.Diseases[0].Confidence)
	case a.PestsDetected && len(a.Pests) > 0:
		return pick(domain.CategoryInsect, a.Pests[0].Name, a.Pests[0].Confidence)
	case a.AnimalsDetected && len(a.Animals) > 0:
		return pick(domain.CategoryWildlife, a.Animals[0].DisplayName(), a.Animals[0].Confidence)
	case a.DiseaseDetected:
		return pick(domain.CategoryDisease, "Unidentified disease", nil)
	case a.PestsDetected:
		return pick(domain.CategoryInsect, "Unidentified pest", nil)
	case a.AnimalsDetected:
		return pick(domain.CategoryWildlife, "Unidentified animal", nil)
	}
	return PrimaryDetection{Category: domain.CategoryHealthy, Name: "Healthy", Confidence: fallback}
}

// Enrich computes every derived field and merges it into the analysis
func Enrich(a *domain.Analysis, meta *domain.ModelMetadata) {
	a.Normalize()
	a.OverallHealth = ComputeOverallHealth(a)
	a.AverageConfidence = ComputeAverageConfidence(a)
	a.LeafDamage = DeriveLeafDamage(a)
	a.NutrientDeficiencies = FilterNutrientDeficiencies(a)
	a.Insects = append([]domain.Pest{}, a.Pests...)
	a.ModelMetadata = meta
}

func containsAny(s string, terms []string) bool {
	s = strings.ToLower(s)
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
