package service

import (
	"testing"

	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestComputeOverallHealth_HealthyIs100(t *testing.T) {
	a := &domain.Analysis{Severity: domain.SeverityNone}
	assert.Equal(t, 100, ComputeOverallHealth(a))
	assert.Equal(t, 100, ComputeOverallHealth(nil))
	assert.Equal(t, 100, ComputeOverallHealth(&domain.Analysis{Severity: "bogus"}))
}

func TestComputeOverallHealth_SeverityBase(t *testing.T) {
	tests := []struct {
		severity domain.Severity
		want     int
	}{
		{domain.SeverityLow, 85},
		{domain.SeverityMedium, 60},
		{domain.SeverityHigh, 35},
		{domain.SeverityCritical, 10},
		{"HIGH", 35},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ComputeOverallHealth(&domain.Analysis{Severity: tt.severity}), tt.severity)
	}
}

func TestComputeOverallHealth_BoundedAndNonIncreasing(t *testing.T) {
	for _, sev := range []domain.Severity{domain.SeverityNone, domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh, domain.SeverityCritical} {
		a := &domain.Analysis{Severity: sev}
		prev := ComputeOverallHealth(a)
		for i := 0; i < 30; i++ {
			switch i % 3 {
			case 0:
				a.Diseases = append(a.Diseases, domain.Disease{Name: "d"})
			case 1:
				a.Pests = append(a.Pests, domain.Pest{Name: "p"})
			default:
				a.Animals = append(a.Animals, domain.Animal{Type: "deer"})
			}
			got := ComputeOverallHealth(a)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
			assert.LessOrEqual(t, got, prev, "severity %s after %d items", sev, i+1)
			prev = got
		}
	}
}

func TestComputeOverallHealth_Penalties(t *testing.T) {
	a := &domain.Analysis{
		Severity: domain.SeverityLow,
		Diseases: []domain.Disease{{Name: "a"}, {Name: "b"}},
		Pests:    []domain.Pest{{Name: "c"}},
		Animals:  []domain.Animal{{Type: "deer"}},
	}
	// 85 - 10 - 3 - 2
	assert.Equal(t, 70, ComputeOverallHealth(a))
}

func TestComputeAverageConfidence(t *testing.T) {
	assert.Equal(t, 100.0, ComputeAverageConfidence(&domain.Analysis{}))
	assert.Equal(t, 100.0, ComputeAverageConfidence(&domain.Analysis{
		Diseases: []domain.Disease{{Name: "no confidence"}},
	}))

	a := &domain.Analysis{
		Diseases: []domain.Disease{{Name: "a", Confidence: percent(80)}, {Name: "b"}},
		Pests:    []domain.Pest{{Name: "c", Confidence: percent(60)}},
		Animals:  []domain.Animal{{Type: "deer", Confidence: percent(100)}},
	}
	assert.InDelta(t, 80.0, ComputeAverageConfidence(a), 1e-9)

	clamped := &domain.Analysis{Diseases: []domain.Disease{{Name: "x", Confidence: percent(250)}}}
	assert.Equal(t, 100.0, ComputeAverageConfidence(clamped))
}

func TestDeriveLeafDamage(t *testing.T) {
	assert.False(t, DeriveLeafDamage(&domain.Analysis{}))
	assert.True(t, DeriveLeafDamage(&domain.Analysis{
		Diseases: []domain.Disease{{Name: "blight", Symptoms: []string{"Brown spots on Leaves"}}},
	}))
	assert.True(t, DeriveLeafDamage(&domain.Analysis{
		Pests: []domain.Pest{{Name: "caterpillar", DamageType: "defoliation"}},
	}))
	assert.False(t, DeriveLeafDamage(&domain.Analysis{
		Pests: []domain.Pest{{Name: "borer", DamageType: "stem tunnelling"}},
	}))
}

func TestFilterNutrientDeficiencies(t *testing.T) {
	a := &domain.Analysis{Diseases: []domain.Disease{
		{Name: "Early blight", Category: "fungal"},
		{Name: "Nitrogen deficiency", Category: "abiotic"},
		{Name: "Chlorosis", Category: "nutrient_deficiency"},
	}}
	got := FilterNutrientDeficiencies(a)
	assert.Len(t, got, 2)
	assert.Equal(t, "Nitrogen deficiency", got[0].Name)
	assert.NotNil(t, FilterNutrientDeficiencies(nil))
}

func TestDerivePrimaryDetection(t *testing.T) {
	a := &domain.Analysis{
		DiseaseDetected: true,
		PestsDetected:   true,
		Diseases:        []domain.Disease{{Name: "Rust", Confidence: percent(90)}},
		Pests:           []domain.Pest{{Name: "Aphid", Confidence: percent(70)}},
	}
	p := DerivePrimaryDetection(a)
	assert.Equal(t, domain.CategoryDisease, p.Category)
	assert.Equal(t, "Rust", p.Name)
	assert.InDelta(t, 0.9, p.Confidence, 1e-9)

	a.DiseaseDetected = false
	p = DerivePrimaryDetection(a)
	assert.Equal(t, domain.CategoryInsect, p.Category)

	wild := &domain.Analysis{AnimalsDetected: true, Animals: []domain.Animal{{Type: "wild_boar"}}}
	p = DerivePrimaryDetection(wild)
	assert.Equal(t, domain.CategoryWildlife, p.Category)
	assert.Equal(t, "wild_boar", p.Name)
	assert.InDelta(t, 1.0, p.Confidence, 1e-9)

	p = DerivePrimaryDetection(&domain.Analysis{})
	assert.Equal(t, domain.CategoryHealthy, p.Category)
}

func TestEnrich(t *testing.T) {
	a := &domain.Analysis{
		Severity: domain.SeverityMedium,
		Diseases: []domain.Disease{{Name: "Iron deficiency", Symptoms: []string{"yellow leaf veins"}, Confidence: percent(70)}},
		Pests:    []domain.Pest{{Name: "Thrips", Confidence: percent(50)}},
	}
	meta := &domain.ModelMetadata{ModelID: "m"}
	Enrich(a, meta)

	assert.Equal(t, 60-5-3, a.OverallHealth)
	assert.InDelta(t, 60.0, a.AverageConfidence, 1e-9)
	assert.True(t, a.LeafDamage)
	assert.Len(t, a.NutrientDeficiencies, 1)
	assert.Equal(t, a.Pests, a.Insects)
	assert.Same(t, meta, a.ModelMetadata)
	assert.JSONEq(t, `[]`, string(a.WhatToDoNow))
}
