package service

import "strings"

// Effectiveness tiers of a deterrent against a species
const (
	EffectivenessLow    = "low"
	EffectivenessMedium = "medium"
	EffectivenessHigh   = "high"
)

// Species is a catalogued deterrent profile
type Species struct {
	Code          string
	Name          string
	FrequencyKHz  float64
	Effectiveness string
}

// genericSpecies is used for animals missing from the catalog
var genericSpecies = Species{Code: "unknown", Name: "Unknown animal", FrequencyKHz: 20, Effectiveness: EffectivenessMedium}

var speciesCatalog = map[string]Species{
	"wild_boar":    {Code: "wild_boar", Name: "Wild Boar", FrequencyKHz: 18, Effectiveness: EffectivenessHigh},
	"deer":         {Code: "deer", Name: "Deer", FrequencyKHz: 16, Effectiveness: EffectivenessHigh},
	"nilgai":       {Code: "nilgai", Name: "Nilgai", FrequencyKHz: 14, Effectiveness: EffectivenessMedium},
	"monkey":       {Code: "monkey", Name: "Monkey", FrequencyKHz: 18, Effectiveness: EffectivenessMedium},
	"elephant":     {Code: "elephant", Name: "Elephant", FrequencyKHz: 8, Effectiveness: EffectivenessLow},
	"rabbit":       {Code: "rabbit", Name: "Rabbit", FrequencyKHz: 25, Effectiveness: EffectivenessHigh},
	"porcupine":    {Code: "porcupine", Name: "Porcupine", FrequencyKHz: 22, Effectiveness: EffectivenessMedium},
	"bird":         {Code: "bird", Name: "Bird", FrequencyKHz: 4, Effectiveness: EffectivenessMedium},
	"rodent":       {Code: "rodent", Name: "Rodent", FrequencyKHz: 40, Effectiveness: EffectivenessHigh},
	"squirrel":     {Code: "squirrel", Name: "Squirrel", FrequencyKHz: 30, Effectiveness: EffectivenessMedium},
	"fox":          {Code: "fox", Name: "Fox", FrequencyKHz: 24, Effectiveness: EffectivenessMedium},
	"jackal":       {Code: "jackal", Name: "Jackal", FrequencyKHz: 24, Effectiveness: EffectivenessMedium},
	"stray_dog":    {Code: "stray_dog", Name: "Stray Dog", FrequencyKHz: 25, Effectiveness: EffectivenessHigh},
	"stray_cattle": {Code: "stray_cattle", Name: "Stray Cattle", FrequencyKHz: 10, Effectiveness: EffectivenessLow},
}

var speciesAliases = map[string]string{
	"boar":      "wild_boar",
	"wildboar":  "wild_boar",
	"pig":       "wild_boar",
	"wild_pig":  "wild_boar",
	"hog":       "wild_boar",
	"feral_hog": "wild_boar",
	"stag":      "deer",
	"blue_bull": "nilgai",
	"macaque":   "monkey",
	"langur":    "monkey",
	"ape":       "monkey",
	"hare":      "rabbit",
	"crow":      "bird",
	"parrot":    "bird",
	"pigeon":    "bird",
	"sparrow":   "bird",
	"rat":       "rodent",
	"mouse":     "rodent",
	"mice":      "rodent",
	"dog":       "stray_dog",
	"cow":       "stray_cattle",
	"cattle":    "stray_cattle",
	"bull":      "stray_cattle",
	"buffalo":   "stray_cattle",
}

// normalizeSpeciesCode maps free-form animal names ("Wild Boar", "pigs") to catalog codes
func normalizeSpeciesCode(raw string) string {
	code := strings.ToLower(strings.TrimSpace(raw))
	code = strings.NewReplacer(" ", "_", "-", "_").Replace(code)
	if code == "" {
		return ""
	}
	for _, candidate := range []string{code, strings.TrimSuffix(code, "s"), strings.TrimSuffix(code, "es")} {
		if _, ok := speciesCatalog[candidate]; ok {
			return candidate
		}
		if alias, ok := speciesAliases[candidate]; ok {
			return alias
		}
	}
	return code
}

// LookupSpecies returns the catalog profile for an animal type, or the generic profile
func LookupSpecies(raw string) (Species, bool) {
	code := normalizeSpeciesCode(raw)
	if sp, ok := speciesCatalog[code]; ok {
		return sp, true
	}
	generic := genericSpecies
	if code != "" {
		generic.Code = code
	}
	return generic, false
}

// catalogCodes lists catalog codes in a stable order
func catalogCodes() []string {
	return []string{
		"wild_boar", "deer", "nilgai", "monkey", "elephant", "rabbit", "porcupine",
		"bird", "rodent", "squirrel", "fox", "jackal", "stray_dog", "stray_cattle",
	}
}
