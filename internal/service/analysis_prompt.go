package service

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultLanguage is used when no or an invalid language code is given
const DefaultLanguage = "en"

// analysisLanguage describes the language the model must answer in
type analysisLanguage struct {
	Code    string // normalized BCP 47 code, e.g. "hi"
	English string // e.g. "Hindi"
	Native  string // e.g. "हिन्दी"
}

func (l analysisLanguage) isEnglish() bool {
	return l.Code == DefaultLanguage
}

// resolveLanguage parses a client supplied language code; invalid codes fall back to English
func resolveLanguage(code string) analysisLanguage {
	english := analysisLanguage{Code: DefaultLanguage, English: "English", Native: "English"}
	code = strings.TrimSpace(code)
	if code == "" {
		return english
	}
	tag, err := language.Parse(code)
	if err != nil {
		return english
	}
	base, conf := tag.Base()
	if conf == language.No || base.String() == DefaultLanguage {
		return english
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return english
	}
	native := display.Self.Name(tag)
	if native == "" {
		native = name
	}
	return analysisLanguage{Code: tag.String(), English: name, Native: native}
}

// analysisPromptTemplate enumerates the taxonomy and the JSON schema the model must return
const analysisPromptTemplate = `You are an agronomy assistant analysing a single field photo captured by a farmer.
Inspect the image carefully and check for ALL of the following:

1. PLANT DISEASES
   - Fungal (blights, rusts, mildews, leaf spots, rots, wilts, anthracnose)
   - Bacterial (bacterial spot, canker, soft rot, bacterial wilt)
   - Viral (mosaic viruses, leaf curl, yellowing viruses)
   - Nutrient deficiencies (nitrogen, phosphorus, potassium, magnesium, iron, zinc) - use category "nutrient_deficiency"
   - Abiotic stress (sunscald, frost, drought, herbicide injury)

2. PESTS AND INSECTS
   - Sucking insects (aphids, whiteflies, thrips, mites, mealybugs)
   - Chewing insects (caterpillars, armyworms, beetles, grasshoppers, leaf miners)
   - Borers and soil pests (stem borers, fruit borers, cutworms, grubs, nematodes)
   - Molluscs (slugs, snails)
   Report the life stage (egg, larva, nymph, pupa, adult) and the damage type.

3. WILDLIFE
   - Wild boar, deer, monkeys, elephants, nilgai, rabbits, hares, porcupines
   - Birds (crows, parrots, pigeons, sparrows), rodents (rats, mice, squirrels)
   - Foxes, jackals, stray cattle, stray dogs
   Estimate the distance from the camera in meters, the count, and a threat level (low, medium, high).

SEVERITY BANDS (overall crop damage):
   none = healthy, no issues; low = <10%% affected; medium = 10-30%%; high = 30-60%%; critical = >60%% or crop loss imminent.

CONFIDENCE BANDS (0-100 per finding):
   90-100 = clear textbook signs; 70-89 = likely; 50-69 = possible, needs confirmation; below 50 = do not report.

TREATMENT CATEGORIES:
   whatToDoNow (immediate steps), prevention, organicOptions, chemicalOptions (include active ingredient and safety interval).

Respond with ONE JSON object and nothing else, using exactly this schema:
{
  "diseaseDetected": boolean,
  "pestsDetected": boolean,
  "animalsDetected": boolean,
  "severity": "none" | "low" | "medium" | "high" | "critical",
  "cropType": string,
  "summary": string,
  "diseases": [{"name": string, "scientificName": string, "category": string, "confidence": number, "symptoms": [string]}],
  "pests": [{"name": string, "scientificName": string, "type": string, "lifestage": string, "confidence": number, "damageType": string}],
  "animals": [{"type": string, "name": string, "confidence": number, "estimatedDistance": number, "location": string, "count": number, "threatLevel": "low" | "medium" | "high"}],
  "whatToDoNow": [string],
  "prevention": [string],
  "organicOptions": [string],
  "chemicalOptions": [string]
}
Use empty arrays when nothing is found. Use snake_case animal types such as "wild_boar" or "deer".%s`

// buildAnalysisPrompt returns the instruction for the given language
func buildAnalysisPrompt(lang analysisLanguage) string {
	suffix := ""
	if !lang.isEnglish() {
		suffix = fmt.Sprintf(`

LANGUAGE REQUIREMENT: Write ALL text values (summary, names, categories, symptoms, damage types, locations and every treatment step) in %s (%s), using its native script.
Only scientific names may remain in English or Latin. JSON keys and the enumerated values of "severity" and "threatLevel" must stay exactly as in the schema.`,
			lang.English, lang.Native)
	}
	return fmt.Sprintf(analysisPromptTemplate, suffix)
}
