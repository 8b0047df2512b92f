package models

// NoDataReason is shown for a category the analysis did not report on.
const NoDataReason = "no data"

// DefaultCategories is the fixed, ordered set of parents-guide categories.
var DefaultCategories = []string{
	"Sex & Nudity",
	"Violence & Gore",
	"Profanity",
	"Alcohol, Drugs & Smoking",
	"Frightening & Intense Scenes",
}

// AnalysisResult is the resolved output of an analysis job. Immutable once received.
// When the worker's output was not valid JSON the service passes it through in Raw
// and the structured fields are empty.
type AnalysisResult struct {
	AgeCategory  string                `json:"AgeCategory,omitempty"  yaml:"age_category"`
	ParentsGuide map[string]GuideEntry `json:"ParentsGuide,omitempty" yaml:"parents_guide"`
	Raw          string                `json:"raw,omitempty"          yaml:"raw,omitempty"`
}

// GuideEntry rates one category.
type GuideEntry struct {
	Severity Severity `json:"Severity" yaml:"severity"`
	Reason   string   `json:"Reason"   yaml:"reason"`
}

// Guide returns the entry for category with defaults applied per field:
// a missing severity is SeverityNone and a missing reason is NoDataReason.
// Safe to call on a nil result.
func (r *AnalysisResult) Guide(category string) GuideEntry {
	var e GuideEntry
	if r != nil {
		e = r.ParentsGuide[category]
	}
	if e.Severity == "" {
		e.Severity = SeverityNone
	}
	if e.Reason == "" {
		e.Reason = NoDataReason
	}
	return e
}
