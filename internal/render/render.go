// Package render turns session state into the category checklist.
package render

import (
	"github.com/kiranshivaraju/agerating/internal/session"
	"github.com/kiranshivaraju/agerating/pkg/models"
)

// NoAgeCategory is shown when no result, or a result without an age category, is available.
const NoAgeCategory = "-"

// Row is one category line of the checklist.
type Row struct {
	Category string          `json:"category"`
	Severity models.Severity `json:"severity"`
	Label    string          `json:"label"`
	Reason   string          `json:"reason"`
	Color    models.Color    `json:"color"`
	Expanded bool            `json:"expanded"`
}

// View is everything needed to draw the page once.
type View struct {
	Phase       session.Phase   `json:"phase"`
	InFlight    bool            `json:"in_flight"`
	File        string          `json:"file,omitempty"`
	TaskID      string          `json:"task_id,omitempty"`
	AgeCategory string          `json:"age_category"`
	Rows        []Row           `json:"rows"`
	Notice      *session.Notice `json:"notice,omitempty"`
}

// Rows builds one row per category, in order. result may be nil.
func Rows(result *models.AnalysisResult, categories []string, open session.Accordion) []Row {
	rows := make([]Row, 0, len(categories))
	for _, c := range categories {
		e := result.Guide(c)
		rows = append(rows, Row{
			Category: c,
			Severity: e.Severity,
			Label:    e.Severity.Label(),
			Reason:   e.Reason,
			Color:    e.Severity.Color(),
			Expanded: open.IsOpen(c),
		})
	}
	return rows
}

// Build derives the View for st.
func Build(st session.State, categories []string) View {
	age := NoAgeCategory
	if st.Result != nil && st.Result.AgeCategory != "" {
		age = st.Result.AgeCategory
	}
	return View{
		Phase:       st.Phase,
		InFlight:    st.InFlight,
		File:        st.File,
		TaskID:      st.TaskID,
		AgeCategory: age,
		Rows:        Rows(st.Result, categories, st.Open),
		Notice:      st.Notice,
	}
}
