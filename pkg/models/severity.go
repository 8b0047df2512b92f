package models

// Severity is the rating of a single category. Values are the labels the analysis service emits.
type Severity string

const (
	SeverityNone     Severity = "Нет"
	SeverityMild     Severity = "Слабый"
	SeverityModerate Severity = "Средний"
	SeverityStrong   Severity = "Сильный"
)

// Color is the swatch shown next to a category.
type Color string

const (
	ColorGray   Color = "gray"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorRed    Color = "red"
)

var severityColors = map[Severity]Color{
	SeverityNone:     ColorGray,
	SeverityMild:     ColorGreen,
	SeverityModerate: ColorYellow,
	SeverityStrong:   ColorRed,
}

var severityLabels = map[Severity]string{
	SeverityNone:     "None",
	SeverityMild:     "Mild",
	SeverityModerate: "Moderate",
	SeverityStrong:   "Strong",
}

// Known reports whether s belongs to the closed set of severities.
func (s Severity) Known() bool {
	_, ok := severityColors[s]
	return ok
}

// Color maps s to its swatch. Anything outside the closed set is gray.
func (s Severity) Color() Color {
	if c, ok := severityColors[s]; ok {
		return c
	}
	return ColorGray
}

// Label returns the English name of s, or the raw value for unknown severities.
func (s Severity) Label() string {
	if l, ok := severityLabels[s]; ok {
		return l
	}
	return string(s)
}
