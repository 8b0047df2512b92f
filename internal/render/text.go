package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kiranshivaraju/agerating/internal/session"
	"github.com/kiranshivaraju/agerating/pkg/models"
)

// Options controls text output.
type Options struct {
	Color bool
}

const ansiReset = "\x1b[0m"

var ansiBackground = map[models.Color]string{
	models.ColorGray:   "\x1b[100m",
	models.ColorGreen:  "\x1b[42m",
	models.ColorYellow: "\x1b[43m",
	models.ColorRed:    "\x1b[41m",
}

// Text writes v as a checklist. Expanded rows show their reason underneath.
func Text(w io.Writer, v View, opts Options) error {
	var b strings.Builder

	if v.InFlight {
		fmt.Fprintf(&b, "Analyzing %s", v.File)
		if v.TaskID != "" {
			fmt.Fprintf(&b, " (task %s)", v.TaskID)
		}
		b.WriteString("...\n")
	}
	if v.Notice != nil {
		fmt.Fprintf(&b, "! %s\n", NoticeText(*v.Notice))
	}

	fmt.Fprintf(&b, "AgeCategory: %s\n", v.AgeCategory)
	for i, r := range v.Rows {
		marker := "▼"
		if r.Expanded {
			marker = "▲"
		}
		fmt.Fprintf(&b, "%d. %s %s: %s %s\n", i+1, swatch(r.Color, opts), r.Category, r.Severity, marker)
		if r.Expanded {
			for _, line := range strings.Split(r.Reason, "\n") {
				fmt.Fprintf(&b, "     %s\n", line)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v View) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func swatch(c models.Color, opts Options) string {
	if !opts.Color {
		return "[" + string(c) + "]"
	}
	bg, ok := ansiBackground[c]
	if !ok {
		bg = ansiBackground[models.ColorGray]
	}
	return bg + "  " + ansiReset
}

// NoticeText is the line shown for n.
func NoticeText(n session.Notice) string {
	switch n.Kind {
	case session.NoticeUploadFailed:
		return "File upload failed: " + n.Message
	case session.NoticeAnalysisFailed:
		return "Analysis failed: " + n.Message
	case session.NoticePollTimeout:
		return "Analysis timed out: " + n.Message
	default:
		return n.Message
	}
}
