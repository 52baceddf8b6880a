package report

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	NotAvailable    = "N/A"
	TextContent     = "Text Content"
	DateLayout      = "02 Jan 2006, 03:04 PM"
	neutralGradeHex = "#6b7280"
)

var fileNamePattern = regexp.MustCompile(`\.\w+$`)

// DisplayFileRef shows a stored answer reference. Filenames are shown as is;
// anything else is inline text and is only labelled, never printed.
func DisplayFileRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return NotAvailable
	}
	if fileNamePattern.MatchString(ref) {
		return ref
	}
	return TextContent
}

// FormatDate renders t in loc, or N/A for a missing timestamp.
func FormatDate(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return NotAvailable
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}

// FormatNumber drops trailing zeros and rounds to two decimals.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}

// FormatMarks renders "awarded / max". Either side missing shows N/A.
func FormatMarks(awarded *float64, max *int) string {
	left, right := NotAvailable, NotAvailable
	if awarded != nil {
		left = FormatNumber(*awarded)
	}
	if max != nil && *max > 0 {
		right = strconv.Itoa(*max)
	}
	return left + " / " + right
}

// FormatPercentage shows the backend's percentage. It is N/A when the
// percentage is absent or max marks are unknown, since the ratio is undefined then.
func FormatPercentage(pct *float64, max *int) string {
	if pct == nil || max == nil || *max <= 0 {
		return NotAvailable
	}
	return FormatNumber(*pct) + "%"
}

var gradeColors = map[string]string{
	"A+": "#10b981",
	"A":  "#10b981",
	"B+": "#3b82f6",
	"B":  "#3b82f6",
	"C+": "#f59e0b",
	"C":  "#f59e0b",
	"D":  "#ef4444",
	"F":  "#ef4444",
}

// GradeColor is the badge colour for a letter grade.
func GradeColor(grade string) string {
	if c, ok := gradeColors[strings.TrimSpace(grade)]; ok {
		return c
	}
	return neutralGradeHex
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}
