package model

import (
	"regexp"
	"strings"
)

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),       // YYYY-MM-DD
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}$`), // MM/DD/YYYY or M/D/YY
	}
	sheetPattern = regexp.MustCompile(`^[A-Z]\d+(?:\.\d+)?$`)        // e.g. A2.01
	scalePattern = regexp.MustCompile(`^\s*\d+\s*/\s*\d+\s*["”]?\s*=\s*1['′]`) // e.g. 1/4" = 1'-0"
)

// ValidDate reports whether v looks like a drawing date.
func ValidDate(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, p := range datePatterns {
		if p.MatchString(v) {
			return true
		}
	}
	return false
}

// ValidSheetNumber reports whether v looks like a sheet number.
func ValidSheetNumber(v string) bool {
	return sheetPattern.MatchString(strings.TrimSpace(v))
}

// ValidScale reports whether v looks like a drawing scale.
func ValidScale(v string) bool {
	return scalePattern.MatchString(strings.TrimSpace(v))
}

// ValidMetadataField validates one title-block field by key. Fields
// without a specific pattern just need non-blank content.
func ValidMetadataField(key, value string) bool {
	switch key {
	case "date":
		return ValidDate(value)
	case "sheet_number":
		return ValidSheetNumber(value)
	case "scale":
		return ValidScale(value)
	default:
		return strings.TrimSpace(value) != ""
	}
}

// RequiredMetadataFields are the title-block fields counted toward coverage.
var RequiredMetadataFields = []string{"project_name", "sheet_number", "revision", "date", "scale"}
