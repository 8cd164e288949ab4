package index

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/qiyas/continuity/pkg/errors"
)

// Index codes carry the assessment year either as a trailing "-YYYY" segment
// ("ETARI-2025") or, for older naming schemes, as a leading "YYYY-" segment
// ("2025-NAII").  Trailing placement wins when both are present.
var (
	reTrailingYear = regexp.MustCompile(`-(\d{4})$`)
	reLeadingYear  = regexp.MustCompile(`^(\d{4})-`)
	reAnyYear      = regexp.MustCompile(`\d{4}`)
)

// ExtractYear extracts the four-digit assessment year from an index code.
// The second return value is false when no year is present.
func ExtractYear(code string) (int, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, false
	}
	if m := reTrailingYear.FindStringSubmatch(code); m != nil {
		year, err := strconv.Atoi(m[1])
		return year, err == nil
	}
	if m := reLeadingYear.FindStringSubmatch(code); m != nil {
		year, err := strconv.Atoi(m[1])
		return year, err == nil
	}
	return 0, false
}

// Assessment cycles started after 2000; anything outside this range in a
// code is a typo rather than a year.
const (
	minAssessmentYear = 2000
	maxAssessmentYear = 2100
)

// ValidateCodeYear rejects codes whose embedded four-digit year falls
// outside the plausible assessment range.  Codes without a year pass: they
// rely on an explicit previous-index link for continuity instead.
func ValidateCodeYear(code string) error {
	year, ok := ExtractYear(code)
	if !ok {
		return nil
	}
	if year < minAssessmentYear || year > maxAssessmentYear {
		return errors.New(errors.ErrCodeIndexCodeInvalid,
			"index code year "+strconv.Itoa(year)+" is not a plausible assessment year")
	}
	return nil
}

// PreviousYearCode derives the prior cycle's conventional code by replacing
// the first occurrence of the four-digit year substring with year-1,
// preserving every other character.  The result is a naming-convention guess
// used for automatic previous-cycle discovery; an explicit PreviousIndexID
// link always takes precedence.
func PreviousYearCode(code string, year int) string {
	replaced := false
	return reAnyYear.ReplaceAllStringFunc(code, func(m string) string {
		if replaced {
			return m
		}
		replaced = true
		return strconv.Itoa(year - 1)
	})
}
