package academics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var academicYearRegex = regexp.MustCompile(`^\d{4}-\d{4}$`)

// The academic year rolls over in April.
const academicYearStartMonth = time.April

// CurrentAcademicYear returns the academic year containing time.Now,
// formatted as "2026-2027".
func CurrentAcademicYear() string {
	return AcademicYearAt(NowFunc())
}

// NowFunc is mockable for tests.
var NowFunc = time.Now

// AcademicYearAt returns the academic year containing t.
func AcademicYearAt(t time.Time) string {
	year := t.Year()
	if t.Month() >= academicYearStartMonth {
		return fmt.Sprintf("%d-%d", year, year+1)
	}
	return fmt.Sprintf("%d-%d", year-1, year)
}

// AcademicYears lists the n most recent academic years, current first.
func AcademicYears(n int) []string {
	year := NowFunc().Year()
	years := make([]string, 0, n)
	for i := 0; i < n; i++ {
		years = append(years, fmt.Sprintf("%d-%d", year-i, year-i+1))
	}
	return years
}

// ParseAcademicYear splits "2026-2027" into its start and end years.
func ParseAcademicYear(academicYear string) (startYear, endYear int, err error) {
	if !academicYearRegex.MatchString(academicYear) {
		return 0, 0, fmt.Errorf("invalid academic year %q", academicYear)
	}
	parts := strings.SplitN(academicYear, "-", 2)
	startYear, _ = strconv.Atoi(parts[0])
	endYear, _ = strconv.Atoi(parts[1])
	return startYear, endYear, nil
}

// IsValidAcademicYear checks the "YYYY-YYYY" format and that the years are
// consecutive.
func IsValidAcademicYear(academicYear string) bool {
	start, end, err := ParseAcademicYear(academicYear)
	if err != nil {
		return false
	}
	return end == start+1
}
