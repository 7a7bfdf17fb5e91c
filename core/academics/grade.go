// Package academics holds the pure derived-field computations (grades, fees,
// academic years, human-readable ids) that are applied explicitly at write
// time by the flows that own the records.
package academics

// LetterGrade maps a percentage onto the school's grading scale.
func LetterGrade(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B+"
	case percentage >= 60:
		return "B"
	case percentage >= 50:
		return "C"
	case percentage >= 40:
		return "D"
	default:
		return "F"
	}
}

// GPA maps a percentage onto the 4.0 scale.
func GPA(percentage float64) float64 {
	switch {
	case percentage >= 90:
		return 4.0
	case percentage >= 80:
		return 3.5
	case percentage >= 70:
		return 3.0
	case percentage >= 60:
		return 2.5
	case percentage >= 50:
		return 2.0
	case percentage >= 40:
		return 1.5
	default:
		return 0.0
	}
}

// Percentage computes obtained/total as a percentage; a zero total yields 0.
func Percentage(obtained, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (obtained / total) * 100
}

// IsPassing reports whether a letter grade is a pass.
func IsPassing(grade string) bool {
	return grade != "F"
}
