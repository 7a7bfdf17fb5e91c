package academics

import "fmt"

// Human-readable record ids: PREFIX-YYYY-NNNN, numbered from the current
// count of records of that kind.

func GenerateStudentID(count int) string { return generateYearID("STU", count) }
func GenerateTeacherID(count int) string { return generateYearID("TCH", count) }
func GenerateParentID(count int) string  { return generateYearID("PAR", count) }
func GenerateExamID(count int) string    { return generateYearID("EXM", count) }

func generateYearID(prefix string, count int) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, NowFunc().Year(), count+1)
}
