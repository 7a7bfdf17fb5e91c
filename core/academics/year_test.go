package academics

import (
	"testing"
	"time"
)

func mockNow(t *testing.T, now time.Time) {
	orig := NowFunc
	NowFunc = func() time.Time { return now }
	t.Cleanup(func() { NowFunc = orig })
}

func TestAcademicYearAt(t *testing.T) {
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), "2026-2027"},
		{time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC), "2026-2027"},
		{time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC), "2025-2026"},
		{time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), "2025-2026"},
	}
	for _, tt := range tests {
		if got := AcademicYearAt(tt.at); got != tt.want {
			t.Errorf("AcademicYearAt(%v) = %q; want %q", tt.at, got, tt.want)
		}
	}
}

func TestAcademicYears(t *testing.T) {
	mockNow(t, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	got := AcademicYears(3)
	want := []string{"2026-2027", "2025-2026", "2024-2025"}
	if len(got) != len(want) {
		t.Fatalf("AcademicYears(3) returned %d years; want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AcademicYears(3)[%d] = %q; want %q", i, got[i], want[i])
		}
	}
}

func TestParseAcademicYear(t *testing.T) {
	start, end, err := ParseAcademicYear("2026-2027")
	if err != nil {
		t.Fatalf("ParseAcademicYear() failed: %v", err)
	}
	if start != 2026 || end != 2027 {
		t.Errorf("ParseAcademicYear() = (%d, %d); want (2026, 2027)", start, end)
	}

	if _, _, err := ParseAcademicYear("26-27"); err == nil {
		t.Error("ParseAcademicYear(26-27) expected error")
	}
}

func TestIsValidAcademicYear(t *testing.T) {
	tests := []struct {
		year string
		want bool
	}{
		{"2026-2027", true},
		{"2026-2028", false},
		{"2027-2026", false},
		{"garbage", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidAcademicYear(tt.year); got != tt.want {
			t.Errorf("IsValidAcademicYear(%q) = %v; want %v", tt.year, got, tt.want)
		}
	}
}

func TestGenerateYearIDs(t *testing.T) {
	mockNow(t, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		got  string
		want string
	}{
		{GenerateStudentID(41), "STU-2026-0042"},
		{GenerateTeacherID(0), "TCH-2026-0001"},
		{GenerateParentID(12), "PAR-2026-0013"},
		{GenerateExamID(9999), "EXM-2026-10000"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("generated id = %q; want %q", tt.got, tt.want)
		}
	}
}
