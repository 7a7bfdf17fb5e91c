package profile_test

import (
	"context"
	"strings"
	"testing"

	"github.com/academiahq/academia/core/account"
	"github.com/academiahq/academia/core/profile"
	inmemdb "github.com/academiahq/academia/storage/database/inmem"
)

func setup(t *testing.T) *profile.Service {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return profile.NewService(inmemdb.NewProfileRepository(db))
}

func TestService_CreateStudent(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	s, err := svc.CreateStudent(ctx, "acct-1", "6A")
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	if s.ID == "" {
		t.Error("student record id was not assigned")
	}
	if s.ClassName != "6A" {
		t.Errorf("className = %q; want %q", s.ClassName, "6A")
	}
	if !strings.HasPrefix(s.StudentID, "STU-") || !strings.HasSuffix(s.StudentID, "-0001") {
		t.Errorf("studentID = %q; want STU-<year>-0001", s.StudentID)
	}
	if s.AcademicYear == "" {
		t.Error("academic year was not set")
	}

	// ids number from the record count
	s2, err := svc.CreateStudent(ctx, "acct-2", "6B")
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	if !strings.HasSuffix(s2.StudentID, "-0002") {
		t.Errorf("studentID = %q; want suffix -0002", s2.StudentID)
	}
}

func TestService_CreateTeacher(t *testing.T) {
	svc := setup(t)

	tch, err := svc.CreateTeacher(context.Background(), "acct-1", []string{"math", "physics"})
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	if !strings.HasPrefix(tch.TeacherID, "TCH-") {
		t.Errorf("teacherID = %q; want a TCH- prefix", tch.TeacherID)
	}
	if len(tch.Subjects) != 2 {
		t.Errorf("subjects = %v; want 2 entries", tch.Subjects)
	}
}

func TestService_ResolveProfileID(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	s, err := svc.CreateStudent(ctx, "acct-1", "6A")
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	p, err := svc.CreateParent(ctx, "acct-2")
	if err != nil {
		t.Fatalf("CreateParent() failed: %v", err)
	}

	tests := []struct {
		name      string
		accountID string
		role      account.Role
		want      string
	}{
		{name: "student", accountID: "acct-1", role: account.RoleStudent, want: s.ID},
		{name: "parent", accountID: "acct-2", role: account.RoleParent, want: p.ID},
		{name: "no record yet", accountID: "acct-3", role: account.RoleTeacher, want: ""},
		{name: "roleless account", accountID: "acct-1", role: account.RoleUnassigned, want: ""},
		{name: "admin has no profile", accountID: "acct-1", role: account.RoleAdmin, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ResolveProfileID(ctx, tt.accountID, tt.role)
			if err != nil {
				t.Fatalf("ResolveProfileID() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveProfileID() = %q; want %q", got, tt.want)
			}
		})
	}
}
