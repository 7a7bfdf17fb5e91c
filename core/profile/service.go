package profile

import (
	"context"
	"errors"
	"time"

	"github.com/academiahq/academia/core/academics"
	"github.com/academiahq/academia/core/account"
)

var ErrNotFound = errors.New("profile not found")

type (
	Repository interface {
		CreateStudent(ctx context.Context, s Student) (Student, error)
		CreateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		CreateParent(ctx context.Context, p Parent) (Parent, error)
		GetStudentByAccountID(ctx context.Context, accountID string) (Student, error)
		GetTeacherByAccountID(ctx context.Context, accountID string) (Teacher, error)
		GetParentByAccountID(ctx context.Context, accountID string) (Parent, error)
		CountStudents(ctx context.Context) (int, error)
		CountTeachers(ctx context.Context) (int, error)
		CountParents(ctx context.Context) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var _ account.ProfileResolver = (*Service)(nil)

// ResolveProfileID returns the id of the profile record linked to the account,
// or "" when the role has no profile or none has been created yet.
func (svc *Service) ResolveProfileID(ctx context.Context, accountID string, role account.Role) (string, error) {
	var id string
	var err error
	switch role {
	case account.RoleStudent:
		var s Student
		if s, err = svc.repo.GetStudentByAccountID(ctx, accountID); err == nil {
			id = s.ID
		}
	case account.RoleTeacher:
		var t Teacher
		if t, err = svc.repo.GetTeacherByAccountID(ctx, accountID); err == nil {
			id = t.ID
		}
	case account.RoleParent:
		var p Parent
		if p, err = svc.repo.GetParentByAccountID(ctx, accountID); err == nil {
			id = p.ID
		}
	default:
		return "", nil
	}
	if err == ErrNotFound {
		return "", nil
	}
	return id, err
}

// CreateStudent creates the student record for an account, assigning the next
// human-readable student id for the current year.
func (svc *Service) CreateStudent(ctx context.Context, accountID, className string) (Student, error) {
	count, err := svc.repo.CountStudents(ctx)
	if err != nil {
		return Student{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateStudent(ctx, Student{
		AccountID:    accountID,
		StudentID:    academics.GenerateStudentID(count),
		ClassName:    className,
		AcademicYear: academics.CurrentAcademicYear(),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *Service) CreateTeacher(ctx context.Context, accountID string, subjects []string) (Teacher, error) {
	count, err := svc.repo.CountTeachers(ctx)
	if err != nil {
		return Teacher{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateTeacher(ctx, Teacher{
		AccountID: accountID,
		TeacherID: academics.GenerateTeacherID(count),
		Subjects:  subjects,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) CreateParent(ctx context.Context, accountID string) (Parent, error) {
	count, err := svc.repo.CountParents(ctx)
	if err != nil {
		return Parent{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateParent(ctx, Parent{
		AccountID: accountID,
		ParentID:  academics.GenerateParentID(count),
		CreatedAt: now,
		UpdatedAt: now,
	})
}
