package pgrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/academiahq/academia/core/profile"
)

type profileRepository struct {
	db *sqlx.DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *sqlx.DB) *profileRepository {
	return &profileRepository{db: db}
}

type dbStudent struct {
	ID           string      `db:"id"`
	AccountID    string      `db:"account_id"`
	StudentID    string      `db:"student_id"`
	ClassName    null.String `db:"class_name"`
	AcademicYear null.String `db:"academic_year"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

type dbTeacher struct {
	ID        string         `db:"id"`
	AccountID string         `db:"account_id"`
	TeacherID string         `db:"teacher_id"`
	Subjects  pq.StringArray `db:"subjects"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

type dbParent struct {
	ID        string    `db:"id"`
	AccountID string    `db:"account_id"`
	ParentID  string    `db:"parent_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func trapProfileNoRows(err error, msg string) error {
	if err == sql.ErrNoRows {
		return profile.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo profileRepository) CreateStudent(ctx context.Context, s profile.Student) (profile.Student, error) {
	s.ID = uuid.New().String()
	row := dbStudent{
		ID:           s.ID,
		AccountID:    s.AccountID,
		StudentID:    s.StudentID,
		ClassName:    null.NewString(s.ClassName, s.ClassName != ""),
		AcademicYear: null.NewString(s.AcademicYear, s.AcademicYear != ""),
		CreatedAt:    s.CreatedAt.UTC(),
		UpdatedAt:    s.UpdatedAt.UTC(),
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO student (id, account_id, student_id, class_name, academic_year, created_at, updated_at)
		VALUES (:id, :account_id, :student_id, :class_name, :academic_year, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return profile.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo profileRepository) CreateTeacher(ctx context.Context, t profile.Teacher) (profile.Teacher, error) {
	t.ID = uuid.New().String()
	row := dbTeacher{
		ID:        t.ID,
		AccountID: t.AccountID,
		TeacherID: t.TeacherID,
		Subjects:  pq.StringArray(t.Subjects),
		CreatedAt: t.CreatedAt.UTC(),
		UpdatedAt: t.UpdatedAt.UTC(),
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO teacher (id, account_id, teacher_id, subjects, created_at, updated_at)
		VALUES (:id, :account_id, :teacher_id, :subjects, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return profile.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return t, nil
}

func (repo profileRepository) CreateParent(ctx context.Context, p profile.Parent) (profile.Parent, error) {
	p.ID = uuid.New().String()
	row := dbParent{
		ID:        p.ID,
		AccountID: p.AccountID,
		ParentID:  p.ParentID,
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO parent (id, account_id, parent_id, created_at, updated_at)
		VALUES (:id, :account_id, :parent_id, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return profile.Parent{}, errors.Wrap(err, "inserting parent")
	}
	return p, nil
}

func (repo profileRepository) GetStudentByAccountID(ctx context.Context, accountID string) (profile.Student, error) {
	var row dbStudent
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM student WHERE account_id = $1`, accountID)
	if err != nil {
		return profile.Student{}, trapProfileNoRows(err, "getting student by account id")
	}
	return profile.Student{
		ID:           row.ID,
		AccountID:    row.AccountID,
		StudentID:    row.StudentID,
		ClassName:    row.ClassName.String,
		AcademicYear: row.AcademicYear.String,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

func (repo profileRepository) GetTeacherByAccountID(ctx context.Context, accountID string) (profile.Teacher, error) {
	var row dbTeacher
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM teacher WHERE account_id = $1`, accountID)
	if err != nil {
		return profile.Teacher{}, trapProfileNoRows(err, "getting teacher by account id")
	}
	return profile.Teacher{
		ID:        row.ID,
		AccountID: row.AccountID,
		TeacherID: row.TeacherID,
		Subjects:  []string(row.Subjects),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (repo profileRepository) GetParentByAccountID(ctx context.Context, accountID string) (profile.Parent, error) {
	var row dbParent
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM parent WHERE account_id = $1`, accountID)
	if err != nil {
		return profile.Parent{}, trapProfileNoRows(err, "getting parent by account id")
	}
	return profile.Parent{
		ID:        row.ID,
		AccountID: row.AccountID,
		ParentID:  row.ParentID,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (repo profileRepository) CountStudents(ctx context.Context) (int, error) {
	return repo.count(ctx, `SELECT COUNT(*) FROM student`)
}

func (repo profileRepository) CountTeachers(ctx context.Context) (int, error) {
	return repo.count(ctx, `SELECT COUNT(*) FROM teacher`)
}

func (repo profileRepository) CountParents(ctx context.Context) (int, error) {
	return repo.count(ctx, `SELECT COUNT(*) FROM parent`)
}

func (repo profileRepository) count(ctx context.Context, q string) (int, error) {
	var count int
	if err := repo.db.GetContext(ctx, &count, q); err != nil {
		return 0, errors.Wrap(err, "counting profiles")
	}
	return count, nil
}
