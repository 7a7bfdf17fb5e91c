package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/academiahq/academia/core/profile"
)

type profileRepository struct {
	db *profileTables
}

var _ profile.Repository = (*profileRepository)(nil)

func NewProfileRepository(db *DB) *profileRepository {
	return &profileRepository{db: db.profile}
}

func (repo *profileRepository) CreateStudent(ctx context.Context, s profile.Student) (profile.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s.ID = uuid.New().String()
	repo.db.students[s.AccountID] = &s
	return s, nil
}

func (repo *profileRepository) CreateTeacher(ctx context.Context, t profile.Teacher) (profile.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	t.ID = uuid.New().String()
	repo.db.teachers[t.AccountID] = &t
	return t, nil
}

func (repo *profileRepository) CreateParent(ctx context.Context, p profile.Parent) (profile.Parent, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.ID = uuid.New().String()
	repo.db.parents[p.AccountID] = &p
	return p, nil
}

func (repo *profileRepository) GetStudentByAccountID(ctx context.Context, accountID string) (profile.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.students[accountID]; ok {
		return *s, nil
	}
	return profile.Student{}, profile.ErrNotFound
}

func (repo *profileRepository) GetTeacherByAccountID(ctx context.Context, accountID string) (profile.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if t, ok := repo.db.teachers[accountID]; ok {
		return *t, nil
	}
	return profile.Teacher{}, profile.ErrNotFound
}

func (repo *profileRepository) GetParentByAccountID(ctx context.Context, accountID string) (profile.Parent, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.parents[accountID]; ok {
		return *p, nil
	}
	return profile.Parent{}, profile.ErrNotFound
}

func (repo *profileRepository) CountStudents(ctx context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.db.students), nil
}

func (repo *profileRepository) CountTeachers(ctx context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.db.teachers), nil
}

func (repo *profileRepository) CountParents(ctx context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.db.parents), nil
}
