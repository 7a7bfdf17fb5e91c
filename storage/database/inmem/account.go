package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/academiahq/academia/core/account"
)

type accountRepository struct {
	db *accountTable
}

var _ account.Repository = (*accountRepository)(nil)

func NewAccountRepository(db *DB) *accountRepository {
	return &accountRepository{db: db.account}
}

func (repo *accountRepository) query() []account.Account {
	accts := make([]account.Account, 0, len(repo.db.t))
	for _, a := range repo.db.t {
		accts = append(accts, *a)
	}
	sort.Slice(accts, func(i, j int) bool { return accts[i].CreatedAt.Before(accts[j].CreatedAt) })
	return accts
}

func (repo *accountRepository) CheckUsernameUniqueness(ctx context.Context, username string, excludedAccounts ...account.Account) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, acct := range repo.query() {
		if acct.Username == username && !isExcluded(acct, excludedAccounts) {
			return account.ErrUsernameExists
		}
	}
	return nil
}

func (repo *accountRepository) CountAccountsByEmail(ctx context.Context, email string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int
	for _, acct := range repo.query() {
		if acct.Email == email {
			count++
		}
	}
	return count, nil
}

func (repo *accountRepository) CreateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	acct.ID = uuid.New().String()
	repo.db.t[acct.ID] = &acct
	return acct, nil
}

func (repo *accountRepository) QueryAllAccounts(ctx context.Context) ([]account.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *accountRepository) FilterAccounts(ctx context.Context, filter account.QueryFilter) ([]account.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	accts := make([]account.Account, 0)
	for _, acct := range repo.query() {
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(acct.Username), search) &&
				!strings.Contains(strings.ToLower(acct.Email), search) {
				continue
			}
		}
		if filter.Role != "" && string(acct.Role) != filter.Role {
			continue
		}
		if filter.ApprovalStatus != "" && string(acct.ApprovalStatus) != filter.ApprovalStatus {
			continue
		}
		if filter.IsActive != nil && acct.IsActive != *filter.IsActive {
			continue
		}
		accts = append(accts, acct)
	}
	return accts, nil
}

func (repo *accountRepository) GetAccountByID(ctx context.Context, id string) (account.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if acct, ok := repo.db.t[id]; ok {
		return *acct, nil
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, acct := range repo.query() {
		if acct.Email == email {
			return acct, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) GetAccountByUsernameOrEmail(ctx context.Context, username string) (account.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, acct := range repo.query() {
		if (acct.Username == username) || (acct.Email == username) {
			return acct, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) SetAccountRole(ctx context.Context, id string, role account.Role) (account.Account, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	acct, ok := repo.db.t[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	// guard re-checked under the write lock
	if acct.RoleLocked() {
		return account.Account{}, account.ErrRoleLocked
	}
	acct.Role = role
	acct.ApprovalStatus = account.ApprovalPending
	acct.UpdatedAt = time.Now().UTC()
	return *acct, nil
}

func (repo *accountRepository) SetApprovalStatus(ctx context.Context, id string, status account.ApprovalStatus) (account.Account, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	acct, ok := repo.db.t[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	acct.ApprovalStatus = status
	acct.UpdatedAt = time.Now().UTC()
	return *acct, nil
}

func (repo *accountRepository) SetLastLogin(ctx context.Context, acct account.Account) (account.Account, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.t[acct.ID]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	orig.LastLogin = time.Now().UTC()
	return *orig, nil
}

func (repo *accountRepository) UpdateAccount(ctx context.Context, acct account.Account, isActive *bool) (account.Account, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	orig, ok := repo.db.t[acct.ID]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	if acct.PasswordHash != nil {
		orig.PasswordHash = acct.PasswordHash
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	orig.Username = acct.Username
	orig.Email = acct.Email
	orig.FirstName = acct.FirstName
	orig.LastName = acct.LastName
	orig.PhoneNumber = acct.PhoneNumber
	orig.Role = acct.Role
	orig.ApprovalStatus = acct.ApprovalStatus
	orig.UpdatedAt = acct.UpdatedAt

	return *orig, nil
}

func (repo *accountRepository) DeleteAccountsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.t, id)
	}
	return nil
}

func isExcluded(acct account.Account, excluded []account.Account) bool {
	for _, ex := range excluded {
		if acct.ID == ex.ID {
			return true
		}
	}
	return false
}
