package pgrepos

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/academiahq/academia/core/account"
)

type accountRepository struct {
	db *sqlx.DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *sqlx.DB) *accountRepository {
	return &accountRepository{db: db}
}

// dbAccount is the account table row.
type dbAccount struct {
	ID             string      `db:"id"`
	Username       string      `db:"username"`
	Email          string      `db:"email"`
	FirstName      null.String `db:"first_name"`
	LastName       null.String `db:"last_name"`
	PhoneNumber    null.String `db:"phone_number"`
	Role           string      `db:"role"`
	ApprovalStatus string      `db:"approval_status"`
	IsActive       bool        `db:"is_active"`
	PasswordHash   []byte      `db:"password_hash"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
	LastLogin      null.Time   `db:"last_login"`
}

func toRow(acct account.Account) dbAccount {
	return dbAccount{
		ID:             acct.ID,
		Username:       acct.Username,
		Email:          acct.Email,
		FirstName:      null.NewString(acct.FirstName, acct.FirstName != ""),
		LastName:       null.NewString(acct.LastName, acct.LastName != ""),
		PhoneNumber:    null.NewString(acct.PhoneNumber, acct.PhoneNumber != ""),
		Role:           string(acct.Role),
		ApprovalStatus: string(acct.ApprovalStatus),
		IsActive:       acct.IsActive,
		PasswordHash:   acct.PasswordHash,
		CreatedAt:      acct.CreatedAt.UTC(),
		UpdatedAt:      acct.UpdatedAt.UTC(),
		LastLogin:      null.NewTime(acct.LastLogin.UTC(), !acct.LastLogin.IsZero()),
	}
}

func fromRow(row dbAccount) account.Account {
	return account.Account{
		ID:             row.ID,
		Username:       row.Username,
		Email:          row.Email,
		FirstName:      row.FirstName.String,
		LastName:       row.LastName.String,
		PhoneNumber:    row.PhoneNumber.String,
		Role:           account.Role(row.Role),
		ApprovalStatus: account.ApprovalStatus(row.ApprovalStatus),
		IsActive:       row.IsActive,
		PasswordHash:   row.PasswordHash,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		LastLogin:      row.LastLogin.Time,
	}
}

func fromRows(rows []dbAccount) []account.Account {
	accts := make([]account.Account, 0, len(rows))
	for _, row := range rows {
		accts = append(accts, fromRow(row))
	}
	return accts
}

// trapNoRowsErr maps psql "no rows" err to account.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return account.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

const accountColumns = `id, username, email, first_name, last_name, phone_number,
role, approval_status, is_active, password_hash, created_at, updated_at, last_login`

func (repo accountRepository) CheckUsernameUniqueness(ctx context.Context, username string, excludedAccounts ...account.Account) error {
	q := `SELECT EXISTS (SELECT 1 FROM account WHERE username = $1)`
	args := []interface{}{username}
	if len(excludedAccounts) > 0 {
		ids := make(pq.StringArray, 0, len(excludedAccounts))
		for _, a := range excludedAccounts {
			ids = append(ids, a.ID)
		}
		q = `SELECT EXISTS (SELECT 1 FROM account WHERE username = $1 AND id <> ALL($2))`
		args = append(args, ids)
	}

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if exists {
		return account.ErrUsernameExists
	}
	return nil
}

func (repo accountRepository) CountAccountsByEmail(ctx context.Context, email string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM account WHERE email = $1`, email)
	if err != nil {
		return 0, errors.Wrap(err, "counting accounts by email")
	}
	return count, nil
}

func (repo accountRepository) CreateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	acct.ID = uuid.New().String()
	row := toRow(acct)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO account (id, username, email, first_name, last_name, phone_number,
			role, approval_status, is_active, password_hash, created_at, updated_at, last_login)
		VALUES (:id, :username, :email, :first_name, :last_name, :phone_number,
			:role, :approval_status, :is_active, :password_hash, :created_at, :updated_at, :last_login)`,
		row,
	)
	if err != nil {
		return account.Account{}, errors.Wrap(err, "inserting account")
	}
	return fromRow(row), nil
}

func (repo accountRepository) QueryAllAccounts(ctx context.Context) ([]account.Account, error) {
	var rows []dbAccount
	err := repo.db.SelectContext(ctx, &rows, `SELECT `+accountColumns+` FROM account ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying accounts")
	}
	return fromRows(rows), nil
}

func (repo accountRepository) FilterAccounts(ctx context.Context, filter account.QueryFilter) ([]account.Account, error) {
	if filter.IsEmpty() {
		return repo.QueryAllAccounts(ctx)
	}

	q := `SELECT ` + accountColumns + ` FROM account WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		q += ` AND (username ILIKE ` + p + ` OR email ILIKE ` + p + `)`
	}
	if filter.Role != "" {
		q += ` AND role = ` + arg(filter.Role)
	}
	if filter.ApprovalStatus != "" {
		q += ` AND approval_status = ` + arg(filter.ApprovalStatus)
	}
	if filter.IsActive != nil {
		q += ` AND is_active = ` + arg(*filter.IsActive)
	}
	q += ` ORDER BY created_at DESC`

	var rows []dbAccount
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering accounts")
	}
	return fromRows(rows), nil
}

func (repo accountRepository) GetAccountByID(ctx context.Context, id string) (account.Account, error) {
	var row dbAccount
	err := repo.db.GetContext(ctx, &row, `SELECT `+accountColumns+` FROM account WHERE id = $1`, id)
	if err != nil {
		return account.Account{}, trapNoRowsErr(err, "getting account by id")
	}
	return fromRow(row), nil
}

func (repo accountRepository) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	var row dbAccount
	err := repo.db.GetContext(ctx, &row, `SELECT `+accountColumns+` FROM account WHERE email = $1 ORDER BY created_at LIMIT 1`, email)
	if err != nil {
		return account.Account{}, trapNoRowsErr(err, "getting account by email")
	}
	return fromRow(row), nil
}

func (repo accountRepository) GetAccountByUsernameOrEmail(ctx context.Context, username string) (account.Account, error) {
	var row dbAccount
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+accountColumns+` FROM account WHERE username = $1 OR email = $1 ORDER BY created_at LIMIT 1`, username)
	if err != nil {
		return account.Account{}, trapNoRowsErr(err, "getting account by username or email")
	}
	return fromRow(row), nil
}

// SetAccountRole re-validates the role-lock guard inside the UPDATE itself so
// that two racing selections cannot both pass the service-level check.
func (repo accountRepository) SetAccountRole(ctx context.Context, id string, role account.Role) (account.Account, error) {
	var row dbAccount
	err := repo.db.GetContext(ctx, &row, `
		UPDATE account
		SET role = $1, approval_status = 'pending', updated_at = $2
		WHERE id = $3 AND NOT (role <> 'unassigned' AND approval_status = 'approved')
		RETURNING `+accountColumns,
		string(role), time.Now().UTC(), id,
	)
	if err == sql.ErrNoRows {
		// zero rows: either the account is gone or the guard no longer holds
		if _, getErr := repo.GetAccountByID(ctx, id); getErr != nil {
			return account.Account{}, getErr
		}
		return account.Account{}, account.ErrRoleLocked
	}
	if err != nil {
		return account.Account{}, errors.Wrap(err, "setting account role")
	}
	return fromRow(row), nil
}

func (repo accountRepository) SetApprovalStatus(ctx context.Context, id string, status account.ApprovalStatus) (account.Account, error) {
	var row dbAccount
	err := repo.db.GetContext(ctx, &row, `
		UPDATE account SET approval_status = $1, updated_at = $2 WHERE id = $3
		RETURNING `+accountColumns,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return account.Account{}, trapNoRowsErr(err, "setting approval status")
	}
	return fromRow(row), nil
}

func (repo accountRepository) SetLastLogin(ctx context.Context, acct account.Account) (account.Account, error) {
	now := time.Now().UTC()
	_, err := repo.db.ExecContext(ctx, `UPDATE account SET last_login = $1 WHERE id = $2`, now, acct.ID)
	if err != nil {
		return account.Account{}, errors.Wrap(err, "setting last login")
	}
	acct.LastLogin = now
	return acct, nil
}

func (repo accountRepository) UpdateAccount(ctx context.Context, acct account.Account, isActive *bool) (account.Account, error) {
	q := `
		UPDATE account
		SET username = :username, email = :email, first_name = :first_name,
			last_name = :last_name, phone_number = :phone_number, role = :role,
			approval_status = :approval_status, updated_at = :updated_at`
	if acct.PasswordHash != nil {
		q += `, password_hash = :password_hash`
	}
	row := toRow(acct)
	if isActive != nil {
		row.IsActive = *isActive
		q += `, is_active = :is_active`
	}
	q += ` WHERE id = :id`

	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return account.Account{}, errors.Wrap(err, "updating account")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.Account{}, account.ErrNotFound
	}
	return repo.GetAccountByID(ctx, acct.ID)
}

func (repo accountRepository) DeleteAccountsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM account WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	q = repo.db.Rebind(q)
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting accounts")
	}
	return nil
}
