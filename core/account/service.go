package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/academiahq/academia/core"
)

var (
	// repository errors
	ErrNotFound       = errors.New("account not found")
	ErrUsernameExists = errors.New("username already taken")
	// ErrRoleLocked is returned when a role (re-)selection hits an account
	// whose chosen role has already been approved.
	ErrRoleLocked = errors.New("role already set and approved")

	// authentication errors
	ErrAuthenticationFailed = errors.New("invalid username/email or password")
	ErrAccountDeactivated   = errors.New("account deactivated, contact admin")
)

// maxAccountsPerEmail caps how many accounts may share one email address.
const maxAccountsPerEmail = 5

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username string, excludedAccounts ...Account) error
		CountAccountsByEmail(ctx context.Context, email string) (int, error)
		CreateAccount(ctx context.Context, acct Account) (Account, error)
		QueryAllAccounts(ctx context.Context) ([]Account, error)
		// FilterAccounts applies AND on the set QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on username or email.
		FilterAccounts(ctx context.Context, filter QueryFilter) ([]Account, error)
		GetAccountByID(ctx context.Context, id string) (Account, error)
		GetAccountByEmail(ctx context.Context, email string) (Account, error)
		GetAccountByUsernameOrEmail(ctx context.Context, username string) (Account, error)
		// SetAccountRole applies a self-service role selection. The write must
		// re-check the role-lock guard atomically (conditional update) and
		// return ErrRoleLocked if it no longer holds; the approval status
		// always resets to pending on success.
		SetAccountRole(ctx context.Context, id string, role Role) (Account, error)
		// SetApprovalStatus is an administrative overwrite; re-deciding an
		// already-decided account is allowed and idempotent.
		SetApprovalStatus(ctx context.Context, id string, status ApprovalStatus) (Account, error)
		SetLastLogin(ctx context.Context, acct Account) (Account, error)
		UpdateAccount(ctx context.Context, acct Account, isActive *bool) (Account, error)
		DeleteAccountsByID(ctx context.Context, ids ...string) error
	}

	// ProfileResolver finds the role-specific profile record (student, teacher,
	// parent) linked to an account, if any.
	ProfileResolver interface {
		ResolveProfileID(ctx context.Context, accountID string, role Role) (string, error)
	}

	Service interface {
		Register(ctx context.Context, na NewAccount) (Account, error)
		SelectRole(ctx context.Context, accountID, requestedRole string) (Account, error)
		DecideApproval(ctx context.Context, accountID, decision string) (Account, error)
		Authenticate(ctx context.Context, uname, pwd string) (Account, error)

		RequestPasswordReset(ctx context.Context, email string) error
		ConfirmPasswordReset(ctx context.Context, rp ResetPassword) error

		CheckUniqueness(ctx context.Context, uname string, exclAccts ...Account) error
		QueryAll(ctx context.Context) ([]Account, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Account, error)
		GetByID(ctx context.Context, id string) (Account, error)
		GetByEmail(ctx context.Context, email string) (Account, error)
		Update(ctx context.Context, orig Account, ua UpdateAccount) (Account, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo     Repository
		mailSvc  core.EmailService
		profiles ProfileResolver
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, profiles ProfileResolver) Service {
	return &service{
		repo:     repo,
		mailSvc:  mailSvc,
		profiles: profiles,
	}
}

// Register creates an account in the initial lifecycle state: no role chosen
// yet, approval pending, active.
func (svc *service) Register(ctx context.Context, na NewAccount) (Account, error) {
	if err := svc.CheckUniqueness(ctx, na.Username); err != nil {
		return Account{}, err
	}

	count, err := svc.repo.CountAccountsByEmail(ctx, na.Email)
	if err != nil {
		return Account{}, err
	}
	if count >= maxAccountsPerEmail {
		return Account{}, core.NewRateLimitError("too many accounts registered with this email")
	}

	now := time.Now().UTC()
	acct := Account{
		Username:       na.Username,
		Email:          na.Email,
		Role:           RoleUnassigned,
		ApprovalStatus: ApprovalPending,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := acct.SetPassword(na.Password); err != nil {
		return Account{}, err
	}

	acct, err = svc.repo.CreateAccount(ctx, acct)
	if err != nil {
		return Account{}, err
	}
	svc.sendWelcomeMail(acct)
	return acct, nil
}

// SelectRole transitions an account onto the requested role and resets its
// approval to pending. It fails once the current role has been approved.
func (svc *service) SelectRole(ctx context.Context, accountID, requestedRole string) (Account, error) {
	role, ok := ParseRole(requestedRole)
	if !ok {
		return Account{}, core.NewValidationError(nil, core.FieldError{Field: "role", Error: "invalid role"})
	}

	acct, err := svc.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		return Account{}, svc.trapNotFound(err)
	}
	if acct.RoleLocked() {
		return Account{}, core.NewConflictError(ErrRoleLocked.Error())
	}

	// The repository re-checks the guard inside the write; a racing approval
	// between the check above and the update still loses.
	acct, err = svc.repo.SetAccountRole(ctx, accountID, role)
	if err != nil {
		if err == ErrRoleLocked {
			return Account{}, core.NewConflictError(ErrRoleLocked.Error())
		}
		return Account{}, svc.trapNotFound(err)
	}
	return acct, nil
}

// DecideApproval records an administrator's approval decision. Re-deciding is
// an idempotent overwrite.
func (svc *service) DecideApproval(ctx context.Context, accountID, decision string) (Account, error) {
	status, ok := ParseDecision(decision)
	if !ok {
		return Account{}, core.NewValidationError(nil, core.FieldError{Field: "decision", Error: "decision must be approved or rejected"})
	}

	acct, err := svc.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		return Account{}, svc.trapNotFound(err)
	}
	// an account without a role stays pending; there is nothing to decide yet
	if acct.Role == RoleUnassigned {
		return Account{}, core.NewConflictError("account has not chosen a role yet")
	}

	acct, err = svc.repo.SetApprovalStatus(ctx, accountID, status)
	if err != nil {
		return Account{}, svc.trapNotFound(err)
	}
	svc.sendApprovalDecisionMail(acct)
	return acct, nil
}

// Authenticate verifies credentials and returns the account with its profile
// link resolved and lastLogin refreshed.
func (svc *service) Authenticate(ctx context.Context, uname, pwd string) (Account, error) {
	acct, err := svc.repo.GetAccountByUsernameOrEmail(ctx, core.CleanString(uname, true))
	if err != nil {
		if err == ErrNotFound {
			return Account{}, ErrAuthenticationFailed
		}
		return Account{}, err
	}
	if err = acct.CheckPassword(pwd); err != nil {
		return Account{}, ErrAuthenticationFailed
	}
	if !acct.IsActive {
		return Account{}, ErrAccountDeactivated
	}

	acct, err = svc.repo.SetLastLogin(ctx, acct)
	if err != nil {
		return Account{}, err
	}

	if svc.profiles != nil {
		profileID, err := svc.profiles.ResolveProfileID(ctx, acct.ID, acct.Role)
		if err != nil {
			return Account{}, err
		}
		acct.ProfileID = profileID
	}
	return acct, nil
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	acct, err := svc.repo.GetAccountByEmail(ctx, core.CleanString(email, true))
	if err != nil {
		return svc.trapNotFound(err)
	}
	return svc.sendPasswordResetMail(acct)
}

func (svc *service) ConfirmPasswordReset(ctx context.Context, rp ResetPassword) error {
	id, err := DecodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "uid", Error: "invalid uid"})
	}
	acct, err := svc.repo.GetAccountByID(ctx, id)
	if err != nil {
		return svc.trapNotFound(err)
	}
	if err = VerifyToken(acct, rp.Token); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}
	if err = acct.SetPassword(rp.Password); err != nil {
		return err
	}
	acct.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateAccount(ctx, acct, nil)
	return err
}

func (svc *service) CheckUniqueness(ctx context.Context, uname string, exclAccts ...Account) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, exclAccts...); err != nil {
		if err == ErrUsernameExists {
			return core.NewConflictError(err.Error())
		}
		return err
	}
	return nil
}

func (svc *service) QueryAll(ctx context.Context) ([]Account, error) {
	return svc.repo.QueryAllAccounts(ctx)
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter) ([]Account, error) {
	filter.Clean()
	return svc.repo.FilterAccounts(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id string) (Account, error) {
	acct, err := svc.repo.GetAccountByID(ctx, id)
	if err != nil {
		return Account{}, svc.trapNotFound(err)
	}
	return acct, nil
}

func (svc *service) GetByEmail(ctx context.Context, email string) (Account, error) {
	acct, err := svc.repo.GetAccountByEmail(ctx, core.CleanString(email, true))
	if err != nil {
		return Account{}, svc.trapNotFound(err)
	}
	return acct, nil
}

// Update applies an administrative edit. Role, approval status and active flag
// may all be overridden; two lifecycle rules still hold:
//   - changing the role without an explicit approval override resets the
//     approval to pending (a new role needs fresh sign-off);
//   - an account without a role can never be approved.
func (svc *service) Update(ctx context.Context, orig Account, ua UpdateAccount) (Account, error) {
	acct := Account{
		ID:             orig.ID,
		Username:       ua.Username,
		Email:          ua.Email,
		FirstName:      ua.FirstName,
		LastName:       ua.LastName,
		PhoneNumber:    ua.PhoneNumber,
		Role:           orig.Role,
		ApprovalStatus: orig.ApprovalStatus,
		UpdatedAt:      time.Now().UTC(),
	}
	if acct.Username == "" {
		acct.Username = orig.Username
	}
	if acct.Email == "" {
		acct.Email = orig.Email
	}

	if ua.Role != nil {
		role, ok := ParseRole(*ua.Role)
		if !ok {
			return Account{}, core.NewValidationError(nil, core.FieldError{Field: "role", Error: "invalid role"})
		}
		acct.Role = role
	}
	if ua.ApprovalStatus != nil {
		status, ok := ParseDecision(*ua.ApprovalStatus)
		if !ok && ApprovalStatus(*ua.ApprovalStatus) == ApprovalPending {
			status, ok = ApprovalPending, true
		}
		if !ok {
			return Account{}, core.NewValidationError(nil, core.FieldError{Field: "approval_status", Error: "invalid approval status"})
		}
		acct.ApprovalStatus = status
	}
	if ua.Role != nil && acct.Role != orig.Role && ua.ApprovalStatus == nil {
		acct.ApprovalStatus = ApprovalPending
	}
	if acct.Role == RoleUnassigned {
		acct.ApprovalStatus = ApprovalPending
	}

	if ua.Password != "" {
		if err := acct.SetPassword(ua.Password); err != nil {
			return Account{}, err
		}
	}

	updated, err := svc.repo.UpdateAccount(ctx, acct, ua.IsActive)
	if err != nil {
		return Account{}, svc.trapNotFound(err)
	}
	return updated, nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAccountsByID(ctx, ids...)
}

func (svc *service) trapNotFound(err error) error {
	if err == ErrNotFound {
		return core.NewNotFoundError(err.Error())
	}
	return err
}

func (svc *service) sendWelcomeMail(acct Account) {
	if svc.mailSvc == nil || acct.Email == "" {
		return
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: acct.FullName(), Address: acct.Email}},
		Subject:      "Welcome to Academia",
		TemplateName: "welcome",
		TemplateData: struct{ Name string }{acct.FullName()},
	}
	svc.mailSvc.SendMessages(msg)
}

func (svc *service) sendApprovalDecisionMail(acct Account) {
	if svc.mailSvc == nil || acct.Email == "" {
		return
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: acct.FullName(), Address: acct.Email}},
		Subject:      fmt.Sprintf("Your account has been %s", acct.ApprovalStatus),
		TemplateName: "approval-decision",
		TemplateData: struct {
			Name     string
			Role     string
			Decision string
		}{acct.FullName(), string(acct.Role), string(acct.ApprovalStatus)},
	}
	svc.mailSvc.SendMessages(msg)
}

func (svc *service) sendPasswordResetMail(acct Account) error {
	if svc.mailSvc == nil {
		return nil
	}
	token, err := MakeToken(acct)
	if err != nil {
		return err
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: acct.FullName(), Address: acct.Email}},
		Subject:      "Password Reset",
		TemplateName: "password-reset",
		TemplateData: struct {
			Name  string
			UID   string
			Token string
		}{acct.FullName(), EncodeUID(acct), token},
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}
