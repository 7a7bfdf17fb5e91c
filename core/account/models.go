package account

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/academiahq/academia/core"
)

// Role is an account's function in the school. An account starts out
// unassigned and picks one of the assignable roles after registration.
type Role string

const (
	RoleUnassigned Role = "unassigned"
	RoleStudent    Role = "student"
	RoleTeacher    Role = "teacher"
	RoleParent     Role = "parent"
	RoleAdmin      Role = "admin"
)

// AssignableRoles are the roles an account may select; RoleUnassigned is not
// selectable, it is only ever the initial value.
var AssignableRoles = []Role{RoleStudent, RoleTeacher, RoleParent, RoleAdmin}

// ParseRole maps a raw string onto the closed role enum.
func ParseRole(s string) (Role, bool) {
	switch r := Role(core.CleanString(s, true)); r {
	case RoleStudent, RoleTeacher, RoleParent, RoleAdmin:
		return r, true
	}
	return "", false
}

// DashboardPath returns the role's canonical dashboard prefix. The switch is
// exhaustive over the assignable roles; an unassigned account has no dashboard
// and is sent to role selection instead.
func (r Role) DashboardPath() string {
	switch r {
	case RoleStudent:
		return PathStudent
	case RoleTeacher:
		return PathTeacher
	case RoleParent:
		return PathParent
	case RoleAdmin:
		return PathAdmin
	default: // RoleUnassigned
		return PathSelectRole
	}
}

// ApprovalStatus tracks where an account stands in the admin sign-off flow.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ParseDecision maps a raw string onto the two decidable statuses. Pending is
// not a decision.
func ParseDecision(s string) (ApprovalStatus, bool) {
	switch d := ApprovalStatus(core.CleanString(s, true)); d {
	case ApprovalApproved, ApprovalRejected:
		return d, true
	}
	return "", false
}

type Account struct {
	ID             string         `json:"id"`
	Username       string         `json:"username"`
	Email          string         `json:"email"`
	FirstName      string         `json:"first_name,omitempty"`
	LastName       string         `json:"last_name,omitempty"`
	PhoneNumber    string         `json:"phone_number,omitempty"`
	Role           Role           `json:"role"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	IsActive       bool           `json:"is_active"`
	PasswordHash   []byte         `json:"-"`

	// ProfileID references the role-specific profile record (student, teacher
	// or parent). It is resolved at authentication time, never persisted here.
	ProfileID string `json:"profile_id,omitempty"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
	LastLogin time.Time `json:"last_login"` // UTC
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a *Account) FullName() string {
	if a.FirstName == "" && a.LastName == "" {
		return a.Username
	}
	return core.CleanString(a.FirstName + " " + a.LastName)
}

func (a *Account) IsAdmin() bool    { return a.Role == RoleAdmin }
func (a *Account) IsApproved() bool { return a.ApprovalStatus == ApprovalApproved }

// RoleLocked reports whether the account's role is frozen: once a chosen role
// has been approved, self-service role changes are rejected.
func (a *Account) RoleLocked() bool {
	return a.Role != RoleUnassigned && a.ApprovalStatus == ApprovalApproved
}

// NewAccount contains the information needed to register a new Account.
type NewAccount struct {
	Username string `json:"username" validate:"required,min=3,alphanum_"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (na *NewAccount) Validate() error {
	na.Username = core.CleanString(na.Username, true)
	na.Email = core.CleanString(na.Email, true)
	return core.Validate.Struct(na)
}

// UpdateAccount defines what an administrator may change on an existing
// Account. Role, approval status and active flag are arbitrary overrides.
type UpdateAccount struct {
	Username       string  `json:"username" validate:"omitempty,min=3,alphanum_"`
	Email          string  `json:"email" validate:"omitempty,email"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	PhoneNumber    string  `json:"phone_number"`
	Role           *string `json:"role" validate:"omitempty,role"`
	ApprovalStatus *string `json:"approval_status" validate:"omitempty,approval"`
	IsActive       *bool   `json:"is_active"`
	Password       string  `json:"password" validate:"omitempty,min=6"`
}

func (ua *UpdateAccount) Validate(ctx context.Context, orig Account, svc Service) error {
	if uname := core.CleanString(ua.Username, true); uname != "" {
		ua.Username = uname
	} else {
		ua.Username = orig.Username
	}
	if email := core.CleanString(ua.Email, true); email != "" {
		ua.Email = email
	} else {
		ua.Email = orig.Email
	}

	if err := core.Validate.Struct(ua); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, ua.Username, orig)
}

type ResetPassword struct {
	Token    string `json:"token" validate:"required"`
	UID      string `json:"uid" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

func (rp ResetPassword) Validate() error { return core.Validate.Struct(rp) }

type QueryFilter struct {
	Search         string `query:"search"`
	Role           string `query:"role"`
	ApprovalStatus string `query:"approval_status"`
	IsActive       *bool  `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.ApprovalStatus == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true)
	qf.ApprovalStatus = core.CleanString(qf.ApprovalStatus, true)
}
