package account_test

import (
	"context"
	"net/mail"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/academiahq/academia/core"
	"github.com/academiahq/academia/core/account"
	emailsvc "github.com/academiahq/academia/services/email"
	inmemdb "github.com/academiahq/academia/storage/database/inmem"
)

func TestMain(m *testing.M) {
	core.Conf = &core.Config{
		Env:             "TEST",
		Debug:           true,
		TestMode:        true,
		WorkDir:         "../..",
		AppName:         "Academia",
		SecretKey:       "secret",
		FrontendBaseURL: "http://localhost:3000",
		DefaultFromEmail: mail.Address{
			Name:    "Academia",
			Address: "noreply@localhost",
		},
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		},
	}
	os.Exit(m.Run())
}

func setup(t *testing.T) (account.Service, account.Repository) {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo := inmemdb.NewAccountRepository(db)
	mailSvc := emailsvc.NewConsoleService(true /* disableOutput */)
	svc := account.NewServiceMock(repo, mailSvc, nil)
	emailsvc.ClearSentMessages()
	return svc, repo
}

func register(t *testing.T, svc account.Service, uname, email string) account.Account {
	t.Helper()
	acct, err := svc.Register(context.Background(), account.NewAccount{
		Username: uname,
		Email:    email,
		Password: "s3cret",
	})
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	return acct
}

func TestService_Register(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	t.Run("initial lifecycle state", func(t *testing.T) {
		acct := register(t, svc, "awe", "awe@test.cd")
		if acct.Role != account.RoleUnassigned {
			t.Errorf("role = %v; want %v", acct.Role, account.RoleUnassigned)
		}
		if acct.ApprovalStatus != account.ApprovalPending {
			t.Errorf("approval = %v; want %v", acct.ApprovalStatus, account.ApprovalPending)
		}
		if !acct.IsActive {
			t.Error("account should be active")
		}
		if err := acct.CheckPassword("s3cret"); err != nil {
			t.Error("password was not hashed and stored")
		}
		if n := len(emailsvc.SentMessages); n != 1 {
			t.Fatalf("sent messages = %d; want 1 welcome email", n)
		}
		if msg := emailsvc.SentMessages[0]; !strings.Contains(msg.TextContent, "Welcome to Academia") {
			t.Errorf("welcome email content = %q", msg.TextContent)
		}
	})

	t.Run("username taken", func(t *testing.T) {
		_, err := svc.Register(ctx, account.NewAccount{Username: "awe", Email: "other@test.cd", Password: "s3cret"})
		if _, ok := err.(*core.ConflictError); !ok {
			t.Errorf("Register() error = %v; want a ConflictError", err)
		}
	})

	t.Run("email account cap", func(t *testing.T) {
		shared := "fam@test.cd"
		for i, uname := range []string{"mom", "dad", "kid1", "kid2", "kid3"} {
			if _, err := svc.Register(ctx, account.NewAccount{Username: uname, Email: shared, Password: "s3cret"}); err != nil {
				t.Fatalf("Register() #%d failed: %v", i+1, err)
			}
		}
		_, err := svc.Register(ctx, account.NewAccount{Username: "kid4", Email: shared, Password: "s3cret"})
		if _, ok := err.(*core.RateLimitError); !ok {
			t.Errorf("Register() error = %v; want a RateLimitError", err)
		}
	})
}

func TestService_SelectRole(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	t.Run("invalid role", func(t *testing.T) {
		acct := register(t, svc, "u1", "u1@test.cd")
		for _, bad := range []string{"", "unassigned", "principal"} {
			if _, err := svc.SelectRole(ctx, acct.ID, bad); err == nil {
				t.Errorf("SelectRole(%q) expected an error", bad)
			} else if _, ok := err.(*core.ValidationError); !ok {
				t.Errorf("SelectRole(%q) error = %v; want a ValidationError", bad, err)
			}
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := svc.SelectRole(ctx, "nope", "student")
		if _, ok := err.(*core.NotFoundError); !ok {
			t.Errorf("SelectRole() error = %v; want a NotFoundError", err)
		}
	})

	t.Run("sets role and resets approval", func(t *testing.T) {
		acct := register(t, svc, "u2", "u2@test.cd")
		got, err := svc.SelectRole(ctx, acct.ID, "teacher")
		if err != nil {
			t.Fatalf("SelectRole() failed: %v", err)
		}
		if got.Role != account.RoleTeacher {
			t.Errorf("role = %v; want %v", got.Role, account.RoleTeacher)
		}
		if got.ApprovalStatus != account.ApprovalPending {
			t.Errorf("approval = %v; want %v", got.ApprovalStatus, account.ApprovalPending)
		}
	})

	t.Run("re-selection while pending is allowed", func(t *testing.T) {
		acct := register(t, svc, "u3", "u3@test.cd")
		if _, err := svc.SelectRole(ctx, acct.ID, "student"); err != nil {
			t.Fatalf("SelectRole() failed: %v", err)
		}
		got, err := svc.SelectRole(ctx, acct.ID, "parent")
		if err != nil {
			t.Fatalf("SelectRole() failed: %v", err)
		}
		if got.Role != account.RoleParent {
			t.Errorf("role = %v; want %v", got.Role, account.RoleParent)
		}
	})

	t.Run("re-selection after rejection is allowed", func(t *testing.T) {
		acct := register(t, svc, "u4", "u4@test.cd")
		if _, err := svc.SelectRole(ctx, acct.ID, "student"); err != nil {
			t.Fatalf("SelectRole() failed: %v", err)
		}
		if _, err := svc.DecideApproval(ctx, acct.ID, "rejected"); err != nil {
			t.Fatalf("DecideApproval() failed: %v", err)
		}
		got, err := svc.SelectRole(ctx, acct.ID, "teacher")
		if err != nil {
			t.Fatalf("SelectRole() failed: %v", err)
		}
		if got.ApprovalStatus != account.ApprovalPending {
			t.Errorf("approval = %v; want %v", got.ApprovalStatus, account.ApprovalPending)
		}
	})

	t.Run("locked once approved", func(t *testing.T) {
		acct := register(t, svc, "u5", "u5@test.cd")
		if _, err := svc.SelectRole(ctx, acct.ID, "student"); err != nil {
			t.Fatalf("SelectRole() failed: %v", err)
		}
		if _, err := svc.DecideApproval(ctx, acct.ID, "approved"); err != nil {
			t.Fatalf("DecideApproval() failed: %v", err)
		}

		_, err := svc.SelectRole(ctx, acct.ID, "teacher")
		if _, ok := err.(*core.ConflictError); !ok {
			t.Fatalf("SelectRole() error = %v; want a ConflictError", err)
		}
		if !strings.Contains(err.Error(), "already set and approved") {
			t.Errorf("SelectRole() error = %q; want it to mention the lock", err)
		}

		// unchanged
		got, err := repo.GetAccountByID(ctx, acct.ID)
		if err != nil {
			t.Fatalf("GetAccountByID() failed: %v", err)
		}
		if got.Role != account.RoleStudent || got.ApprovalStatus != account.ApprovalApproved {
			t.Errorf("account mutated by a rejected selection: %v/%v", got.Role, got.ApprovalStatus)
		}
	})
}

func TestService_DecideApproval(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	acct := register(t, svc, "kid", "kid@test.cd")

	t.Run("invalid decision", func(t *testing.T) {
		for _, bad := range []string{"", "pending", "maybe"} {
			if _, err := svc.DecideApproval(ctx, acct.ID, bad); err == nil {
				t.Errorf("DecideApproval(%q) expected an error", bad)
			} else if _, ok := err.(*core.ValidationError); !ok {
				t.Errorf("DecideApproval(%q) error = %v; want a ValidationError", bad, err)
			}
		}
	})

	t.Run("no role chosen yet", func(t *testing.T) {
		_, err := svc.DecideApproval(ctx, acct.ID, "approved")
		if _, ok := err.(*core.ConflictError); !ok {
			t.Errorf("DecideApproval() error = %v; want a ConflictError", err)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := svc.DecideApproval(ctx, "nope", "approved")
		if _, ok := err.(*core.NotFoundError); !ok {
			t.Errorf("DecideApproval() error = %v; want a NotFoundError", err)
		}
	})

	t.Run("approve, then overwrite", func(t *testing.T) {
		if _, err := svc.SelectRole(ctx, acct.ID, "student"); err != nil {
			t.Fatalf("SelectRole() failed: %v", err)
		}

		got, err := svc.DecideApproval(ctx, acct.ID, "approved")
		if err != nil {
			t.Fatalf("DecideApproval() failed: %v", err)
		}
		if got.ApprovalStatus != account.ApprovalApproved {
			t.Errorf("approval = %v; want %v", got.ApprovalStatus, account.ApprovalApproved)
		}

		// re-deciding is an idempotent overwrite
		got, err = svc.DecideApproval(ctx, acct.ID, "approved")
		if err != nil {
			t.Fatalf("DecideApproval() failed: %v", err)
		}
		if got.ApprovalStatus != account.ApprovalApproved {
			t.Errorf("approval = %v; want %v", got.ApprovalStatus, account.ApprovalApproved)
		}

		got, err = svc.DecideApproval(ctx, acct.ID, "rejected")
		if err != nil {
			t.Fatalf("DecideApproval() failed: %v", err)
		}
		if got.ApprovalStatus != account.ApprovalRejected {
			t.Errorf("approval = %v; want %v", got.ApprovalStatus, account.ApprovalRejected)
		}
	})

	t.Run("decision email is sent", func(t *testing.T) {
		if len(emailsvc.SentMessages) == 0 {
			t.Fatal("expected a decision email to have been recorded")
		}
		msg := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
		if len(msg.To) == 0 || msg.To[0].Address != acct.Email {
			t.Errorf("decision email recipient = %v; want %v", msg.To, acct.Email)
		}
		if !strings.Contains(msg.TextContent, "rejected") {
			t.Errorf("decision email should mention the decision; got %q", msg.TextContent)
		}
	})
}

func TestService_Authenticate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	acct := register(t, svc, "hero", "hero@test.cd")

	t.Run("unknown username", func(t *testing.T) {
		if _, err := svc.Authenticate(ctx, "nope", "s3cret"); err != account.ErrAuthenticationFailed {
			t.Errorf("Authenticate() error = %v; want %v", err, account.ErrAuthenticationFailed)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, err := svc.Authenticate(ctx, "hero", "nope"); err != account.ErrAuthenticationFailed {
			t.Errorf("Authenticate() error = %v; want %v", err, account.ErrAuthenticationFailed)
		}
	})

	t.Run("by username and by email", func(t *testing.T) {
		for _, uname := range []string{"hero", "HERO", "hero@test.cd"} {
			got, err := svc.Authenticate(ctx, uname, "s3cret")
			if err != nil {
				t.Fatalf("Authenticate(%q) failed: %v", uname, err)
			}
			if got.ID != acct.ID {
				t.Errorf("Authenticate(%q) = %v; want %v", uname, got.ID, acct.ID)
			}
			if got.LastLogin.IsZero() {
				t.Error("lastLogin was not set")
			}
		}
	})

	t.Run("deactivated account", func(t *testing.T) {
		inactive := false
		if _, err := svc.Update(ctx, acct, account.UpdateAccount{IsActive: &inactive}); err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if _, err := svc.Authenticate(ctx, "hero", "s3cret"); err != account.ErrAccountDeactivated {
			t.Errorf("Authenticate() error = %v; want %v", err, account.ErrAccountDeactivated)
		}
	})
}

func TestService_PasswordReset(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	acct := register(t, svc, "memory", "memory@test.cd")
	emailsvc.ClearSentMessages() // drop the welcome email

	if err := svc.RequestPasswordReset(ctx, "unknown@test.cd"); err == nil {
		t.Error("RequestPasswordReset() expected an error for an unknown email")
	}

	if err := svc.RequestPasswordReset(ctx, acct.Email); err != nil {
		t.Fatalf("RequestPasswordReset() failed: %v", err)
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("sent messages = %d; want 1", len(emailsvc.SentMessages))
	}

	token, err := account.MakeToken(acct)
	if err != nil {
		t.Fatalf("MakeToken() failed: %v", err)
	}

	rp := account.ResetPassword{
		Token:    token,
		UID:      account.EncodeUID(acct),
		Password: "n3w-s3cret",
	}
	if err = svc.ConfirmPasswordReset(ctx, rp); err != nil {
		t.Fatalf("ConfirmPasswordReset() failed: %v", err)
	}

	if _, err = svc.Authenticate(ctx, acct.Username, "s3cret"); err != account.ErrAuthenticationFailed {
		t.Error("old password should no longer authenticate")
	}
	if _, err = svc.Authenticate(ctx, acct.Username, "n3w-s3cret"); err != nil {
		t.Errorf("new password failed to authenticate: %v", err)
	}

	// the token is invalidated by use: the password hash changed
	if err = svc.ConfirmPasswordReset(ctx, rp); err == nil {
		t.Error("ConfirmPasswordReset() expected an error on token re-use")
	}
}

func TestService_Update(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	t.Run("role change resets approval", func(t *testing.T) {
		acct := register(t, svc, "rolechange", "rolechange@test.cd")
		if _, err := svc.SelectRole(ctx, acct.ID, "student"); err != nil {
			t.Fatalf("SelectRole() failed: %v", err)
		}
		if _, err := svc.DecideApproval(ctx, acct.ID, "approved"); err != nil {
			t.Fatalf("DecideApproval() failed: %v", err)
		}
		acct, err := svc.GetByID(ctx, acct.ID)
		if err != nil {
			t.Fatalf("GetByID() failed: %v", err)
		}

		role := "teacher"
		got, err := svc.Update(ctx, acct, account.UpdateAccount{Role: &role})
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if got.Role != account.RoleTeacher {
			t.Errorf("role = %v; want %v", got.Role, account.RoleTeacher)
		}
		if got.ApprovalStatus != account.ApprovalPending {
			t.Errorf("approval = %v; want %v (a new role needs fresh sign-off)", got.ApprovalStatus, account.ApprovalPending)
		}
	})

	t.Run("explicit overrides are honored", func(t *testing.T) {
		acct := register(t, svc, "override", "override@test.cd")
		role, status := "parent", "approved"
		got, err := svc.Update(ctx, acct, account.UpdateAccount{Role: &role, ApprovalStatus: &status})
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if got.Role != account.RoleParent || got.ApprovalStatus != account.ApprovalApproved {
			t.Errorf("got %v/%v; want parent/approved", got.Role, got.ApprovalStatus)
		}
	})

	t.Run("unassigned can never be approved", func(t *testing.T) {
		acct := register(t, svc, "limbo", "limbo@test.cd")
		status := "approved"
		got, err := svc.Update(ctx, acct, account.UpdateAccount{ApprovalStatus: &status})
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if got.ApprovalStatus != account.ApprovalPending {
			t.Errorf("approval = %v; want %v (no role chosen)", got.ApprovalStatus, account.ApprovalPending)
		}
	})
}
