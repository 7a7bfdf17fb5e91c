package main

import (
	"context"
	"time"

	"github.com/academiahq/academia/core"
	"github.com/academiahq/academia/core/account"
)

// createAdmin creates an active, approved admin account; an existing account
// with the same username or email is promoted instead.
func (cli *commandLine) createAdmin(uname, email, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	acct, err := cli.acctRepo.GetAccountByUsernameOrEmail(ctx, uname)
	if err != nil {
		if err != account.ErrNotFound {
			return err
		}
		now := time.Now().UTC()
		acct = account.Account{
			Username:       uname,
			Email:          email,
			Role:           account.RoleAdmin,
			ApprovalStatus: account.ApprovalApproved,
			IsActive:       true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err = acct.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.acctRepo.CreateAccount(ctx, acct)
		return err
	}

	acct.Role = account.RoleAdmin
	acct.ApprovalStatus = account.ApprovalApproved
	acct.UpdatedAt = time.Now().UTC()
	if err = acct.SetPassword(pwd); err != nil {
		return err
	}
	isActive := true
	_, err = cli.acctRepo.UpdateAccount(ctx, acct, &isActive)
	return err
}
