package main

import (
	"context"
	"time"

	"github.com/academiahq/academia/core"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()

	acct, err := cli.acctRepo.GetAccountByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
	if err != nil {
		return err
	}
	if err = acct.SetPassword(pwd); err != nil {
		return err
	}
	acct.UpdatedAt = time.Now().UTC()
	_, err = cli.acctRepo.UpdateAccount(ctx, acct, nil)
	return err
}
