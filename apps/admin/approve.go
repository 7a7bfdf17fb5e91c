package main

import (
	"context"
	"fmt"

	"github.com/academiahq/academia/core/account"
)

func (cli *commandLine) approve(uname, decision string) error {
	ctx := context.Background()

	status, ok := account.ParseDecision(decision)
	if !ok {
		return fmt.Errorf("invalid decision %q: must be approved or rejected", decision)
	}

	acct, err := cli.acctRepo.GetAccountByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}
	if acct.Role == account.RoleUnassigned {
		return fmt.Errorf("account %q has not chosen a role yet", acct.Username)
	}

	if _, err = cli.acctRepo.SetApprovalStatus(ctx, acct.ID, status); err != nil {
		return err
	}
	fmt.Printf("account %q: %s\n", acct.Username, status)
	return nil
}
