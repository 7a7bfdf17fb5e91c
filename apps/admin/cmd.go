package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/academiahq/academia/core/account"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sqlx.DB
	acctRepo account.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createadmin -username USERNAME -email EMAIL    - create (or promote) an admin account")
	fmt.Println("  approve -username USERNAME|EMAIL -decision approved|rejected")
	fmt.Println("                                                 - decide an account's approval")
	fmt.Println("  resetpassword -username USERNAME|EMAIL         - reset an account's password")
	fmt.Println("  migrate COMMAND [args]                         - run database migrations (goose)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createAdminCmd := flag.NewFlagSet("createadmin", flag.ExitOnError)
	createAdminUname := createAdminCmd.String("username", "", "The admin's username. The password will be prompted next.")
	createAdminEmail := createAdminCmd.String("email", "", "The admin's email.")

	approveCmd := flag.NewFlagSet("approve", flag.ExitOnError)
	approveUname := approveCmd.String("username", "", "The account's username or email.")
	approveDecision := approveCmd.String("decision", "", "approved or rejected.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The account's username or email. The password will be prompted next.")

	switch args[1] {
	case "createadmin":
		if err := createAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createAdminUname == "" || *createAdminEmail == "" {
			createAdminCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			createAdminCmd.Usage()
			return errHelp
		}
		return cli.createAdmin(*createAdminUname, *createAdminEmail, pwd)
	case "approve":
		if err := approveCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *approveUname == "" || *approveDecision == "" {
			approveCmd.Usage()
			return errHelp
		}
		return cli.approve(*approveUname, *approveDecision)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
