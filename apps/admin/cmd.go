package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/schoolier/backend/core/identity"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db          *sql.DB
	profileRepo identity.ProfileRepository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [args]                 - run database migrations (up, down, status, ...)")
	fmt.Println("  seeddemo -email EMAIL -id PRINCIPAL_ID - bind a demo account's profile to its provider ID")
	fmt.Println("  hashpassword                           - prompt for a password and print its bcrypt hash")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	seedDemoCmd := flag.NewFlagSet("seeddemo", flag.ExitOnError)
	seedDemoEmail := seedDemoCmd.String("email", "", "The demo account's email, as registered.")
	seedDemoID := seedDemoCmd.String("id", "", "The principal ID assigned by the auth provider.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "seeddemo":
		if err := seedDemoCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *seedDemoEmail == "" || *seedDemoID == "" {
			seedDemoCmd.Usage()
			return errHelp
		}
		return cli.seedDemo(*seedDemoEmail, *seedDemoID)
	case "hashpassword":
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.hashPassword(string(pwd))
	default:
		cli.printUsage()
		return errHelp
	}
}
