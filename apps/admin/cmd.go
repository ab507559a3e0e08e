package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/session"
	"github.com/trezcool/academia/core/upstream"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	api *upstream.Client
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  login -email EMAIL       - verify credentials against the upstream API (password prompted)")
	fmt.Println("  check-token -token TOKEN - inspect an access token's expiry")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ExitOnError)
	loginEmail := loginCmd.String("email", "", "The user's email. The password will be prompted next.")

	checkTokenCmd := flag.NewFlagSet("check-token", flag.ExitOnError)
	checkTokenVal := checkTokenCmd.String("token", "", "The access token to inspect.")

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loginEmail == "" {
			loginCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			loginCmd.Usage()
			return errHelp
		}
		return cli.login(*loginEmail, string(pwd))
	case "check-token":
		if err := checkTokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *checkTokenVal == "" {
			checkTokenCmd.Usage()
			return errHelp
		}
		return cli.checkToken(*checkTokenVal)
	default:
		cli.printUsage()
		return errHelp
	}
}

// login runs the credential exchange and reports the granted role flags; meant
// for smoke-checking an account from a terminal.
func (cli *commandLine) login(email, pwd string) error {
	ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Upstream.Timeout)
	defer cancel()

	raw, err := cli.api.Do(ctx, upstream.Call{
		Method: "POST",
		Path:   "/users/login/",
		Body: map[string]string{
			"email":    core.CleanString(email, true /* lower */),
			"password": pwd,
		},
	})
	if err != nil {
		return err
	}

	var payload struct {
		Access string `json:"access"`
		session.Profile
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}

	fmt.Printf("login OK: %s (id=%d)\n", payload.Email, payload.ID)
	fmt.Printf("  admin=%t accountant=%t teacher=%t parent=%t student=%t\n",
		payload.IsAdmin, payload.IsAccountant, payload.IsTeacher, payload.IsParent, payload.IsStudent)
	if exp, ok := session.TokenExpiry(payload.Access); ok {
		fmt.Printf("  access token expires %s\n", exp.Format(time.RFC3339))
	}
	return nil
}

func (cli *commandLine) checkToken(token string) error {
	exp, ok := session.TokenExpiry(token)
	if !ok {
		return errors.New("token is opaque or malformed; expiry not readable")
	}
	remaining := time.Until(exp)
	if remaining <= 0 {
		fmt.Printf("token expired %s ago (at %s)\n", -remaining.Round(time.Second), exp.Format(time.RFC3339))
	} else {
		fmt.Printf("token valid for %s (until %s)\n", remaining.Round(time.Second), exp.Format(time.RFC3339))
	}
	return nil
}
