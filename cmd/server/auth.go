package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hazyhaar/rebeauty/pkg/client"
	"github.com/hazyhaar/rebeauty/pkg/session"
)

func cmdLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "staff email")
	password := fs.String("password", "", "password (prompted on stdin when empty)")
	e := setup(fs, args)
	defer e.close()

	if *email == "" {
		fatal("--email is required")
	}
	if *password == "" {
		*password = promptPassword()
	}

	sess := &session.Session{}
	c := e.client(sess)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := c.Login(ctx, *email, *password)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Detail != "" {
			fatal("login failed: %s", apiErr.Detail)
		}
		fatal("login failed: %v", err)
	}
	if err := session.Save(e.store, sess); err != nil {
		fatal("save session: %v", err)
	}
	fmt.Printf("Logged in as %s (%s)\n", sess.StaffName(), res.User.Email)
}

func cmdLogout(args []string) {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	e := setup(fs, args)
	defer e.close()

	if err := session.Forget(e.store); err != nil {
		fatal("logout: %v", err)
	}
	fmt.Println("Logged out")
}

func cmdWhoami(args []string) {
	fs := flag.NewFlagSet("whoami", flag.ExitOnError)
	e := setup(fs, args)
	defer e.close()

	sess := e.session()
	if !sess.LoggedIn() {
		fatal("%v", session.ErrNotLoggedIn)
	}
	fmt.Printf("Staff:  %s\n", sess.StaffName())
	if u := sess.User(); u != nil {
		fmt.Printf("Email:  %s\n", u.Email)
		if u.Role != "" {
			fmt.Printf("Role:   %s\n", u.Role)
		}
	}
	if exp, ok := sess.ExpiresAt(); ok {
		state := "valid"
		if sess.Expired(time.Now()) {
			state = "expired"
		}
		fmt.Printf("Token:  %s until %s\n", state, exp.Local().Format("2006/01/02 15:04"))
	}
}

// promptPassword reads one line from stdin.
func promptPassword() string {
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		fatal("read password: %v", err)
	}
	return strings.TrimRight(line, "\r\n")
}
