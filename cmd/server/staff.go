package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/hazyhaar/rebeauty/pkg/client"
	"github.com/hazyhaar/rebeauty/pkg/session"
)

func cmdStaff(args []string) {
	if len(args) < 1 {
		fatal("usage: rebeauty staff list|add [flags]")
	}
	switch args[0] {
	case "list":
		staffList(args[1:])
	case "add":
		staffAdd(args[1:])
	default:
		fatal("unknown staff command %q", args[0])
	}
}

func writeStaffs(w io.Writer, staffs []client.Staff) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCODE\tNAME\tEMAIL")
	for _, s := range staffs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.ID, s.StaffCode, s.Name, s.Email)
	}
	return tw.Flush()
}

func staffList(args []string) {
	fs := flag.NewFlagSet("staff list", flag.ExitOnError)
	e := setup(fs, args)
	defer e.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	staffs, err := e.client(e.session()).ListStaffs(ctx)
	if err != nil {
		fatal("%v", err)
	}
	if err := writeStaffs(os.Stdout, staffs); err != nil {
		fatal("%v", err)
	}
}

// staffAdd creates an account. The first account of a salon is created
// without a session by passing the bootstrap code.
func staffAdd(args []string) {
	fs := flag.NewFlagSet("staff add", flag.ExitOnError)
	code := fs.String("code", "", "staff code")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "login email (required)")
	password := fs.String("password", "", "password (prompted on stdin when empty)")
	bootstrap := fs.String("bootstrap-code", "", "bootstrap code for the first account")
	e := setup(fs, args)
	defer e.close()

	if *email == "" {
		fatal("--email is required")
	}
	if *password == "" {
		*password = promptPassword()
	}

	sess := &session.Session{}
	if *bootstrap == "" {
		sess = e.session()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s, err := e.client(sess).CreateStaff(ctx, client.StaffInput{
		StaffCode: *code,
		Name:      *name,
		Email:     *email,
		Password:  *password,
	}, *bootstrap)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Created staff %d (%s)\n", s.ID, s.Email)
}
