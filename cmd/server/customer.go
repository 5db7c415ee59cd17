package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hazyhaar/rebeauty/pkg/client"
	"github.com/hazyhaar/rebeauty/pkg/importer"
	"github.com/hazyhaar/rebeauty/pkg/note"
	"github.com/hazyhaar/rebeauty/pkg/visit"
	"gopkg.in/yaml.v3"
)

func cmdCustomer(args []string) {
	if len(args) < 1 {
		fatal("usage: rebeauty customer show|edit [flags] <id>")
	}
	switch args[0] {
	case "show":
		customerShow(args[1:])
	case "edit":
		customerEdit(args[1:])
	default:
		fatal("unknown customer command %q", args[0])
	}
}

// parseID reads the single positional customer, visit or staff ID.
func parseID(fs *flag.FlagSet, what string) int64 {
	if fs.NArg() != 1 {
		fatal("expected one %s id", what)
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		fatal("invalid %s id %q", what, fs.Arg(0))
	}
	return id
}

func customerShow(args []string) {
	fs := flag.NewFlagSet("customer show", flag.ExitOnError)
	withVisits := fs.Bool("visits", true, "include the visit history")
	e := setup(fs, args)
	defer e.close()
	id := parseID(fs, "customer")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c := e.client(e.session())

	cu, err := c.GetCustomer(ctx, id)
	if err != nil {
		fatal("%v", err)
	}
	if err := writeCustomer(os.Stdout, cu); err != nil {
		fatal("%v", err)
	}
	if !*withVisits {
		return
	}
	visits, err := c.ListVisits(ctx, id)
	if err != nil {
		fatal("list visits: %v", err)
	}
	fmt.Println()
	writeVisits(os.Stdout, visits)
}

// writeCustomer prints the contact details then the counseling profile
// decoded from the note.
func writeCustomer(w io.Writer, cu *client.Customer) error {
	optIn := "no"
	if cu.EmailOptIn {
		optIn = "yes"
	}
	fmt.Fprintf(w, "No.       %d\n", cu.ID)
	fmt.Fprintf(w, "Name:     %s\n", cu.Name)
	if cu.Kana != "" {
		fmt.Fprintf(w, "Kana:     %s\n", cu.Kana)
	}
	fmt.Fprintf(w, "Phone:    %s\n", cu.Phone)
	fmt.Fprintf(w, "Email:    %s (mail: %s)\n", cu.Email, optIn)
	if cu.Birthday != "" {
		fmt.Fprintf(w, "Birthday: %s\n", visit.FromAPIDate(cu.Birthday))
	}

	p := note.Parse(cu.Note)
	if p.IsZero() {
		return nil
	}
	fmt.Fprintln(w, "Profile:")
	out, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
	return nil
}

// customerChanges are the edits requested on the command line. Nil fields
// are left as they are.
type customerChanges struct {
	Email      *string
	Phone      *string
	Birthday   *string
	EmailOptIn *bool
	// Profile is YAML overlaid on the profile decoded from the current note.
	Profile []byte
}

// buildCustomerUpdate turns changes into a PATCH payload against cur. The
// note is re-encoded only when the profile changed. ok is false when there
// is nothing to send.
func buildCustomerUpdate(cur client.Customer, ch customerChanges) (upd client.CustomerUpdate, ok bool, err error) {
	if ch.Email != nil && *ch.Email != cur.Email {
		upd.Email, ok = ch.Email, true
	}
	if ch.Phone != nil && *ch.Phone != cur.Phone {
		upd.Phone, ok = ch.Phone, true
	}
	if ch.Birthday != nil {
		b, err := birthdayDate(*ch.Birthday)
		if err != nil {
			return upd, false, err
		}
		if b != cur.Birthday {
			upd.Birthday, ok = &b, true
		}
	}
	if ch.EmailOptIn != nil && *ch.EmailOptIn != cur.EmailOptIn {
		upd.EmailOptIn, ok = ch.EmailOptIn, true
	}
	if len(ch.Profile) > 0 {
		p := note.Parse(cur.Note)
		if err := yaml.Unmarshal(ch.Profile, &p); err != nil {
			return upd, false, fmt.Errorf("parse profile: %w", err)
		}
		if n := note.Encode(p); n != cur.Note {
			upd.Note, ok = &n, true
		}
	}
	return upd, ok, nil
}

// birthdayDate accepts the same birthday forms as a CSV import.
func birthdayDate(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	return visit.ToAPIDate(s)
}

func customerEdit(args []string) {
	fs := flag.NewFlagSet("customer edit", flag.ExitOnError)
	email := fs.String("email", "", "new email")
	phone := fs.String("phone", "", "new phone number")
	birthday := fs.String("birthday", "", "new birthday (YYYY/MM/DD)")
	optIn := fs.String("mail", "", "mail opt-in (yes/no)")
	profilePath := fs.String("profile", "", "YAML profile fields to change (- for stdin)")
	e := setup(fs, args)
	defer e.close()
	id := parseID(fs, "customer")

	var ch customerChanges
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "email":
			ch.Email = email
		case "phone":
			ch.Phone = phone
		case "birthday":
			ch.Birthday = birthday
		case "mail":
			v := importer.Truthy(*optIn)
			ch.EmailOptIn = &v
		}
	})
	if *profilePath != "" {
		var r io.Reader = os.Stdin
		if *profilePath != "-" {
			f, err := os.Open(*profilePath)
			if err != nil {
				fatal("%v", err)
			}
			defer f.Close()
			r = f
		}
		data, err := io.ReadAll(r)
		if err != nil {
			fatal("read profile: %v", err)
		}
		ch.Profile = data
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c := e.client(e.session())

	cur, err := c.GetCustomer(ctx, id)
	if err != nil {
		fatal("%v", err)
	}
	upd, ok, err := buildCustomerUpdate(*cur, ch)
	if err != nil {
		fatal("%v", err)
	}
	if !ok {
		fmt.Println("Nothing to change")
		return
	}
	saved, err := c.UpdateCustomer(ctx, id, upd)
	if err != nil {
		fatal("%v", err)
	}
	if err := writeCustomer(os.Stdout, saved); err != nil {
		fatal("%v", err)
	}
}
