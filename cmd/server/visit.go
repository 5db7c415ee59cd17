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
	"github.com/hazyhaar/rebeauty/pkg/visit"
)

func cmdVisit(args []string) {
	if len(args) < 1 {
		fatal("usage: rebeauty visit list|add|edit|rm [flags] <id>")
	}
	switch args[0] {
	case "list":
		visitList(args[1:])
	case "add":
		visitAdd(args[1:])
	case "edit":
		visitEdit(args[1:])
	case "rm":
		visitRemove(args[1:])
	case "catalog":
		writeCatalog(os.Stdout)
	default:
		fatal("unknown visit command %q", args[0])
	}
}

// itemFlags collects repeated --item values.
type itemFlags []string

func (f *itemFlags) String() string { return strings.Join(*f, ",") }

// Set accepts a product name or a history label such as "スキンケア：化粧水".
func (f *itemFlags) Set(v string) error {
	p := visit.ProductFromLabel(v)
	if p == "" {
		return fmt.Errorf("empty item")
	}
	*f = append(*f, p)
	return nil
}

func writeCatalog(w io.Writer) {
	for _, g := range visit.Catalog {
		fmt.Fprintf(w, "%s: %s\n", g.Label, strings.Join(g.Products, ", "))
	}
}

// writeVisits prints a visit history, newest as the API returns it.
func writeVisits(w io.Writer, visits []client.Visit) {
	if len(visits) == 0 {
		fmt.Fprintln(w, "No visits")
		return
	}
	for _, v := range visits {
		staff := "-"
		if v.StaffID != nil {
			staff = strconv.FormatInt(*v.StaffID, 10)
		}
		fmt.Fprintf(w, "#%-5d %s  staff %s\n", v.ID, visit.FromAPIDate(v.VisitDate), staff)
		for _, it := range v.Items {
			fmt.Fprintf(w, "       %s\n", visit.ItemLabel(visit.LabelForCategory(it.Category), it.ProductName))
		}
		if v.Memo != "" {
			fmt.Fprintf(w, "       memo: %s\n", v.Memo)
		}
	}
}

func visitList(args []string) {
	fs := flag.NewFlagSet("visit list", flag.ExitOnError)
	e := setup(fs, args)
	defer e.close()
	customerID := parseID(fs, "customer")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	visits, err := e.client(e.session()).ListVisits(ctx, customerID)
	if err != nil {
		fatal("%v", err)
	}
	writeVisits(os.Stdout, visits)
}

// draftFlags are shared by add and edit.
type draftFlags struct {
	date  *string
	staff *int64
	memo  *string
	items itemFlags
}

func newDraftFlags(fs *flag.FlagSet) *draftFlags {
	d := &draftFlags{
		date:  fs.String("date", "", "visit date YYYY/MM/DD (add: today)"),
		staff: fs.Int64("staff", 0, "staff id (add: the logged-in staff member)"),
		memo:  fs.String("memo", "", "visit memo"),
	}
	fs.Var(&d.items, "item", "product, repeatable (see `rebeauty visit catalog`)")
	return d
}

// apply overlays the flags that were set on base.
func (d *draftFlags) apply(fs *flag.FlagSet, base visit.Draft) visit.Draft {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "date":
			base.Date = *d.date
		case "staff":
			base.StaffID = *d.staff
		case "memo":
			base.Memo = *d.memo
		case "item":
			base.Items = append([]string(nil), d.items...)
		}
	})
	return base
}

// newDraft is the starting point of `visit add`: today, by the logged-in
// staff member.
func newDraft(now time.Time, staffID int64) visit.Draft {
	return visit.Draft{Date: visit.Today(now), StaffID: staffID}
}

func visitAdd(args []string) {
	fs := flag.NewFlagSet("visit add", flag.ExitOnError)
	df := newDraftFlags(fs)
	e := setup(fs, args)
	defer e.close()
	customerID := parseID(fs, "customer")

	sess := e.session()
	var staffID int64
	if u := sess.User(); u != nil {
		staffID = u.ID
	}
	in, err := df.apply(fs, newDraft(time.Now(), staffID)).ToCreate(customerID)
	if err != nil {
		fatal("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	v, err := e.client(sess).CreateVisit(ctx, in)
	if err != nil {
		fatal("%v", err)
	}
	writeVisits(os.Stdout, []client.Visit{*v})
}

// findVisit picks a visit out of a customer's history.
func findVisit(visits []client.Visit, id int64) (client.Visit, bool) {
	for _, v := range visits {
		if v.ID == id {
			return v, true
		}
	}
	return client.Visit{}, false
}

func visitEdit(args []string) {
	fs := flag.NewFlagSet("visit edit", flag.ExitOnError)
	customerID := fs.Int64("customer", 0, "customer the visit belongs to (required)")
	df := newDraftFlags(fs)
	e := setup(fs, args)
	defer e.close()
	visitID := parseID(fs, "visit")
	if *customerID <= 0 {
		fatal("--customer is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c := e.client(e.session())

	visits, err := c.ListVisits(ctx, *customerID)
	if err != nil {
		fatal("%v", err)
	}
	cur, ok := findVisit(visits, visitID)
	if !ok {
		fatal("visit %d not found for customer %d", visitID, *customerID)
	}
	upd, err := df.apply(fs, visit.FromVisit(cur)).ToUpdate()
	if err != nil {
		fatal("%v", err)
	}
	v, err := c.UpdateVisit(ctx, visitID, upd)
	if err != nil {
		fatal("%v", err)
	}
	writeVisits(os.Stdout, []client.Visit{*v})
}

func visitRemove(args []string) {
	fs := flag.NewFlagSet("visit rm", flag.ExitOnError)
	yes := fs.Bool("yes", false, "delete without confirmation")
	e := setup(fs, args)
	defer e.close()
	visitID := parseID(fs, "visit")
	if !*yes {
		fatal("this deletes visit %d; re-run with --yes", visitID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.client(e.session()).DeleteVisit(ctx, visitID); err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Deleted visit %d\n", visitID)
}
