package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hazyhaar/rebeauty/pkg/importer"
)

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	mappingPath := fs.String("mapping", "", "column mapping YAML (default: console export layout)")
	encoding := fs.String("encoding", "", "override the file encoding (e.g. shift_jis)")
	dryRun := fs.Bool("dry-run", false, "parse and validate only, register nothing")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	e := setup(fs, args)
	defer e.close()

	if fs.NArg() != 1 {
		fatal("usage: rebeauty import [--mapping m.yaml] [--dry-run] <file.csv>")
	}

	m := importer.DefaultMapping()
	if *mappingPath != "" {
		loaded, err := importer.LoadMapping(*mappingPath)
		if err != nil {
			fatal("%v", err)
		}
		m = *loaded
	}
	if *encoding != "" {
		m.Format.Encoding = *encoding
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fatal("%v", err)
	}
	rows, err := importer.Read(f, m)
	f.Close()
	if err != nil {
		fatal("read %s: %v", fs.Arg(0), err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var creator importer.Creator
	if !*dryRun {
		creator = e.client(e.session())
	}
	rep, runErr := importer.New(creator, e.logger, *dryRun).Run(ctx, rows)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(rep)
	} else {
		for _, re := range rep.Errors {
			fmt.Fprintf(os.Stderr, "line %d %s: %s\n", re.Line, re.Name, re.Error)
		}
		fmt.Println(rep)
	}
	if runErr != nil {
		fatal("import interrupted: %v", runErr)
	}
	if rep.Failed > 0 {
		os.Exit(2)
	}
}
