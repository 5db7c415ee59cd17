package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hazyhaar/rebeauty/pkg/note"
	"github.com/hazyhaar/rebeauty/pkg/search"
	"github.com/hazyhaar/rebeauty/pkg/store"
	"gopkg.in/yaml.v3"
)

func cmdSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	id := fs.String("id", "", "customer number (substring)")
	name := fs.String("name", "", "name, kanji or kana (substring)")
	phone := fs.String("phone", "", "phone number (substring)")
	fromCache := fs.Bool("cache", false, "search the local cache instead of the API")
	e := setup(fs, args)
	defer e.close()

	ix := search.NewIndex(e.cfg.Search.Normalize)
	q := search.Query{ByID: *id, ByName: *name, ByPhone: *phone}
	if ix.IsEmptyQuery(q) && fs.NArg() > 0 {
		// A bare argument searches every field.
		term := strings.Join(fs.Args(), " ")
		q = search.Query{ByID: term, ByName: term, ByPhone: term}
	}
	if ix.IsEmptyQuery(q) {
		fatal("give at least one of --id, --name, --phone")
	}

	var candidates []search.Customer
	if *fromCache {
		cache, err := store.Open(filepath.Join(e.cfg.DataDir, "cache.db"))
		if err != nil {
			fatal("%v", err)
		}
		defer cache.Close()
		if candidates, err = cache.Searchables(); err != nil {
			fatal("%v", err)
		}
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		customers, err := e.client(e.session()).ListCustomers(ctx, "")
		if err != nil {
			fatal("list customers: %v", err)
		}
		for _, c := range customers {
			candidates = append(candidates, search.NewCustomer(strconv.FormatInt(c.ID, 10), c.Name, c.Phone))
		}
	}

	ix.Replace(candidates)
	res := ix.Search(q)
	if res.Total == 0 {
		fmt.Println("No matching customers")
		return
	}
	for _, hit := range res.Hits {
		fmt.Printf("%6s  %-20s  %s\n", render(hit.ID), render(hit.Name), render(hit.Phone))
	}
	if res.Total == search.MaxResults {
		fmt.Printf("(first %d results)\n", search.MaxResults)
	}
}

// render brackets matched segments.
func render(segs []search.Segment) string {
	var b strings.Builder
	for _, s := range segs {
		if s.Match {
			b.WriteString("[" + s.Text + "]")
		} else {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

func cmdNote(args []string) {
	if len(args) < 1 {
		fatal("usage: rebeauty note encode [file] | note decode <note>")
	}
	switch args[0] {
	case "encode":
		noteEncode(args[1:])
	case "decode":
		noteDecode(args[1:])
	default:
		fatal("unknown note command %q", args[0])
	}
}

// noteEncode reads a profile as YAML or JSON from a file or stdin.
func noteEncode(args []string) {
	var r io.Reader = os.Stdin
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
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
	var p note.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		fatal("parse profile: %v", err)
	}
	fmt.Println(note.Encode(p))
}

func noteDecode(args []string) {
	if len(args) == 0 {
		fatal("usage: rebeauty note decode <note>")
	}
	p := note.Parse(strings.Join(args, " "))
	out, err := yaml.Marshal(p)
	if err != nil {
		fatal("%v", err)
	}
	os.Stdout.Write(out)
}
