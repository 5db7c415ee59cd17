package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hazyhaar/rebeauty/pkg/client"
)

func writeSummary(w io.Writer, s *client.Summary) {
	fmt.Fprintf(w, "Visits today:          %d\n", s.TodayVisits)
	fmt.Fprintf(w, "New customers (month): %d\n", s.MonthlyNewCount)
}

func cmdSummary(args []string) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	e := setup(fs, args)
	defer e.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s, err := e.client(e.session()).Summary(ctx)
	if err != nil {
		fatal("%v", err)
	}
	writeSummary(os.Stdout, s)
}
