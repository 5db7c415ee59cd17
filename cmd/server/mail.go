package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hazyhaar/rebeauty/pkg/followmail"
)

func cmdMail(args []string) {
	if len(args) < 1 {
		fatal("usage: rebeauty mail targets|send [flags]")
	}
	switch args[0] {
	case "targets":
		mailTargets(args[1:])
	case "send":
		mailSend(args[1:])
	default:
		fatal("unknown mail command %q", args[0])
	}
}

func mailFlags(name string) (*flag.FlagSet, *string, *string) {
	fs := flag.NewFlagSet("mail "+name, flag.ExitOnError)
	mailType := fs.String("type", "birthday", "birthday, event or purchase_follow")
	segment := fs.String("segment", "skincare", "skincare or makeup (purchase_follow only)")
	return fs, mailType, segment
}

func parseMailFlags(mailType, segment string) (followmail.MailType, followmail.Segment) {
	mt, err := followmail.ParseMailType(mailType)
	if err != nil {
		fatal("%v", err)
	}
	sg, err := followmail.ParseSegment(segment)
	if err != nil {
		fatal("%v", err)
	}
	return mt, sg
}

func mailTargets(args []string) {
	fs, mailType, segment := mailFlags("targets")
	suggest := fs.Int("suggest", 0, "show only the N customers longest without a visit")
	e := setup(fs, args)
	defer e.close()
	mt, sg := parseMailFlags(*mailType, *segment)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	composer := followmail.NewComposer(e.client(e.session()), e.logger)
	recipients, err := composer.Targets(ctx, mt, sg)
	if err != nil {
		fatal("%v", err)
	}
	if *suggest > 0 {
		recipients = followmail.Suggestions(recipients, *suggest)
	}

	if len(recipients) == 0 {
		fmt.Println("No recipients")
		return
	}
	for _, r := range recipients {
		extra := r.Birthday
		if r.DaysSince > 0 {
			extra = fmt.Sprintf("%d days since %s", r.DaysSince, r.LastVisit)
		}
		fmt.Printf("%6d  %-16s  %-30s  %s\n", r.CustomerID, r.Name, r.Email, extra)
	}
	fmt.Printf("%d recipients\n", len(followmail.RecipientIDs(recipients)))
}

func mailSend(args []string) {
	fs, mailType, segment := mailFlags("send")
	subject := fs.String("subject", "", "mail subject")
	bodyFile := fs.String("body-file", "", "file holding the mail body")
	test := fs.Bool("test", false, "send only to the logged-in staff member")
	yes := fs.Bool("yes", false, "send without confirmation")
	e := setup(fs, args)
	defer e.close()
	mt, sg := parseMailFlags(*mailType, *segment)

	if *bodyFile == "" {
		fatal("--body-file is required")
	}
	body, err := os.ReadFile(*bodyFile)
	if err != nil {
		fatal("%v", err)
	}
	draft := followmail.Draft{Subject: *subject, Body: string(body)}
	if err := draft.Validate(); err != nil {
		fatal("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	composer := followmail.NewComposer(e.client(e.session()), e.logger)

	if *test {
		res, err := composer.SendTest(ctx, draft)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Println(res.Message)
		return
	}

	recipients, err := composer.Targets(ctx, mt, sg)
	if err != nil {
		fatal("%v", err)
	}
	n := len(followmail.RecipientIDs(recipients))
	if n == 0 {
		fatal("%v", followmail.ErrNoRecipients)
	}
	if !*yes {
		fatal("this would mail %d customers; re-run with --yes to send", n)
	}
	res, err := composer.SendBulk(ctx, draft, recipients)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("%s (%d sent)\n", res.Message, res.SentCount)
}
