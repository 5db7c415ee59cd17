package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "serve":
		cmdServe(args)
	case "login":
		cmdLogin(args)
	case "logout":
		cmdLogout(args)
	case "whoami":
		cmdWhoami(args)
	case "search":
		cmdSearch(args)
	case "customer":
		cmdCustomer(args)
	case "visit":
		cmdVisit(args)
	case "staff":
		cmdStaff(args)
	case "summary":
		cmdSummary(args)
	case "note":
		cmdNote(args)
	case "import":
		cmdImport(args)
	case "mail":
		cmdMail(args)
	case "tools":
		cmdTools(args)
	case "version":
		fmt.Println(version)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: rebeauty <command> [flags]

Commands:
  serve                    Start the console (HTTP + MCP over QUIC) and keep the customer cache in sync
  login                    Log in to the Re:Beauty API and store the session
  logout                   Forget the stored session
  whoami                   Show the logged-in staff member and token expiry
  search                   Search customers (--id, --name, --phone)
  customer show|edit ID    Show a customer with their visits, or change contact details and profile
  visit list|add|edit|rm   Record and correct visits (visit catalog lists the products)
  staff list|add           List staff accounts or create one (--bootstrap-code for the first)
  summary                  Show today's visits and this month's new customers
  note encode|decode       Convert between a counseling profile and a customer note
  import <file.csv>        Register customers from a CSV export
  mail targets|send        List follow-mail recipients or send a campaign
  tools list|call          Call console tools on a running server over QUIC
  version                  Print the version

Every command accepts --config (default config.yaml).
`)
}

func newLogger(level string) *slog.Logger {
	var lv slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lv = slog.LevelDebug
	case "warn", "warning":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
}

// fatal prints err and exits. CLI commands report errors this way rather
// than through the logger so the message is readable without key=value noise.
func fatal(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", a...)
	os.Exit(1)
}
