package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hazyhaar/rebeauty/pkg/mcpquic"
)

// cmdTools talks to a running console over MCP-over-QUIC.
func cmdTools(args []string) {
	fs := flag.NewFlagSet("tools", flag.ExitOnError)
	addr := fs.String("addr", "", "console address (default: addr from config)")
	insecure := fs.Bool("insecure", true, "accept the console's self-signed certificate")
	e := setup(fs, args)
	defer e.close()
	if *addr == "" {
		*addr = e.cfg.Addr
	}

	if fs.NArg() < 1 {
		fatal("usage: rebeauty tools [--addr host:port] list | call <tool> [json-args]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := mcpquic.NewClient(*addr, version, e.cfg.Console.Token, mcpquic.ClientTLSConfig(*insecure))
	if err := c.Connect(ctx); err != nil {
		fatal("connect %s: %v", *addr, err)
	}
	defer c.Close()

	switch fs.Arg(0) {
	case "list":
		res, err := c.ListTools(ctx)
		if err != nil {
			fatal("%v", err)
		}
		for _, t := range res.Tools {
			fmt.Printf("%-18s %s\n", t.Name, t.Description)
		}
	case "call":
		if fs.NArg() < 2 {
			fatal("usage: rebeauty tools call <tool> [json-args]")
		}
		toolArgs := map[string]any{}
		if fs.NArg() > 2 {
			if err := json.Unmarshal([]byte(fs.Arg(2)), &toolArgs); err != nil {
				fatal("tool arguments: %v", err)
			}
		}
		var out json.RawMessage
		if err := c.CallJSON(ctx, fs.Arg(1), toolArgs, &out); err != nil {
			fatal("%v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(out)
	default:
		fatal("unknown tools command %q", fs.Arg(0))
	}
}
