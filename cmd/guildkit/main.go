// Command guildkit exports paginated platform collections as JSON lines.
//
//	guildkit history 381870553235193857 --limit 100 --max 5000 > messages.jsonl
//	guildkit audit-log 81384788765712384 --action-type 22
//
// The bot token is read from --token, GUILDKIT_TOKEN or the config file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
