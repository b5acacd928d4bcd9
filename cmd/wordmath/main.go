// Command wordmath answers arithmetic word problems. A language model turns the
// question into an expression, and the expression is checked and evaluated
// exactly without the model.
//
// With -addr, it serves a web UI until interrupted. With -eval, it evaluates
// expressions directly.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	wmcmd "github.com/zephyrtronium/wordmath/internal/cmd/wordmath"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("[wordmath] ")
	cfg, err := wmcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := wmcmd.Run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, wmcmd.ErrFailed) {
			stop()
			os.Exit(1)
		}
		log.Fatal(err)
	}
}
