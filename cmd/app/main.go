package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"StockSeq/internal/di"
	"StockSeq/internal/domain/errs"
	"StockSeq/pkg/config"
	"StockSeq/pkg/server"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	symbolsFlag := flag.String("symbols", "", "comma separated symbols (default: provider.symbols)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <%s>\n", os.Args[0], strings.Join(server.Commands, "|"))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	// Load config; configuration problems stop here before any network call
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Printf("config load failed: %v", err)
		os.Exit(2)
	}

	// Wire DI: Initialize all dependencies
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Printf("app initialization failed: %v", err)
		if errors.Is(err, errs.ErrConfiguration) {
			os.Exit(2)
		}
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = app.Run(ctx, command, splitSymbols(*symbolsFlag))
	stop()
	cleanup()

	if err != nil {
		log.Printf("%s: %v", command, err)
		os.Exit(1)
	}
}

func splitSymbols(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
