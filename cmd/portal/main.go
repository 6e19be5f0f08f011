package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/geocoder89/authportal/internal/client"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := client.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}

	api := client.New(cfg.BaseURL, nil)
	app := client.NewApp(api, client.NewSessionStore(cfg.SessionPath), os.Stdin, os.Stdout)

	err = app.Run(ctx, args)
	switch {
	case errors.Is(err, client.ErrUsage):
		app.Usage()
	case err != nil:
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return err
}
