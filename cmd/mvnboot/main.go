package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/mvnboot/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cli.New(os.Stdout, os.Stderr, cli.LogInfo)
	err := c.RootCommand().ExecuteContext(ctx)
	if err == nil {
		return
	}

	var exit *cli.ExitError
	switch {
	case errors.As(err, &exit):
		os.Exit(exit.Code)
	case errors.Is(err, context.Canceled):
		os.Exit(130) // Standard shell convention for SIGINT
	case errors.Is(err, cli.ErrConfigCreated):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(0)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
