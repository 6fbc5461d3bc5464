package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// exitError переносит код выхода из команды в Execute
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consumidor-reports",
		Short: "Crawler for consumer complaint reports published on consumidor.gov.br",
		Long: `consumidor-reports pages through the public report listing of consumidor.gov.br,
extracts one record per report card and stores each record once.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewSelectorsCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

func Execute() {
	err := NewRootCmd().ExecuteContext(context.Background())
	if err == nil {
		return
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintln(os.Stderr, exitErr.err)
		}
		os.Exit(exitErr.code)
	}

	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
