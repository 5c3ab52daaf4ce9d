package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dunamismax/batch4k/internal/domain"
	"github.com/dunamismax/batch4k/internal/resize"
)

func main() {
	if err := resize.Startup(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cmd := newRootCommand()
	err := cmd.Execute()
	resize.Shutdown()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, domain.UserMessage(err))
		}
		os.Exit(1)
	}
}
