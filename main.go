package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"vodforge/logger"
)

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	logger.Close()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
