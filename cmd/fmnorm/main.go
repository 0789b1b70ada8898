package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/goliatone/go-fmnorm/cmd/fmnorm/internal/bootstrap"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errChangesPending) {
			fmt.Fprintf(os.Stderr, "fmnorm: %v\n", err)
		}
		os.Exit(1)
	}
}
