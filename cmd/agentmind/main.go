package main

import (
	"fmt"
	"os"

	"github.com/cadre-oss/agentmind/internal/cli"
	apperrors "github.com/cadre-oss/agentmind/internal/errors"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if s := apperrors.Suggestion(err); s != "" {
			fmt.Fprintf(os.Stderr, "  → %s\n", s)
		}
		os.Exit(1)
	}
}
