package main

import (
	"context"
	"fmt"
	"os"

	"github.com/oatext/internal/cli"
	"github.com/oatext/internal/config"
	"github.com/oatext/internal/logging"
)

func main() {
	config.LoadDotEnvs()
	logging.InitLogger(config.Load().LogLevel)

	if err := cli.NewRootCommand(nil).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
