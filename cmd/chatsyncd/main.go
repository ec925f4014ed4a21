package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/matheus3301/chatsync/internal/client"
)

func main() {
	identityFlag := flag.String("identity", "", "user id or bearer token (required)")
	configFlag := flag.String("config", "", "path to TOML config file (optional)")
	flag.Parse()

	if *identityFlag == "" {
		fmt.Fprintln(os.Stderr, "error: -identity is required")
		flag.Usage()
		os.Exit(1)
	}

	app := fx.New(
		client.Module(client.Params{
			Identity:   *identityFlag,
			ConfigPath: *configFlag,
		}),
	)

	app.Run()
}
