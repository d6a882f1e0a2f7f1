package main

import (
	"os"

	"github.com/shopadmin-dev/shopadmin/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
