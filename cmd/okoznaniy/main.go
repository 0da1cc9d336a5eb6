package main

import (
	"os"

	"github.com/Argor01/OkoZnaniy-sub000/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
