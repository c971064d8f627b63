package main

import (
	"github.com/charmbracelet/log"

	"flightwatch/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		log.Fatal("flightwatch failed", "err", err)
	}
}
