package main

import (
	"os"

	"evcal/internal/commands"
	appLog "evcal/internal/log"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		appLog.Error("command failed", err)
		os.Exit(1)
	}
}
