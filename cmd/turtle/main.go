package main

import (
	"os"

	"turtlebot/cmd/turtle/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
