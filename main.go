package main

import (
	"os"

	"github.com/LeEricCH/cohere-slack-starter-app/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
