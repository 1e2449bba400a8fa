package main

import (
	"github.com/vedanshmuni/videochat/internal/cli"
	"github.com/vedanshmuni/videochat/internal/logging"
)

func main() {
	logging.Init()
	cli.Execute()
}
