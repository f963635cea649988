package main

import (
	"github.com/smadinen7/Market-Intelligence-Assistant/internal/server"
	"github.com/smadinen7/Market-Intelligence-Assistant/internal/util"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  util.GetEnvBool("DEBUG", false),
		Format: util.GetEnvString("LOG_FORMAT", "text"),
	})
	logger.Init(consoleLogger)

	server.Init()
}
