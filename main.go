package main

import (
	"log/slog"

	"github.com/skillpod-hq/sentinel/cmd"
	logutil "github.com/skillpod-hq/sentinel/utils/log"
)

func main() {
	logutil.SetupGlobalLogger(slog.LevelInfo)
	cmd.Execute()
}
