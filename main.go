package main

import (
	"os"

	"microsite-app/internal/cli"
)

func main() {
	// gin.SetMode(gin.ReleaseMode) uncomment only in production
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
