// cmd/scantag/main.go
package main

import (
	"github.com/filmscan/scantag/internal/logger"
	"github.com/filmscan/scantag/pkg/cli"
)

func main() {
	// Initialize logger
	logger.Init()

	// Execute CLI
	cli.Execute()
}
