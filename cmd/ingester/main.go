// Command ingester is the entry point for the document ingestion and
// retrieval service. It provides a CLI interface (via Cobra) and an HTTP
// server exposing the ingest and ask endpoints.
package main

import (
	"fmt"
	"os"

	"github.com/docstack/ingester-go/cmd/ingester/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
