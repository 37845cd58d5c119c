package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/duynguyendang/coursepack/internal/config"
	"github.com/duynguyendang/coursepack/internal/logger"
	"github.com/duynguyendang/coursepack/pkg/ingest"
)

// Runs the extractor over a single document with debug logging and dumps
// the outcome.
func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <file.html> [root]", os.Args[0])
	}
	path := os.Args[1]
	relPath := filepath.Base(path)
	if len(os.Args) > 2 {
		rel, err := filepath.Rel(os.Args[2], path)
		if err != nil {
			log.Fatalf("Failed to resolve path: %v", err)
		}
		relPath = filepath.ToSlash(rel)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read file: %v", err)
	}

	zl, err := logger.New("dev")
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()

	ext := ingest.NewExtractor(config.DefaultConfig(), zl)
	defer ext.Close()

	out := ext.Extract(relPath, content)
	dump := struct {
		ingest.Outcome
		Error string `json:"error,omitempty"`
	}{Outcome: out}
	if out.Err != nil {
		dump.Error = out.Err.Error()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dump); err != nil {
		log.Fatal(err)
	}
}
