package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/duynguyendang/coursepack/internal/config"
	"github.com/duynguyendang/coursepack/pkg/docmodel"
	"github.com/duynguyendang/coursepack/pkg/literal"
)

// Prints the located questions literal of one document, its strict form,
// and the decoded questions or the precise syntax error.
func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <file.html> [name]", os.Args[0])
	}
	name := config.DefaultConventions().LiteralName
	if len(os.Args) > 2 {
		name = os.Args[2]
	}

	content, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to read file: %v", err)
	}
	doc, err := docmodel.Parse(string(content))
	if err != nil {
		log.Fatalf("Failed to parse document: %v", err)
	}

	locator := literal.NewLocator()
	defer locator.Close()

	n := 0
	for script := range doc.Find("script") {
		n++
		body, ok := locator.Locate(docmodel.RawText(script), name)
		if !ok {
			fmt.Printf("script %d: no %q array\n", n, name)
			continue
		}
		fmt.Printf("script %d: found %q (%d bytes)\n", n, name, len(body))

		strict, err := literal.Normalize(body)
		if err != nil {
			var syn *literal.SyntaxError
			if errors.As(err, &syn) {
				log.Fatalf("Syntax error at line %d, column %d: %s", syn.Line, syn.Column, syn.Msg)
			}
			log.Fatalf("Normalize failed: %v", err)
		}
		fmt.Printf("Strict form:\n%s\n", strict)

		questions, err := literal.Questions(body)
		if err != nil {
			log.Fatalf("Questions rejected: %v", err)
		}
		for i, q := range questions {
			fmt.Printf("%d. %s %v (answer %d)\n", i+1, q.Text, q.Options, q.Correct)
		}
		return
	}
	log.Fatalf("No %q array in %d scripts", name, n)
}
