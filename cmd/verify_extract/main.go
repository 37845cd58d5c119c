package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/duynguyendang/coursepack/internal/config"
	"github.com/duynguyendang/coursepack/pkg/export"
	"github.com/duynguyendang/coursepack/pkg/ingest"
)

var fixtures = map[string]string{
	"module1/lesson-1.html": `<!DOCTYPE html>
<html><head><title>Variables</title></head>
<body>
<header><h1>Chapter 1.05 Variables</h1><span class="module-badge">Module 1: Basics</span></header>
<nav><a class="tab" href="#overview" data-icon="book">Overview</a></nav>
<main><p>Ünïcode / slashes</p></main>
<a class="nav-next" href="lesson-2.html">Next</a>
</body></html>`,
	"module1/lesson-2.html": `<html><body data-module="1"><h1>Chapter 1.10 Constants</h1>
<div class="lesson-content"><p>const</p></div><a class="nav-prev" href="lesson-1.html">Back</a></body></html>`,
	"module2/intro.html": `<html><body><h1>Chapter 2</h1><main><p>Functions</p></main></body></html>`,
	"module1/module1-quiz.html": `<html><body><h1>Module 1 Quiz</h1>
<div class="quiz-container" data-quiz data-question-count="3"></div>
<script>
const questions = [
  {question: "A, B: C?", options: ["x", "y"], correctAnswer: 1,}, // trailing comma
  {question: 'Pick one', options: ['a', 'b'], correctAnswer: 0, explanation: "see http://example.com"},
];
</script></body></html>`,
	"module2/module2-quiz.html": `<html><body><h1>Module 2 Quiz</h1>
<script>questions = [{question: "Out of range", options: ["a"], correctAnswer: 4}];</script></body></html>`,
	"module3/empty.html": ``,
}

func writeFixtures(dir string) {
	for name, body := range fixtures {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			log.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			log.Fatal(err)
		}
	}
}

func extract(cfg config.Config, outDir string) {
	res, err := ingest.New(ingest.DirSource{Root: cfg.InputDir}, cfg, nil).Run(context.Background())
	if err != nil {
		log.Fatalf("Extraction failed: %v", err)
	}
	if err := export.WriteAll(outDir, res.Batch, res.Report); err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	fmt.Printf("  %d documents, %d failed, %d lessons, %d quizzes, %d questions\n",
		res.Report.Documents, res.Report.Failed, len(res.Batch.Lessons), len(res.Batch.Quizzes), len(res.Batch.Questions))
}

func main() {
	_ = godotenv.Load()

	// 1. Setup temporary source tree
	dir, err := os.MkdirTemp("", "coursepack-verify-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	srcDir := filepath.Join(dir, "content")
	writeFixtures(srcDir)

	cfg := config.DefaultConfig()
	cfg.InputDir = srcDir

	// 2. Run twice
	outA := filepath.Join(dir, "out-a")
	outB := filepath.Join(dir, "out-b")
	fmt.Println("Running extraction (1/2)...")
	extract(cfg, outA)
	cfg.Workers = 1
	fmt.Println("Running extraction (2/2, single worker)...")
	extract(cfg, outB)

	// 3. Compare artifacts byte for byte
	failed := false
	for _, name := range []string{export.LessonsFile, export.QuizzesFile, export.QuestionsFile, export.ReportFile} {
		a, err := os.ReadFile(filepath.Join(outA, name))
		if err != nil {
			log.Fatal(err)
		}
		b, err := os.ReadFile(filepath.Join(outB, name))
		if err != nil {
			log.Fatal(err)
		}
		if !bytes.Equal(a, b) {
			fmt.Printf("  ✗ %s differs\n", name)
			failed = true
			continue
		}
		fmt.Printf("  ✓ %s identical (%d bytes)\n", name, len(a))
	}
	if failed {
		log.Fatal("Verification FAILED: output is not deterministic")
	}

	report, _ := os.ReadFile(filepath.Join(outA, export.ReportFile))
	fmt.Println()
	fmt.Print(string(report))
	fmt.Println("Verification SUCCESS!")
}
