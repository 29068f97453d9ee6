package docs

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/etnz/valuation"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func TestTopics(t *testing.T) {
	// Every topic listed in readme.md can be loaded, and every topic is listed.
	file, err := os.Open("readme.md")
	if err != nil {
		t.Fatalf("failed to open readme.md: %v", err)
	}
	defer file.Close()

	var listed []string
	topicRegex := regexp.MustCompile(`^\*\s+([^:]+):.*$`)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if m := topicRegex.FindStringSubmatch(scanner.Text()); len(m) > 1 {
			listed = append(listed, strings.TrimSpace(m[1]))
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("error scanning readme.md: %v", err)
	}

	for _, topic := range listed {
		if _, err := GetTopic(topic); err != nil {
			t.Errorf("failed to get topic %q: %v", topic, err)
		}
	}

	all, err := GetAllTopics()
	if err != nil {
		t.Fatalf("GetAllTopics() error = %v", err)
	}
	for _, topic := range all {
		if !slices.Contains(listed, topic) {
			t.Errorf("topic %q is not listed in readme.md", topic)
		}
	}

	if _, err := GetTopic("nope"); err == nil {
		t.Errorf("GetTopic(nope) succeeded")
	}
	every, err := GetTopic("*")
	if err != nil || !strings.Contains(every, "# Ledger") || !strings.Contains(every, "# ESPP") {
		t.Errorf("GetTopic(*) = %v, want every topic", err)
	}
}

// TestLedgerExamples checks that every json block of the documentation is a
// valid ledger line.
func TestLedgerExamples(t *testing.T) {
	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			t.Fatal(err)
		}
		root := goldmark.DefaultParser().Parse(text.NewReader(content))
		ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
			fcb, ok := node.(*ast.FencedCodeBlock)
			if !entering || !ok || string(fcb.Language(content)) != "json" {
				return ast.WalkContinue, nil
			}
			var block strings.Builder
			for i := 0; i < fcb.Lines().Len(); i++ {
				line := fcb.Lines().At(i)
				block.Write(line.Value(content))
			}
			if _, err := valuation.DecodeLedger(strings.NewReader(block.String())); err != nil {
				t.Errorf("%s: invalid ledger example: %v\n%s", file, err, block.String())
			}
			n++
			return ast.WalkContinue, nil
		})
	}
	if n == 0 {
		t.Errorf("no ledger example found")
	}
}
