package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/siherrmann/inscriber"
	"github.com/siherrmann/inscriber/config"
	"github.com/siherrmann/inscriber/core/graph"
	"github.com/siherrmann/inscriber/helper"
)

const manifestURI = "https://figgy.princeton.edu/concern/scanned_resources/3c782d03-59be-4d6c-b421-3cbf697f9447/manifest"

func main() {
	cfg := config.DefaultConfig()
	// Always OCR, even where the manifest offers a text rendering
	cfg.Page.PreferTextRendering = false

	logger := helper.NewLogger(os.Stdout, slog.LevelInfo)
	i, err := inscriber.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create inscriber: %v", err)
	}
	defer i.Close()

	ctx := context.Background()
	c := i.LoadContainer(manifestURI)

	label, err := c.Label(ctx)
	if err != nil {
		log.Fatalf("Failed to load manifest: %v", err)
	}
	pages, err := c.Pages(ctx)
	if err != nil {
		log.Fatalf("Failed to load pages: %v", err)
	}
	fmt.Printf("Container %s has %d pages\n", label, len(pages))
	if len(pages) == 0 {
		return
	}

	// Compare the names found on the first page at different OCR thresholds.
	// Changing the threshold drops the cached text and entities, the token
	// table stays cached.
	p := pages[0]
	for _, threshold := range []int{95, 80, 60} {
		if err := p.SetThreshold(threshold); err != nil {
			log.Fatalf("Failed to set threshold: %v", err)
		}
		names, err := p.Names(ctx)
		if err != nil {
			log.Printf("Page %s failed at threshold %d: %v", p.ID(), threshold, err)
			continue
		}
		fmt.Printf("\nThreshold %d (%s): %d names\n", threshold, p.TextSource(), len(names))
		for _, name := range names {
			fmt.Printf("  %s\n", name.Text)
		}
	}

	// Group recognized words by OCR line instead of joining them into one paragraph
	p.SetLineMode(true)
	text, err := p.Text(ctx)
	if err == nil {
		fmt.Printf("\nLine grouped text of %s:\n%s\n", p.ID(), text)
	}

	g, err := i.BuildGraph(ctx, manifestURI)
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}
	fmt.Printf("\nContainer graph has %d triples\n", g.Len())

	// Count inscriptions by entity type
	counts := map[string]int{}
	for _, subject := range g.Subjects() {
		entityType, ok := g.Value(subject, graph.HasType)
		if !ok {
			continue
		}
		if local, ok := graph.EType.Local(entityType.Value); ok {
			counts[local]++
		}
	}
	for entityType, n := range counts {
		fmt.Printf("  %s: %d\n", entityType, n)
	}

	if err := os.WriteFile(label+".nt", []byte(g.NTriples()), 0644); err != nil {
		log.Fatalf("Failed to write graph: %v", err)
	}
	fmt.Printf("Wrote %s.nt\n", label)

	fmt.Println("\nAdvanced example completed successfully!")
}
