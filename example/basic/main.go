package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/siherrmann/inscriber"
	"github.com/siherrmann/inscriber/config"
	"github.com/siherrmann/inscriber/helper"
	"github.com/siherrmann/inscriber/model"
)

// A folder of the George F. Kennan Papers at Princeton University Library.
const manifestURI = "https://figgy.princeton.edu/concern/scanned_resources/3c782d03-59be-4d6c-b421-3cbf697f9447/manifest"

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	cfg := config.DefaultConfig()
	cfg.OutputDir = "./output"
	cfg.Database.Enabled = true
	cfg.Database.DatabaseConfiguration = helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	logger := helper.NewLogger(os.Stdout, slog.LevelInfo)
	i, err := inscriber.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create inscriber: %v", err)
	}
	defer i.Close()

	ctx := context.Background()

	fmt.Println("Dumping container...")
	result, err := i.Dump(ctx, manifestURI, cfg.OutputDir, inscriber.DumpOptions{})
	if err != nil {
		log.Fatalf("Failed to dump container: %v", err)
	}
	fmt.Printf("Wrote %d files for %d pages into %s\n", result.Report.Written(), len(result.Report.Pages), result.Report.Dir)
	if result.Report.Failed() > 0 {
		fmt.Printf("%d pages failed\n", result.Report.Failed())
	}

	queryText := "letter about the Soviet Union"
	fmt.Printf("\nQuerying: %s\n", queryText)

	queryConfig := model.DefaultQueryConfig()
	queryConfig.TopK = 3
	queryConfig.SimilarityThreshold = 0.0
	queryConfig.EntityType = model.EntityPerson

	results, err := i.Search(ctx, queryText, queryConfig)
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}

	fmt.Printf("\nFound %d results:\n", len(results))
	for n, r := range results {
		fmt.Printf("\n--- Result %d ---\n", n+1)
		fmt.Printf("Score: %.4f\n", r.Score)
		fmt.Printf("Container: %s\n", r.ContainerLabel)
		fmt.Printf("Page: %s\n", r.Page.PageKey)
		for _, inscription := range r.Inscriptions {
			fmt.Printf("  %s (%s)\n", inscription.Text, inscription.EntityType)
		}
	}

	fmt.Println("\nBasic example completed successfully!")
}
