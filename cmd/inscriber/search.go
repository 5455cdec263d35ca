package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/siherrmann/inscriber"
	"github.com/siherrmann/inscriber/helper"
	"github.com/siherrmann/inscriber/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	searchTopK       int
	searchThreshold  float64
	searchType       string
	searchContainers []string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find stored pages similar to a query",
	Long: `Embed the query and return the most similar stored pages together with
their inscriptions. Requires database.enabled.

Examples:
  inscriber search "letter to Acheson about Moscow"
  inscriber search "Kennan" --type PERSON --top-k 10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queryConfig := model.DefaultQueryConfig()
		queryConfig.TopK = searchTopK
		queryConfig.SimilarityThreshold = searchThreshold
		queryConfig.EntityType = searchType
		for _, c := range searchContainers {
			rid, err := uuid.Parse(c)
			if err != nil {
				return helper.NewError("parse container rid", err)
			}
			queryConfig.ContainerRIDs = append(queryConfig.ContainerRIDs, rid)
		}

		i, logger, err := newInscriber(cmd, inscriber.WithoutAnnotator())
		if err != nil {
			return err
		}
		defer finish(i, logger)

		results, err := i.Search(cmd.Context(), args[0], queryConfig)
		if err != nil {
			return err
		}
		return printSearchResults(cmd, results)
	},
}

func init() {
	defaults := model.DefaultQueryConfig()
	searchCmd.Flags().IntVar(&searchTopK, "top-k", defaults.TopK, "number of pages to return")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", defaults.SimilarityThreshold, "minimum cosine similarity")
	searchCmd.Flags().StringVar(&searchType, "type", "", "only pages with an inscription of this entity type")
	searchCmd.Flags().StringSliceVar(&searchContainers, "container", nil, "restrict to container RIDs")
}

type searchHit struct {
	Score        float64  `yaml:"score"`
	Container    string   `yaml:"container"`
	Page         string   `yaml:"page"`
	Canvas       string   `yaml:"canvas"`
	Inscriptions []string `yaml:"inscriptions,omitempty"`
}

func printSearchResults(cmd *cobra.Command, results []*model.SearchResult) error {
	hits := make([]searchHit, 0, len(results))
	for _, r := range results {
		hit := searchHit{
			Score:     r.Score,
			Container: r.ContainerLabel,
			Page:      r.Page.PageKey,
			Canvas:    r.Page.CanvasID,
		}
		for _, inscription := range r.Inscriptions {
			hit.Inscriptions = append(hit.Inscriptions, fmt.Sprintf("%s (%s)", inscription.Text, inscription.EntityType))
		}
		hits = append(hits, hit)
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	defer enc.Close()
	return enc.Encode(hits)
}
