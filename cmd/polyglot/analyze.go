package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"jaytaylor.com/polyglot/analysis"
	"jaytaylor.com/polyglot/db"
)

var (
	AnalyzeTop         = 3
	AnalyzeMetric      = string(analysis.DefaultMetric)
	AnalyzeFrequencies int
)

func newAnalyzeCmd() *cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:     "analyze",
		Aliases: []string{"eda"},
		Short:   "Compare languages by shared wiki links",
		Long:    "Builds a TF-IDF matrix of the bracketed nouns in each stored article and lists every language's nearest neighbours",
		PreRun: func(_ *cobra.Command, _ []string) {
			initLogging()
		},
		Run: func(cmd *cobra.Command, args []string) {
			metric, err := analysis.ParseMetric(AnalyzeMetric)
			if err != nil {
				log.Fatalf("main: %s", err)
			}
			if err := withReader(Namespace, func(store *db.Store) error {
				counts, err := analysis.BuildMatrix(store)
				if err != nil {
					return err
				}
				if len(counts.Rows) == 0 {
					log.WithField("namespace", Namespace).Warn("Nothing stored to analyze")
					return nil
				}

				if AnalyzeFrequencies > 0 {
					renderFrequencies(counts.Frequencies(), AnalyzeFrequencies)
				}

				dist := analysis.DistancesMetric(analysis.TFIDF(counts), metric)
				renderNeighbors(analysis.Nearest(dist, AnalyzeTop))
				return nil
			}); err != nil {
				log.Fatalf("main: %s", err)
			}
		},
	}

	analyzeCmd.Flags().IntVarP(&AnalyzeTop, "top", "t", AnalyzeTop, "Number of nearest languages to list per language")
	analyzeCmd.Flags().StringVarP(&AnalyzeMetric, "metric", "m", AnalyzeMetric, "Distance metric (cosine, cityblock or euclidean)")
	analyzeCmd.Flags().IntVarP(&AnalyzeFrequencies, "frequencies", "f", AnalyzeFrequencies, "Also list this many of the most widely shared nouns")

	return analyzeCmd
}

func renderNeighbors(neighbors []analysis.Neighbors) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Language", "Nearest"})
	table.SetAutoWrapText(false)
	for _, n := range neighbors {
		nearest := make([]string, len(n.Nearest))
		for i, neighbor := range n.Nearest {
			nearest[i] = fmt.Sprintf("%v (%.3f)", neighbor.Language, neighbor.Distance)
		}
		table.Append([]string{n.Language, strings.Join(nearest, ", ")})
	}
	table.Render()
}

func renderFrequencies(freqs []analysis.NounFrequency, limit int) {
	if limit < len(freqs) {
		freqs = freqs[:limit]
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Noun", "Documents"})
	for _, freq := range freqs {
		table.Append([]string{freq.Noun, fmt.Sprint(freq.Documents)})
	}
	table.Render()
}
