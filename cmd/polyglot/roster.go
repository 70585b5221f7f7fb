package main

import (
	"os"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRosterCmd() *cobra.Command {
	rosterCmd := &cobra.Command{
		Use:   "roster",
		Short: "Show the languages ingested",
		Long:  "Displays each roster language and the article title fetched for it",
		PreRun: func(_ *cobra.Command, _ []string) {
			initLogging()
		},
		Run: func(cmd *cobra.Command, args []string) {
			roster, err := loadRoster()
			if err != nil {
				log.Fatalf("main: %s", err)
			}
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Language", "Article"})
			for _, name := range roster.Names() {
				title, _ := roster.Title(name)
				table.Append([]string{name, title})
			}
			table.Render()
		},
	}

	rosterCmd.Flags().StringVarP(&RosterFile, "roster", "r", RosterFile, "Roster .csv or .yaml file (defaults to the built-in roster)")

	return rosterCmd
}
