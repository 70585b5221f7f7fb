package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"jaytaylor.com/polyglot/db"
)

func newStatsCmd() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:     "statistics",
		Aliases: []string{"stats", "stat", "st"},
		Short:   "Per-namespace counts",
		Long:    "Displays the record and distinct key counts of every namespace",
		PreRun: func(_ *cobra.Command, _ []string) {
			initLogging()
		},
		Run: func(cmd *cobra.Command, args []string) {
			if err := withStore("", func(store *db.Store) error {
				namespaces, err := store.Namespaces()
				if err != nil {
					return err
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.SetHeader([]string{"Namespace", "Records", "Keys", "Duplicates"})
				table.SetAlignment(tablewriter.ALIGN_RIGHT)

				for _, namespace := range namespaces {
					if err := store.Use(namespace); err != nil {
						return err
					}
					records, err := store.Len()
					if err != nil {
						return fmt.Errorf("getting len(%v): %s", namespace, err)
					}
					keys, err := store.Keys()
					if err != nil {
						return fmt.Errorf("getting keys(%v): %s", namespace, err)
					}
					table.Append([]string{
						namespace,
						fmt.Sprint(records),
						fmt.Sprint(len(keys)),
						fmt.Sprint(records - len(keys)),
					})
				}
				table.Render()
				return nil
			}); err != nil {
				log.Fatalf("main: %s", err)
			}
		},
	}
	return statsCmd
}
