package main

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"jaytaylor.com/polyglot/crawler"
	"jaytaylor.com/polyglot/db"
	"jaytaylor.com/polyglot/web"
)

var (
	WebAddr = web.DefaultAddr
)

func newWebCmd() *cobra.Command {
	webCmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the corpus over HTTP",
		Long:  "Serves the stored corpus read-only over HTTP.  With --schedule, ingestion also runs in-process and its results stream to /v1/ws",
		PreRun: func(_ *cobra.Command, _ []string) {
			initLogging()
		},
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := signalContext()
			defer cancel()

			// Only in-process ingestion may create the namespace.
			bind := withReader
			if len(IngestSchedule) > 0 {
				bind = withStore
			}

			if err := bind(Namespace, func(store *db.Store) error {
				service := web.New(store, &web.Config{Addr: WebAddr})
				if err := service.Start(); err != nil {
					return err
				}
				defer service.Stop()

				if len(IngestSchedule) > 0 {
					driver, err := newDriver(store)
					if err != nil {
						return err
					}
					detach := service.Attach(driver)
					defer detach()

					return crawler.Schedule(ctx, IngestSchedule, func(ctx context.Context) {
						if err := ingest(ctx, driver); err != nil {
							log.Errorf("Scheduled ingestion failed: %s", err)
						}
					})
				}

				<-ctx.Done()
				return nil
			}); err != nil {
				log.Fatalf("main: %s", err)
			}
		},
	}

	webCmd.Flags().StringVarP(&WebAddr, "addr", "a", WebAddr, "Interface bind address:port spec")
	webCmd.Flags().StringVarP(&IngestSchedule, "schedule", "s", IngestSchedule, "Also ingest on this 6-field cron schedule")
	webCmd.Flags().StringVarP(&RosterFile, "roster", "r", RosterFile, "Roster .csv or .yaml file (defaults to the built-in roster)")
	webCmd.Flags().StringVarP(&Endpoint, "endpoint", "e", Endpoint, "MediaWiki API endpoint")

	return webCmd
}
