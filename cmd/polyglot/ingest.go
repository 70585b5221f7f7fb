package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"jaytaylor.com/polyglot/crawler"
	"jaytaylor.com/polyglot/crawler/wiki"
	"jaytaylor.com/polyglot/db"
	"jaytaylor.com/polyglot/similarity"
)

var (
	IngestSchedule string
	CPUProfiling   bool
)

func newIngestCmd() *cobra.Command {
	ingestCmd := &cobra.Command{
		Use:     "ingest",
		Aliases: []string{"crawl", "update"},
		Short:   "Fetch articles and store the changed ones",
		Long:    "Fetches the article for every roster language and stores it when it differs meaningfully from the saved copy",
		PreRun: func(_ *cobra.Command, _ []string) {
			initLogging()
		},
		Run: func(cmd *cobra.Command, args []string) {
			if CPUProfiling {
				p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
				defer p.Stop()
			}

			ctx, cancel := signalContext()
			defer cancel()

			if err := withStore(Namespace, func(store *db.Store) error {
				driver, err := newDriver(store)
				if err != nil {
					return err
				}
				if len(IngestSchedule) == 0 {
					return ingest(ctx, driver)
				}
				return crawler.Schedule(ctx, IngestSchedule, func(ctx context.Context) {
					if err := ingest(ctx, driver); err != nil {
						log.Errorf("Scheduled ingestion failed: %s", err)
					}
				})
			}); err != nil {
				log.Fatalf("main: %s", err)
			}
		},
	}

	ingestCmd.Flags().Float64VarP(&Cutoff, "cutoff", "c", Cutoff, "Similarity ratio at or above which a fetched article counts as unchanged")
	ingestCmd.Flags().StringVarP(&Algorithm, "algorithm", "a", Algorithm, fmt.Sprintf("Similarity algorithm (%v or %v)", similarity.Quick, similarity.Full))
	ingestCmd.Flags().StringVarP(&RosterFile, "roster", "r", RosterFile, "Roster .csv or .yaml file (defaults to the built-in roster)")
	ingestCmd.Flags().StringVarP(&Endpoint, "endpoint", "e", Endpoint, "MediaWiki API endpoint")
	ingestCmd.Flags().StringVarP(&IngestSchedule, "schedule", "s", IngestSchedule, "Keep running and ingest on this 6-field cron schedule")
	ingestCmd.Flags().BoolVarP(&CPUProfiling, "cpu-profile", "", CPUProfiling, "Write a CPU profile to the working directory")

	return ingestCmd
}

func newDriver(store *db.Store) (*crawler.Driver, error) {
	alg, err := similarity.ParseAlgorithm(Algorithm)
	if err != nil {
		return nil, err
	}
	roster, err := loadRoster()
	if err != nil {
		return nil, err
	}

	cfg := crawler.NewConfig()
	cfg.Detector.Cutoff = Cutoff
	cfg.Detector.Algorithm = alg

	return crawler.New(store, wiki.New(Endpoint), roster, cfg), nil
}

func loadRoster() (*crawler.Roster, error) {
	if len(RosterFile) == 0 {
		return crawler.DefaultRoster(), nil
	}
	return crawler.LoadRoster(RosterFile, crawler.DefaultAllowList)
}

// ingest runs once and prints a line per language.  Interruption is not an
// error.
func ingest(ctx context.Context, driver *crawler.Driver) error {
	report, err := driver.Run(ctx)
	for _, result := range report.Results {
		fmt.Println(result.String())
	}
	if updated := report.Updated(); len(updated) > 0 {
		log.WithField("run-id", report.RunID).WithField("languages", strings.Join(updated, ",")).Info("Stored copies changed")
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case s := <-sigCh:
			log.WithField("sig", s).Info("Received signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
