package main

import (
	"encoding/json"
	"fmt"

	"github.com/onrik/logrus/filename"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"jaytaylor.com/polyglot/crawler"
	"jaytaylor.com/polyglot/crawler/wiki"
	"jaytaylor.com/polyglot/db"
	"jaytaylor.com/polyglot/similarity"
)

var (
	DBDriver  = "bolt"
	DBFile    string // Empty means the driver's default location.
	Namespace = db.DefaultNamespace
	Quiet     bool
	Verbose   bool

	Cutoff     = crawler.DefaultCutoff
	Algorithm  = string(similarity.DefaultAlgorithm)
	RosterFile string
	Endpoint   = wiki.DefaultEndpoint
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "polyglot",
		Short: "Programming language article corpus",
		Long:  "Ingests Wikipedia articles about programming languages into a versioned store and analyzes them",
	}

	rootCmd.PersistentFlags().BoolVarP(&Quiet, "quiet", "q", Quiet, "Activate quiet log output")
	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", Verbose, "Activate verbose log output")
	rootCmd.PersistentFlags().StringVarP(&DBDriver, "driver", "D", DBDriver, "DB backend driver (bolt, sqlite, postgres, mongo, memory)")
	rootCmd.PersistentFlags().StringVarP(&DBFile, "db", "b", DBFile, "DB file path, connection string or URI, depending on the driver")
	rootCmd.PersistentFlags().StringVarP(&Namespace, "namespace", "n", Namespace, "Namespace (collection) to operate on")

	rootCmd.AddCommand(
		newIngestCmd(),
		newLsCmd(),
		newGetCmd(),
		newDeleteCmd(),
		newPurgeCmd(),
		newNamespacesCmd(),
		newStatsCmd(),
		newAnalyzeCmd(),
		newRosterCmd(),
		newWebCmd(),
	)

	return rootCmd
}

func main() {
	if err := NewConfig().Do(); err != nil {
		log.Fatalf("main: %s", err)
	}
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func initLogging() {
	level := log.InfoLevel
	if Verbose {
		log.AddHook(filename.NewHook())
		level = log.DebugLevel
	}
	if Quiet {
		level = log.ErrorLevel
	}
	log.SetLevel(level)
}

func emitJSON(x interface{}) error {
	bs, err := json.MarshalIndent(x, "", "    ")
	if err != nil {
		return err
	}
	fmt.Printf("%v\n", string(bs))
	return nil
}

// withStore opens the configured store with namespace bound, or with no
// namespace bound when namespace is empty.
func withStore(namespace string, fn func(store *db.Store) error) error {
	dbCfg, err := db.NewConfig(DBDriver, DBFile)
	if err != nil {
		return err
	}
	return db.WithStore(dbCfg, namespace, fn)
}

// withReader binds an existing namespace without ever creating it.
func withReader(namespace string, fn func(store *db.Store) error) error {
	dbCfg, err := db.NewConfig(DBDriver, DBFile)
	if err != nil {
		return err
	}
	return db.WithReader(dbCfg, namespace, fn)
}
