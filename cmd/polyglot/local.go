package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"jaytaylor.com/polyglot/db"
)

var (
	GetContentOnly bool
)

func newLsCmd() *cobra.Command {
	lsCmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list", "keys"},
		Short:   "List stored keys",
		Long:    "Lists the keys stored in the namespace, in insertion order",
		PreRun: func(_ *cobra.Command, _ []string) {
			initLogging()
		},
		Run: func(cmd *cobra.Command, args []string) {
			if err := withReader(Namespace, func(store *db.Store) error {
				keys, err := store.Keys()
				if err != nil {
					return err
				}
				for _, key := range keys {
					fmt.Println(key)
				}
				return nil
			}); err != nil {
				log.Fatalf("main: %s", err)
			}
		},
	}
	return lsCmd
}

func newGetCmd() *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show stored entries",
		Long:  "Emits the stored entry for each key as JSON",
		Args:  cobra.MinimumNArgs(1),
		PreRun: func(_ *cobra.Command, _ []string) {
			initLogging()
		},
		Run: func(cmd *cobra.Command, args []string) {
			if err := withReader(Namespace, func(store *db.Store) error {
				for _, key := range args {
					entry, err := store.Find(key)
					if err != nil {
						return err
					}
					if entry == nil {
						return fmt.Errorf("%w: %q", db.ErrKeyNotFound, key)
					}
					if GetContentOnly {
						fmt.Fprintln(os.Stdout, entry.Content)
						continue
					}
					if err := emitJSON(entry); err != nil {
						return err
					}
				}
				return nil
			}); err != nil {
				log.Fatalf("main: %s", err)
			}
		},
	}

	getCmd.Flags().BoolVarP(&GetContentOnly, "content", "c", GetContentOnly, "Print only the article content")

	return getCmd
}

func newDeleteCmd() *cobra.Command {
	deleteCmd := &cobra.Command{
		Use:     "delete",
		Aliases: []string{"del", "remove", "rm"},
		Short:   "Delete stored entries",
		Long:    "Deletes the entry for each key.  Missing keys are ignored",
		Args:    cobra.MinimumNArgs(1),
		PreRun: func(_ *cobra.Command, _ []string) {
			initLogging()
		},
		Run: func(cmd *cobra.Command, args []string) {
			if err := withStore(Namespace, func(store *db.Store) error {
				for _, key := range args {
					if err := store.Delete(key); err != nil {
						return err
					}
				}
				plural := ""
				if len(args) > 1 {
					plural = "s"
				}
				log.WithField("supplied", len(args)).Infof("Entry%s removal operation finished", plural)
				return nil
			}); err != nil {
				log.Fatalf("main: %s", err)
			}
		},
	}
	return deleteCmd
}

func newPurgeCmd() *cobra.Command {
	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Drop namespaces",
		Long:  "Drops each named namespace along with every entry in it",
		Args:  cobra.MinimumNArgs(1),
		PreRun: func(_ *cobra.Command, _ []string) {
			initLogging()
		},
		Run: func(cmd *cobra.Command, args []string) {
			if err := withStore("", func(store *db.Store) error {
				for _, namespace := range args {
					if err := store.DeleteCollection(namespace); err != nil {
						return err
					}
				}
				return nil
			}); err != nil {
				log.Fatalf("main: %s", err)
			}
		},
	}
	return purgeCmd
}

func newNamespacesCmd() *cobra.Command {
	namespacesCmd := &cobra.Command{
		Use:     "namespaces",
		Aliases: []string{"ns", "collections"},
		Short:   "List namespaces",
		Long:    "Lists every namespace in the store",
		PreRun: func(_ *cobra.Command, _ []string) {
			initLogging()
		},
		Run: func(cmd *cobra.Command, args []string) {
			if err := withStore("", func(store *db.Store) error {
				namespaces, err := store.Namespaces()
				if err != nil {
					return err
				}
				for _, namespace := range namespaces {
					fmt.Println(namespace)
				}
				return nil
			}); err != nil {
				log.Fatalf("main: %s", err)
			}
		},
	}
	return namespacesCmd
}
