package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"jaytaylor.com/polyglot/db"
)

func TestIngest(t *testing.T) {
	resetGlobals(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch title := r.URL.Query().Get("titles"); title {
		case "Go_(programming_language)", "Python_(programming_language)":
			fmt.Fprintf(w, `{"query":{"pages":{"1":{"title":%q,"revisions":[{"*":"[[Article]] about %s"}]}}}}`, title, title)
		default:
			fmt.Fprintf(w, `{"query":{"pages":{"-1":{"title":%q,"missing":""}}}}`, title)
		}
	}))
	defer server.Close()

	rosterFile := filepath.Join(t.TempDir(), "roster.yaml")
	if err := os.WriteFile(rosterFile, []byte("go: Go_(programming_language)\npython: Python_(programming_language)\nrust: Rust_(programming_language)\n"), 0600); err != nil {
		t.Fatal(err)
	}

	DBDriver = "memory"
	Endpoint = server.URL
	RosterFile = rosterFile
	Algorithm = "quick"
	Cutoff = 0.99

	if _, err := loadRoster(); err == nil {
		t.Fatal("Expected a roster without every allow-listed language to be rejected")
	}

	if err := withStore(Namespace, func(store *db.Store) error {
		driver, err := newDriver(store)
		if err == nil {
			t.Fatal("Expected newDriver to fail on the partial roster")
		}

		RosterFile = ""
		if driver, err = newDriver(store); err != nil {
			return err
		}
		if err := ingest(context.Background(), driver); err != nil {
			return err
		}

		keys, err := store.Keys()
		if err != nil {
			return err
		}
		if expected, actual := 2, len(keys); actual != expected {
			t.Errorf("Expected %v keys but actual=%v (%v)", expected, actual, keys)
		}

		entry, err := store.Find("go")
		if err != nil {
			return err
		}
		if entry == nil {
			t.Fatal("Expected go entry to be present")
		}
		if expected, actual := "[[Article]] about Go_(programming_language)", entry.Content; actual != expected {
			t.Errorf("Expected content=%q but actual=%q", expected, actual)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func TestNewDriverBadAlgorithm(t *testing.T) {
	resetGlobals(t)

	Algorithm = "levenshtein"
	if _, err := newDriver(db.NewStore(db.NewMemoryConfig())); err == nil {
		t.Error("Expected unrecognized algorithm to be rejected")
	}
}

func TestReadOnlyCommandsDoNotCreateNamespace(t *testing.T) {
	resetGlobals(t)

	DBDriver = "bolt"
	DBFile = filepath.Join(t.TempDir(), "readonly.bolt")
	Namespace = "prod"

	if err := withReader(Namespace, func(store *db.Store) error {
		t.Error("Expected binding a missing namespace to fail before fn runs")
		return nil
	}); !errors.Is(err, db.ErrNamespaceNotFound) {
		t.Errorf("Expected err=%s but actual=%v", db.ErrNamespaceNotFound, err)
	}

	if err := withStore("", func(store *db.Store) error {
		namespaces, err := store.Namespaces()
		if err != nil {
			return err
		}
		if expected, actual := 0, len(namespaces); actual != expected {
			t.Errorf("Expected %v namespaces but actual=%v (%v)", expected, actual, namespaces)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if err := withStore(Namespace, func(store *db.Store) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if err := withReader(Namespace, func(store *db.Store) error {
		if expected, actual := Namespace, store.Namespace(); actual != expected {
			t.Errorf("Expected bound namespace=%v but actual=%v", expected, actual)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}
