package polyglot

// Package polyglot keeps a versioned corpus of the Wikipedia articles for a
// roster of programming languages and compares the languages by the wiki
// links their articles share.
//
// Overview
//
// The system is comprised of the following component stages:
//
// 1. Roster
//
// Which languages are tracked, and the article title fetched for each.  A
// built-in roster covers the default allow list; a .csv or .yaml roster file
// may replace it, but must still cover every allow-listed language.
//
// 2. Ingestion
//
// Every roster article is fetched from the MediaWiki query API and compared
// with the stored copy.  Articles at or above the similarity cutoff (0.99 by
// default) are left alone so that trivial edits don't churn version dates.
// Everything else is inserted or updated with today's date.
//
//     polyglot ingest
//     polyglot ingest --schedule '0 0 3 * * *'
//
// 3. Storage
//
// Entries live in a namespace ("languages" by default) of a pluggable
// backend: bolt, sqlite, postgres, mongo or memory.  Each key holds exactly
// one record, encoded as
//
//     {"name": "go", "value": "[\"<article>\", \"2023-03-14\"]"}
//
// which stays readable by the original Python tooling.  Namespaces are capped
// at 50,000,000 bytes and 1000 records; the oldest records go first.
//
// 4. Analysis
//
// The [[bracketed nouns]] of every stored article feed a TF-IDF matrix, and
// languages are ranked by cosine distance over it.
//
//     polyglot analyze --top 3
//
// * Run `polyglot web` to browse the corpus over HTTP
