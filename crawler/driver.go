// Package crawler drives ingestion: each roster language's article is
// fetched, compared against the stored copy and written when it has changed.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"jaytaylor.com/polyglot/db"
	"jaytaylor.com/polyglot/domain"
)

// Fetcher retrieves the current content of an article.
type Fetcher interface {
	Fetch(ctx context.Context, title string) (string, error)
}

// Store is the subset of *db.Store ingestion writes through.
type Store interface {
	Find(key string) (*domain.Entry, error)
	InsertOrUpdate(key string, content string, versionDate time.Time) (db.Outcome, error)
}

type Outcome int

const (
	OutcomeAdded Outcome = iota
	OutcomeUpdated
	OutcomeUnchanged
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdded:
		return "added"
	case OutcomeUpdated:
		return "updated"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result is the outcome of ingesting one language.
type Result struct {
	RunID    string
	Language string
	Title    string
	Outcome  Outcome
	Ratio    float64
	Err      error // Why the language was skipped, if it was.
}

func (r Result) String() string {
	s := fmt.Sprintf("%-12v %-10v ratio=%.4f", r.Language, r.Outcome, r.Ratio)
	if r.Err != nil {
		s += fmt.Sprintf(" err=%s", r.Err)
	}
	return s
}

type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Results  []Result
}

// Count returns how many languages ended with outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, result := range r.Results {
		if result.Outcome == o {
			n++
		}
	}
	return n
}

// Updated lists the languages whose stored copy was written during the run.
func (r *Report) Updated() []string {
	langs := []string{}
	for _, result := range r.Results {
		if result.Outcome == OutcomeAdded || result.Outcome == OutcomeUpdated {
			langs = append(langs, result.Language)
		}
	}
	return langs
}

type Config struct {
	Detector Detector
	Now      func() time.Time // Clock for version dates.  Defaults to time.Now.
}

func NewConfig() *Config {
	cfg := &Config{
		Detector: NewDetector(),
		Now:      time.Now,
	}
	return cfg
}

type Driver struct {
	Config      *Config
	store       Store
	fetcher     Fetcher
	roster      *Roster
	subscribers []chan<- Result
	mu          sync.Mutex
}

func New(store Store, fetcher Fetcher, roster *Roster, cfg *Config) *Driver {
	if cfg == nil {
		cfg = NewConfig()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	d := &Driver{
		Config:  cfg,
		store:   store,
		fetcher: fetcher,
		roster:  roster,
	}
	return d
}

// Run ingests every roster language once, in roster order.
//
// Per-language failures are recorded as skipped and the run carries on.  A
// corrupted namespace or an unavailable store aborts the run; the partial
// report is returned alongside the error.  Cancelling ctx stops the run before
// the next language.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:   uuid.New().String(),
		Started: time.Now(),
		Results: make([]Result, 0, d.roster.Len()),
	}
	logger := log.WithField("run-id", report.RunID)
	logger.WithField("languages", d.roster.Len()).Info("Starting ingestion run")

	defer func() {
		report.Finished = time.Now()
	}()

	versionDate := domain.Date(d.Config.Now())

	for _, lang := range d.roster.Names() {
		select {
		case <-ctx.Done():
			logger.Warnf("Ingestion run interrupted: %s", ctx.Err())
			return report, ctx.Err()
		default:
		}

		title, _ := d.roster.Title(lang)
		result, err := d.ingest(ctx, logger, lang, title, versionDate)
		result.RunID = report.RunID
		report.Results = append(report.Results, result)
		d.publish(result)
		if err != nil {
			logger.WithField("language", lang).Errorf("Aborting ingestion run: %s", err)
			return report, err
		}
	}

	logger.
		WithField("added", report.Count(OutcomeAdded)).
		WithField("updated", report.Count(OutcomeUpdated)).
		WithField("unchanged", report.Count(OutcomeUnchanged)).
		WithField("skipped", report.Count(OutcomeSkipped)).
		Info("Ingestion run finished")
	return report, nil
}

// Subscribe registers ch to receive every result as it is produced.  Sends
// never block: a full channel misses results.
func (d *Driver) Subscribe(ch chan<- Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers = append(d.subscribers, ch)
}

func (d *Driver) Unsubscribe(ch chan<- Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, sub := range d.subscribers {
		if sub == ch {
			d.subscribers = append(d.subscribers[:i], d.subscribers[i+1:]...)
			return
		}
	}
}

func (d *Driver) publish(result Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ch := range d.subscribers {
		select {
		case ch <- result:
		default:
			log.WithField("language", result.Language).Debug("Subscriber channel full, dropped result")
		}
	}
}

// ingest handles a single language.  A non-nil error means the whole run must
// stop.
func (d *Driver) ingest(ctx context.Context, logger *log.Entry, lang string, title string, versionDate time.Time) (Result, error) {
	result := Result{
		Language: lang,
		Title:    title,
	}
	logger = logger.WithField("language", lang)

	content, err := d.fetcher.Fetch(ctx, title)
	if err != nil {
		logger.Warnf("Unusable result, skipping: %s", err)
		result.Outcome = OutcomeSkipped
		result.Err = err
		return result, nil
	}

	stored, err := d.store.Find(lang)
	if err != nil {
		return d.storeFailure(logger, result, err)
	}

	decision := d.Config.Detector.Decide(stored, content)
	result.Ratio = decision.Ratio
	logger = logger.WithField("ratio", decision.Ratio)

	if decision.Action == ActionSkip {
		logger.Info("Entry was not newer than saved copy")
		result.Outcome = OutcomeUnchanged
		return result, nil
	}

	written, err := d.store.InsertOrUpdate(lang, content, versionDate)
	if err != nil {
		return d.storeFailure(logger, result, err)
	}
	if written == db.Inserted {
		result.Outcome = OutcomeAdded
		logger.Info("Entry was not in cache, added it")
	} else {
		result.Outcome = OutcomeUpdated
		logger.Info("Meaningful difference found, updated entry")
	}
	return result, nil
}

func (d *Driver) storeFailure(logger *log.Entry, result Result, err error) (Result, error) {
	result.Outcome = OutcomeSkipped
	result.Err = err
	if errors.Is(err, db.ErrInvariantViolation) || errors.Is(err, db.ErrNotConnected) {
		return result, err
	}
	logger.Errorf("Store operation failed, skipping: %s", err)
	return result, nil
}
