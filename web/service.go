// Package web serves the stored corpus read-only over HTTP and streams
// ingestion results to websocket subscribers.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"jaytaylor.com/polyglot/analysis"
	"jaytaylor.com/polyglot/crawler"
	"jaytaylor.com/polyglot/db"
)

var (
	DefaultAddr    = "127.0.0.1:8001"
	DefaultNearest = 3

	ErrNotRunning = errors.New("web service is not running")
)

type Config struct {
	Addr string
}

type WebService struct {
	listener net.Listener
	handler  http.Handler
	server   *http.Server
	mu       sync.Mutex

	Config *Config
	Store  db.Reader
	hub    *Hub
}

func New(store db.Reader, cfg *Config) *WebService {
	if cfg == nil {
		cfg = &Config{}
	}
	if len(cfg.Addr) == 0 {
		cfg.Addr = DefaultAddr
	}
	service := &WebService{
		Config: cfg,
		Store:  store,
		hub:    newHub(),
	}
	service.handler = service.activateRoutes()
	return service
}

func (service *WebService) Start() error {
	log.Info("WebService starting..")

	service.mu.Lock()
	defer service.mu.Unlock()

	var err error

	if service.listener, err = net.Listen("tcp", service.Config.Addr); err != nil {
		return err
	}

	service.server = &http.Server{
		Handler: service.handler,
	}

	go service.hub.run()
	go func() {
		log.Infof("run server result: %s", service.server.Serve(service.listener))
	}()

	log.WithField("addr", service.listener.Addr()).Info("WebService started")
	return nil
}

func (service *WebService) Stop() error {
	log.Info("WebService stopping..")

	service.mu.Lock()
	defer service.mu.Unlock()
	if service.listener == nil {
		return ErrNotRunning
	}
	service.server.Close()
	service.hub.stop()
	service.listener = nil
	log.Info("WebService stopped")
	return nil
}

func (service *WebService) Addr() net.Addr {
	service.mu.Lock()
	defer service.mu.Unlock()
	if service.listener != nil {
		return service.listener.Addr()
	}
	return nil
}

// Handler exposes the routes without a listener.
func (service *WebService) Handler() http.Handler {
	return service.handler
}

// Attach forwards every result the driver produces to websocket subscribers.
// The returned function detaches it again.
func (service *WebService) Attach(driver *crawler.Driver) func() {
	ch := make(chan crawler.Result, 100)
	driver.Subscribe(ch)
	go func() {
		for result := range ch {
			service.Publish(result)
		}
	}()
	return func() {
		driver.Unsubscribe(ch)
		close(ch)
	}
}

// Event is the websocket representation of an ingestion result.
type Event struct {
	RunID    string  `json:"run_id"`
	Language string  `json:"language"`
	Outcome  string  `json:"outcome"`
	Ratio    float64 `json:"ratio"`
	Error    string  `json:"error,omitempty"`
}

// Publish broadcasts result to every connected websocket client.
func (service *WebService) Publish(result crawler.Result) {
	event := Event{
		RunID:    result.RunID,
		Language: result.Language,
		Outcome:  result.Outcome.String(),
		Ratio:    result.Ratio,
	}
	if result.Err != nil {
		event.Error = result.Err.Error()
	}
	bs, err := json.Marshal(event)
	if err != nil {
		log.Errorf("Marshalling event: %s", err)
		return
	}
	service.hub.send(bs)
}

func (service *WebService) activateRoutes() http.Handler {
	r := mux.NewRouter()
	r.Use(service.LoggerMiddleware)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/languages", service.languages).Methods(http.MethodGet)
	v1.HandleFunc("/languages/{key}", service.language).Methods(http.MethodGet)
	v1.HandleFunc("/nearest", service.nearest).Methods(http.MethodGet)
	v1.HandleFunc("/health", service.health).Methods(http.MethodGet)
	v1.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		serveWs(service.hub, w, req)
	})

	return r
}

func (service *WebService) LoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log.WithField("method", req.Method).WithField("url", req.URL.String()).WithField("remote-addr", req.RemoteAddr).WithField("referer", req.Referer()).Info("http handler invoked")
		next.ServeHTTP(w, req)
	})
}

func (service *WebService) languages(w http.ResponseWriter, req *http.Request) {
	keys, err := service.Store.Keys()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err)
		return
	}
	respondWithJSON(w, http.StatusOK, keys)
}

func (service *WebService) language(w http.ResponseWriter, req *http.Request) {
	key := mux.Vars(req)["key"]
	entry, err := service.Store.Find(key)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err)
		return
	}
	if entry == nil {
		respondWithError(w, http.StatusNotFound, fmt.Errorf("%w: %q", db.ErrKeyNotFound, key))
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"key":          entry.Key,
		"content":      entry.Content,
		"version_date": entry.VersionDate.Format("2006-01-02"),
	})
}

func (service *WebService) nearest(w http.ResponseWriter, req *http.Request) {
	k := DefaultNearest
	if v := req.URL.Query().Get("k"); len(v) > 0 {
		var err error
		if k, err = strconv.Atoi(v); err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Errorf("invalid k %q: %s", v, err))
			return
		}
		if k < 0 {
			respondWithError(w, http.StatusBadRequest, fmt.Errorf("invalid k %v: must not be negative", k))
			return
		}
	}
	metric, err := analysis.ParseMetric(req.URL.Query().Get("metric"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err)
		return
	}

	counts, err := analysis.BuildMatrix(service.Store)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err)
		return
	}
	neighbors := analysis.Nearest(analysis.DistancesMetric(analysis.TFIDF(counts), metric), k)
	respondWithJSON(w, http.StatusOK, neighbors)
}

// health reports whether the backing store is reachable.  Readers which
// cannot be pinged are assumed healthy.
func (service *WebService) health(w http.ResponseWriter, req *http.Request) {
	if pinger, ok := service.Store.(interface{ Ping() error }); ok {
		if err := pinger.Ping(); err != nil {
			respondWithError(w, http.StatusServiceUnavailable, err)
			return
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondWithJSON(w http.ResponseWriter, status int, x interface{}) {
	bs, err := json.MarshalIndent(x, "", "    ")
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(bs)
}

func respondWithError(w http.ResponseWriter, status int, err error) {
	log.WithField("status", status).Debugf("Responding with error: %s", err)
	bs, _ := json.Marshal(map[string]string{"error": err.Error()})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(bs)
}
