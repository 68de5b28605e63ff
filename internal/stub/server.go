package stub

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultPageSize  = 20
	maxPageSize      = 100
	defaultBulkLimit = 1000
	maxBulkLimit     = 10000
)

// ServerConfig shapes the stub target. Jitter adds a random delay in
// [0, Jitter) to every product call and ErrorRate is the fraction of product
// calls answered with a 500.
type ServerConfig struct {
	Port      int
	Jitter    time.Duration
	ErrorRate float64
	Seed      int
	// MissingOK answers PUT/DELETE of unknown ids with success instead of 404.
	MissingOK bool
}

var validate = validator.New()

// NewRouter serves the CRUD surface the harness benchmarks: /health and /products.
func NewRouter(cfg ServerConfig, store *Store) http.Handler {
	h := &handlers{cfg: cfg, store: store}

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "timestamp": time.Now().UTC()})
	})

	r.Route("/products", func(r chi.Router) {
		r.Use(h.chaos)
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/bulk", h.bulk)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
	return r
}

// Start runs the stub in the background and returns the server for shutdown.
func Start(cfg ServerConfig) *http.Server {
	store := NewStore(cfg.Seed)
	addr := fmt.Sprintf(":%d", cfg.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(cfg, store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logrus.WithFields(logrus.Fields{
		"addr":      addr,
		"seed":      store.Len(),
		"jitter":    cfg.Jitter,
		"errorRate": cfg.ErrorRate,
	}).Info("stub target listening")

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("stub target failed")
		}
	}()
	return server
}

type handlers struct {
	cfg   ServerConfig
	store *Store
}

func (h *handlers) chaos(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.Jitter > 0 {
			time.Sleep(time.Duration(rand.Int63n(int64(h.cfg.Jitter))))
		}
		if h.cfg.ErrorRate > 0 && rand.Float64() < h.cfg.ErrorRate {
			writeError(w, http.StatusInternalServerError, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	p := h.store.Create(in)
	w.Header().Set("Location", "/products/"+p.ID.String())
	writeJSON(w, http.StatusCreated, p)
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	size := queryInt(r, "pageSize", defaultPageSize)
	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}
	writeJSON(w, http.StatusOK, h.store.Page(page, size))
}

func (h *handlers) bulk(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultBulkLimit)
	if limit < 1 || limit > maxBulkLimit {
		limit = defaultBulkLimit
	}
	writeJSON(w, http.StatusOK, h.store.Bulk(limit))
}

func (h *handlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, found := h.store.Get(id)
	if !found {
		writeError(w, http.StatusNotFound, "product "+id.String()+" not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	p, found := h.store.Update(id, in)
	switch {
	case found:
		writeJSON(w, http.StatusOK, p)
	case h.cfg.MissingOK:
		writeJSON(w, http.StatusOK, Product{ID: id, Name: in.Name, Description: in.Description, Price: in.Price})
	default:
		writeError(w, http.StatusNotFound, "product "+id.String()+" not found")
	}
}

func (h *handlers) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !h.store.Delete(id) && !h.cfg.MissingOK {
		writeError(w, http.StatusNotFound, "product "+id.String()+" not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeInput(w http.ResponseWriter, r *http.Request) (ProductInput, bool) {
	var in ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return in, false
	}
	if err := validate.Struct(&in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return in, false
	}
	return in, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "invalid product id")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
