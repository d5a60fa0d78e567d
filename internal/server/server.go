package server

import (
	"net/http"
	"time"

	"github.com/salamyar/salamyar/internal/utils"
	"github.com/salamyar/salamyar/pkg/aggregate"
	"github.com/salamyar/salamyar/pkg/basalam"
	"github.com/salamyar/salamyar/pkg/selection"
	"github.com/salamyar/salamyar/pkg/similar"
)

type Server struct {
	Store    *selection.Store
	Basalam  *basalam.Client
	Fetcher  *similar.Fetcher
	Username string
	Password string

	// Concurrency and RunTimeout bound a single aggregation run.
	Concurrency int
	RunTimeout  time.Duration
}

func New(store *selection.Store, client *basalam.Client, fetcher *similar.Fetcher, user, pass string) *Server {
	return &Server{
		Store:       store,
		Basalam:     client,
		Fetcher:     fetcher,
		Username:    user,
		Password:    pass,
		Concurrency: 4,
		RunTimeout:  2 * time.Minute,
	}
}

// Handler builds the API routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API Group
	mux.HandleFunc("GET /api/search", s.basicAuth(s.handleSearch))
	mux.HandleFunc("POST /api/selections", s.basicAuth(s.handleSelect))
	mux.HandleFunc("GET /api/selections", s.basicAuth(s.handleListSelections))
	mux.HandleFunc("GET /api/selections/vendor", s.basicAuth(s.handleVendorSelections))
	mux.HandleFunc("DELETE /api/selections/{itemID}", s.basicAuth(s.handleRemoveSelection))
	mux.HandleFunc("DELETE /api/selections", s.basicAuth(s.handleClearSelections))
	mux.HandleFunc("POST /api/confirm", s.basicAuth(s.handleConfirm))

	return mux
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Starting server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) aggregateConfig() aggregate.Config {
	return aggregate.Config{
		Store:       s.Store,
		Fetcher:     s.Fetcher,
		Concurrency: s.Concurrency,
		Log:         utils.Log,
	}
}
