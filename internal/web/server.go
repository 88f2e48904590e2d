// Package web serves a read-only browser for searching a project's memory.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/stormlightlabs/memoria/internal/assets"
	"github.com/stormlightlabs/memoria/internal/search"
)

// Backend is what the server searches and reads records through.
// *search.Service implements it.
type Backend interface {
	Run(ctx context.Context, mode search.Mode, q search.Query) (search.Result, error)
	GetByID(ctx context.Context, typ string, id int64) (search.Record, error)
}

// Options holds the defaults used when a request leaves them out.
type Options struct {
	ProjectID int64
	Mode      search.Mode
}

type Server struct {
	backend   Backend
	opts      Options
	router    *http.ServeMux
	addr      string
	markdown  *MarkdownRenderer
	templates *template.Template
	logger    *log.Logger
}

func NewServer(b Backend, opts Options, addr string) (*Server, error) {
	tmpl, err := template.ParseFS(assets.TemplateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if opts.Mode == "" {
		opts.Mode = search.ModeLexical
	}
	s := &Server{
		backend:   b,
		opts:      opts,
		router:    http.NewServeMux(),
		addr:      addr,
		markdown:  NewMarkdownRenderer(),
		templates: tmpl,
		logger:    log.WithPrefix("web"),
	}
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) registerRoutes() error {
	static, err := fs.Sub(assets.StaticFS, "static")
	if err != nil {
		return err
	}
	s.router.HandleFunc("GET /{$}", s.handleIndex)
	s.router.HandleFunc("GET /search", s.handleSearch)
	s.router.HandleFunc("GET /records/{type}/{id}", s.handleRecord)
	s.router.HandleFunc("GET /api/search", s.handleAPISearch)
	s.router.HandleFunc("GET /api/records/{type}/{id}", s.handleAPIRecord)
	s.router.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	return nil
}

// ServeHTTP logs and dispatches a request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.router.ServeHTTP(w, r)
	s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	s.logger.Info("Web interface listening", "addr", "http://"+s.addr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) renderTemplate(w io.Writer, name string, data any) error {
	return s.templates.ExecuteTemplate(w, name, data)
}
