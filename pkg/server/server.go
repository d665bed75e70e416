// Package server exposes the HTTP API: product listing, category
// enumeration, similarity search, uploads, rescans, and health. It is thin
// glue over the search engine and synchronizer; all behavior lives there.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	traceSpan "go.opentelemetry.io/otel/trace"

	"github.com/shopvision/visearch/pkg/catalog"
	"github.com/shopvision/visearch/pkg/embedding"
	"github.com/shopvision/visearch/pkg/search"
	"github.com/shopvision/visearch/pkg/storage"
)

// Searcher is the read side the API delegates to.
type Searcher interface {
	FindSimilar(ctx context.Context, query embedding.ImageSource, opts search.Options) ([]search.Result, error)
	ListProducts(ctx context.Context, category string) ([]catalog.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Snapshot(ctx context.Context) search.Health
}

// Ingestor is the write side the API delegates to.
type Ingestor interface {
	SyncManifestToIndex(ctx context.Context) (int, error)
	DiscoverOrphanImages(ctx context.Context) (int, error)
	AddUploadedImage(ctx context.Context, filename string, data []byte, info catalog.Product) (catalog.Product, error)
}

// Spanner traces request handling. A nil Spanner disables tracing.
type Spanner interface {
	StartSpan(ctx context.Context, name string) (context.Context, traceSpan.Span)
	RecordErrorOnSpan(span traceSpan.Span, err error)
	SetAttributes(span traceSpan.Span, attrs map[string]interface{})
}

// Logger is the logging contract this package depends on.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

type Server struct {
	httpServer *http.Server
	searcher   Searcher
	ingestor   Ingestor
	store      storage.Store
	logger     Logger
	spanner    Spanner
	cfg        *Config
}

func NewServer(cfg *Config, searcher Searcher, ingestor Ingestor, store storage.Store, logger Logger, spanner Spanner) *Server {
	s := &Server{
		searcher: searcher,
		ingestor: ingestor,
		store:    store,
		logger:   logger,
		spanner:  spanner,
		cfg:      cfg,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", s.handleListProducts)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/products", s.handleAddProduct)
	mux.HandleFunc("POST /api/rescan", s.handleRescan)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /images/{filename}", s.handleImage)

	s.httpServer = &http.Server{
		Addr:    cfg.Address,
		Handler: mux,
	}
	return s
}

// Handler exposes the route table, for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.searcher.ListProducts(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.fail(w, http.StatusServiceUnavailable, "listing products failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"products": products, "count": len(products)})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.searcher.Categories(r.Context())
	if err != nil {
		s.fail(w, http.StatusServiceUnavailable, "listing categories failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query, opts, err := s.parseSearchRequest(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx := r.Context()
	var span traceSpan.Span
	if s.spanner != nil {
		ctx, span = s.spanner.StartSpan(ctx, "search")
		defer span.End()
		s.spanner.SetAttributes(span, map[string]interface{}{
			"search.limit":    opts.Limit,
			"search.category": opts.Category,
		})
	}

	results, err := s.searcher.FindSimilar(ctx, query, opts)
	if err != nil {
		if span != nil {
			s.spanner.RecordErrorOnSpan(span, err)
		}
		s.fail(w, http.StatusServiceUnavailable, "search failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}

// parseSearchRequest accepts either a multipart upload with an "image" file
// or a JSON body carrying an "image_url".
func (s *Server) parseSearchRequest(r *http.Request) (embedding.ImageSource, search.Options, error) {
	opts := search.DefaultOptions()

	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if contentType == "multipart/form-data" {
		if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
			return embedding.ImageSource{}, opts, fmt.Errorf("invalid multipart form: %v", err)
		}

		s.applySearchParams(&opts, func(key string) string { return r.FormValue(key) })

		data, _, err := readUpload(r, "image", s.cfg.MaxUploadBytes)
		if err != nil {
			return embedding.ImageSource{}, opts, err
		}
		return embedding.FromBytes(data), opts, nil
	}

	var body struct {
		ImageURL  string   `json:"image_url"`
		Limit     *int     `json:"limit"`
		Threshold *float64 `json:"threshold"`
		Category  string   `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return embedding.ImageSource{}, opts, fmt.Errorf("invalid request body: %v", err)
	}
	if body.ImageURL == "" {
		return embedding.ImageSource{}, opts, fmt.Errorf("image_url is required")
	}
	if body.Limit != nil {
		opts.Limit = *body.Limit
	}
	if body.Threshold != nil {
		opts.ScoreThreshold = *body.Threshold
	}
	opts.Category = body.Category
	return embedding.FromURL(body.ImageURL), opts, nil
}

func (s *Server) applySearchParams(opts *search.Options, value func(string) string) {
	if v := value("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			opts.Limit = limit
		}
	}
	if v := value("threshold"); v != "" {
		if threshold, err := strconv.ParseFloat(v, 64); err == nil {
			opts.ScoreThreshold = threshold
		}
	}
	opts.Category = value("category")
}

func (s *Server) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid multipart form", err)
		return
	}

	data, filename, err := readUpload(r, "image", s.cfg.MaxUploadBytes)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	info := catalog.Product{
		Name:        r.FormValue("name"),
		Category:    r.FormValue("category"),
		Brand:       r.FormValue("brand"),
		Description: r.FormValue("description"),
	}
	if v := r.FormValue("price"); v != "" {
		info.Price, _ = strconv.ParseFloat(v, 64)
	}
	if v := r.FormValue("rating"); v != "" {
		info.Rating, _ = strconv.ParseFloat(v, 64)
	}

	product, err := s.ingestor.AddUploadedImage(r.Context(), filename, data, info)
	if err != nil {
		s.fail(w, http.StatusUnprocessableEntity, "adding product failed", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"product": product})
}

func (s *Server) handleRescan(w http.ResponseWriter, r *http.Request) {
	added, err := s.ingestor.SyncManifestToIndex(r.Context())
	if err != nil {
		s.fail(w, http.StatusServiceUnavailable, "rescan failed", err)
		return
	}

	orphans, err := s.ingestor.DiscoverOrphanImages(r.Context())
	if err != nil {
		s.fail(w, http.StatusServiceUnavailable, "orphan discovery failed", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"added": added, "orphans": orphans})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.searcher.Snapshot(r.Context())
	status := http.StatusOK
	if health.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, health)
}

// handleImage serves stored image files, for catalogs on the local backend.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if !storage.SupportedImageExt(filepath.Ext(filename)) {
		s.fail(w, http.StatusNotFound, "not found", nil)
		return
	}

	data, err := s.store.ReadImage(r.Context(), filename)
	if err != nil {
		s.fail(w, http.StatusNotFound, "not found", nil)
		return
	}

	if contentType := mime.TypeByExtension(filepath.Ext(filename)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Write(data)
}

func readUpload(r *http.Request, field string, maxBytes int64) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("missing %q file upload", field)
	}
	defer file.Close()

	if header.Size > maxBytes {
		return nil, "", fmt.Errorf("upload exceeds %d bytes", maxBytes)
	}

	data := make([]byte, header.Size)
	if _, err := io.ReadFull(file, data); err != nil {
		return nil, "", fmt.Errorf("reading upload failed")
	}
	return data, header.Filename, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", err, nil)
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		s.logger.Warn(msg, err, map[string]interface{}{"status": status})
	}
	s.writeJSON(w, status, map[string]string{"error": msg})
}
