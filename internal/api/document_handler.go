package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/chess99/BookDistill/internal/document"
	"github.com/chess99/BookDistill/internal/parser"
	"github.com/chess99/BookDistill/internal/storage"
	"github.com/chess99/BookDistill/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const documentsPath = "/api/v1/documents"

// DocumentHandler handles document-related API endpoints
type DocumentHandler struct {
	repo         document.Repository
	parsers      parser.Factory
	log          *zap.Logger
	maxUpload    int64
	parseTimeout time.Duration
	wg           sync.WaitGroup
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(repo document.Repository, parsers parser.Factory, cfg types.ServerConfig, log *zap.Logger) *DocumentHandler {
	if log == nil {
		log = zap.NewNop()
	}
	maxUpload := int64(cfg.MaxUploadMB) << 20
	if maxUpload <= 0 {
		maxUpload = 100 << 20
	}
	return &DocumentHandler{
		repo:         repo,
		parsers:      parsers,
		log:          log,
		maxUpload:    maxUpload,
		parseTimeout: time.Duration(cfg.ParseTimeout) * time.Second,
	}
}

// Register mounts the document and format endpoints on mux
func (h *DocumentHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc(documentsPath, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.UploadDocument(w, r)
		case http.MethodGet:
			h.ListDocuments(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc(documentsPath+"/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/text"):
			h.GetDocumentText(w, r)
		case strings.HasSuffix(r.URL.Path, "/reparse"):
			h.ReparseDocument(w, r)
		default:
			h.GetDocument(w, r)
		}
	})
	mux.HandleFunc("/api/v1/formats", h.ListFormats)
	mux.HandleFunc("/api/v1/formats/detect", h.DetectFormat)
}

// Wait blocks until all background parses have finished
func (h *DocumentHandler) Wait() {
	h.wg.Wait()
}

// UploadDocument handles POST /api/v1/documents
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// Detection only looks at the name, so reject before reading the body
	format, ok := h.parsers.DetectFormat(parser.NewFile(header.Filename, nil))
	if !ok {
		respondError(w, fmt.Sprintf("Unsupported file format: %s", header.Filename), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	doc := &types.Document{
		ID:         uuid.NewString(),
		Filename:   header.Filename,
		Format:     string(format),
		Size:       int64(len(data)),
		Status:     types.StatusParsing,
		UploadedAt: time.Now().UTC(),
	}

	ctx := r.Context()
	if err := h.repo.SaveDocument(ctx, doc); err != nil {
		h.log.Error("failed to save document", zap.String("id", doc.ID), zap.Error(err))
		respondError(w, "Failed to save document metadata", http.StatusInternalServerError)
		return
	}

	if err := h.repo.SaveRawFile(ctx, doc.ID, data); err != nil {
		h.log.Error("failed to save raw file", zap.String("id", doc.ID), zap.Error(err))
		respondError(w, "Failed to save raw file", http.StatusInternalServerError)
		return
	}

	h.log.Info("document uploaded",
		zap.String("id", doc.ID),
		zap.String("filename", doc.Filename),
		zap.String("format", doc.Format),
		zap.Int64("size", doc.Size))

	h.startParse(doc, data)

	respondJSON(w, doc, http.StatusCreated)
}

// ReparseDocument handles POST /api/v1/documents/:id/reparse. It runs the
// parser again over the stored upload.
func (h *DocumentHandler) ReparseDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := extractIDFromPath(r.URL.Path, documentsPath+"/")
	if id == "" {
		respondError(w, "Document ID required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	doc, err := h.repo.GetDocument(ctx, id)
	if err != nil {
		h.respondLookupError(w, id, err)
		return
	}
	if doc.Status == types.StatusParsing {
		respondError(w, "Document is still being parsed", http.StatusConflict)
		return
	}

	data, err := h.repo.GetRawFile(ctx, id)
	if err != nil {
		h.respondLookupError(w, id, err)
		return
	}

	doc.Status = types.StatusParsing
	doc.Error = ""
	doc.ParsedAt = nil
	if err := h.repo.UpdateDocument(ctx, doc); err != nil {
		h.log.Error("failed to update document", zap.String("id", id), zap.Error(err))
		respondError(w, "Failed to update document", http.StatusInternalServerError)
		return
	}

	h.log.Info("document reparse requested", zap.String("id", id))
	h.startParse(doc, data)

	respondJSON(w, doc, http.StatusAccepted)
}

// startParse parses data in the background and records the outcome on a copy of doc
func (h *DocumentHandler) startParse(doc *types.Document, data []byte) {
	pending := *doc
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				h.log.Error("panic while parsing document", zap.String("id", pending.ID), zap.Any("panic", rec))
				h.markFailed(context.Background(), &pending, fmt.Sprintf("Processing panic: %v", rec))
			}
		}()
		h.processDocument(&pending, data)
	}()
}

// processDocument runs the parser and records the outcome
func (h *DocumentHandler) processDocument(doc *types.Document, data []byte) {
	ctx := context.Background()
	parseCtx := ctx
	if h.parseTimeout > 0 {
		var cancel context.CancelFunc
		parseCtx, cancel = context.WithTimeout(ctx, h.parseTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := h.parsers.ParseFile(parseCtx, parser.NewFile(doc.Filename, data))
	if err != nil {
		h.log.Warn("document parsing failed", zap.String("id", doc.ID), zap.Error(err))
		h.markFailed(ctx, doc, err.Error())
		return
	}

	if err := h.repo.SaveText(ctx, doc.ID, result.Text); err != nil {
		h.log.Error("failed to save document text", zap.String("id", doc.ID), zap.Error(err))
		h.markFailed(ctx, doc, "Failed to store extracted text")
		return
	}

	parsedAt := time.Now().UTC()
	doc.Status = types.StatusReady
	doc.Format = string(result.Format)
	doc.Title = result.Title
	doc.Author = result.AuthorOrEmpty()
	doc.CharCount = utf8.RuneCountInString(result.Text)
	doc.ParsedAt = &parsedAt

	if err := h.repo.UpdateDocument(ctx, doc); err != nil {
		h.log.Error("failed to update document", zap.String("id", doc.ID), zap.Error(err))
		return
	}

	h.log.Info("document parsed",
		zap.String("id", doc.ID),
		zap.String("title", doc.Title),
		zap.Int("chars", doc.CharCount),
		zap.Duration("took", time.Since(start)))
}

func (h *DocumentHandler) markFailed(ctx context.Context, doc *types.Document, msg string) {
	parsedAt := time.Now().UTC()
	doc.Status = types.StatusError
	doc.Error = msg
	doc.ParsedAt = &parsedAt
	if err := h.repo.UpdateDocument(ctx, doc); err != nil {
		h.log.Error("failed to record parse error", zap.String("id", doc.ID), zap.Error(err))
	}
}

// ListDocuments handles GET /api/v1/documents
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	docs, err := h.repo.ListDocuments(r.Context())
	if err != nil {
		h.log.Error("failed to list documents", zap.Error(err))
		respondError(w, "Failed to list documents", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]interface{}{
		"documents": docs,
		"count":     len(docs),
	}, http.StatusOK)
}

// GetDocument handles GET /api/v1/documents/:id
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := extractIDFromPath(r.URL.Path, documentsPath+"/")
	if id == "" {
		respondError(w, "Document ID required", http.StatusBadRequest)
		return
	}

	doc, err := h.repo.GetDocument(r.Context(), id)
	if err != nil {
		h.respondLookupError(w, id, err)
		return
	}

	respondJSON(w, doc, http.StatusOK)
}

// GetDocumentText handles GET /api/v1/documents/:id/text
func (h *DocumentHandler) GetDocumentText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := extractIDFromPath(r.URL.Path, documentsPath+"/")
	if id == "" {
		respondError(w, "Document ID required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	doc, err := h.repo.GetDocument(ctx, id)
	if err != nil {
		h.respondLookupError(w, id, err)
		return
	}

	switch doc.Status {
	case types.StatusParsing:
		respondError(w, "Document is still being parsed", http.StatusConflict)
		return
	case types.StatusError:
		respondError(w, fmt.Sprintf("Document parsing failed: %s", doc.Error), http.StatusUnprocessableEntity)
		return
	}

	text, err := h.repo.GetText(ctx, id)
	if err != nil {
		h.respondLookupError(w, id, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, text)
}

// formatInfo describes one registered parser
type formatInfo struct {
	Format       parser.FileFormat   `json:"format"`
	Capabilities parser.Capabilities `json:"capabilities"`
}

// ListFormats handles GET /api/v1/formats
func (h *DocumentHandler) ListFormats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parsers := make([]formatInfo, 0)
	for _, format := range h.parsers.Formats() {
		if p, ok := h.parsers.GetParser(format); ok {
			parsers = append(parsers, formatInfo{Format: format, Capabilities: p.Capabilities()})
		}
	}

	supported := h.parsers.SupportedFormats()
	respondJSON(w, map[string]interface{}{
		"extensions": supported.Extensions,
		"accept":     supported.Accept,
		"parsers":    parsers,
	}, http.StatusOK)
}

// DetectFormat handles GET /api/v1/formats/detect?filename=
func (h *DocumentHandler) DetectFormat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := r.URL.Query().Get("filename")
	if name == "" {
		respondError(w, "filename query parameter required", http.StatusBadRequest)
		return
	}

	format, ok := h.parsers.DetectFormat(parser.NewFile(name, nil))
	resp := map[string]interface{}{
		"filename":  name,
		"supported": ok,
	}
	if ok {
		resp["format"] = format
	}
	respondJSON(w, resp, http.StatusOK)
}

func (h *DocumentHandler) respondLookupError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, "Document not found", http.StatusNotFound)
		return
	}
	h.log.Error("failed to load document", zap.String("id", id), zap.Error(err))
	respondError(w, "Failed to load document", http.StatusInternalServerError)
}
