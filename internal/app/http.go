package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"atelier/api/internal/auth"
	"atelier/api/internal/contact"
	"atelier/api/internal/logger"
	"atelier/api/internal/search"
	"atelier/api/internal/store"
	"atelier/api/internal/util"
)

const maxUploadBytes = 32 << 20

type authorizer interface {
	Authorize(r *http.Request) auth.Result
}

type HTTPServer struct {
	service    *Service
	gate       authorizer
	corsOrigin string
	log        logger.Logger
}

func NewHTTPServer(service *Service, gate authorizer, corsOrigin string, log logger.Logger) *HTTPServer {
	if log == nil {
		log = logger.NewNop()
	}
	return &HTTPServer{service: service, gate: gate, corsOrigin: corsOrigin, log: log}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	parts, err := splitPath(r.URL.EscapedPath())
	if err != nil || len(parts) < 2 || parts[0] != "api" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}
	route := parts[1:]

	switch route[0] {
	case "health":
		if len(route) == 1 && isRead(r) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
	case "ready":
		if len(route) == 1 && isRead(r) {
			s.handleReady(w, r)
			return
		}
	case "schema":
		if isRead(r) {
			s.handleSchema(w, route[1:])
			return
		}
	case "content":
		if isRead(r) && (len(route) == 2 || len(route) == 3) {
			s.handleContentRead(w, r, route[1:])
			return
		}
	case "admin":
		if len(route) == 4 && route[1] == "content" {
			s.handleContentWrite(w, r, route[2], route[3])
			return
		}
		if len(route) == 2 && route[1] == "upload" && r.Method == http.MethodPost {
			s.handleUpload(w, r)
			return
		}
	case "contact":
		if len(route) == 1 && r.Method == http.MethodPost {
			s.handleContact(w, r)
			return
		}
	case "search":
		if len(route) == 1 && isRead(r) {
			s.handleSearch(w, r)
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func isRead(r *http.Request) bool {
	return r.Method == http.MethodGet || r.Method == http.MethodHead
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"storage": map[string]any{"status": "ok"},
	}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["storage"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleSchema(w http.ResponseWriter, rest []string) {
	switch len(rest) {
	case 0:
		writeJSON(w, http.StatusOK, map[string]any{"categories": s.service.Categories()})
	case 1:
		category, err := s.service.Category(rest[0])
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, category)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleContentRead(w http.ResponseWriter, r *http.Request, rest []string) {
	category := rest[0]
	if len(rest) == 1 {
		items, err := s.service.ListContent(r.Context(), category)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
		return
	}

	item, err := s.service.GetContent(r.Context(), category, rest[1])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// authorize runs the gate and writes 403 when it refuses. Nothing else about
// the request is inspected before the gate has answered.
func (s *HTTPServer) authorize(w http.ResponseWriter, r *http.Request, action string) (auth.Result, bool) {
	result := s.gate.Authorize(r)
	if !result.Allowed {
		s.log.Info("admin request denied",
			logger.String("action", action),
			logger.String("identity", result.Identity),
			logger.String("reason", result.Reason),
			logger.String("request_id", requestIDFrom(r.Context())),
		)
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
		return result, false
	}
	return result, true
}

func (s *HTTPServer) handleContentWrite(w http.ResponseWriter, r *http.Request, category, id string) {
	switch r.Method {
	case http.MethodPost, http.MethodDelete:
	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	result, ok := s.authorize(w, r, strings.ToLower(r.Method)+" content")
	if !ok {
		return
	}

	if r.Method == http.MethodDelete {
		if err := s.service.DeleteContent(r.Context(), category, id); err != nil {
			s.fail(w, err)
			return
		}
		s.log.Info("content deleted",
			logger.String("category", category),
			logger.String("id", id),
			logger.String("identity", result.Identity),
		)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	var item store.Item
	if err := decodeBody(r, &item); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if item == nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "body must be a JSON object", nil)
		return
	}
	if err := s.service.UpsertContent(r.Context(), category, id, item); err != nil {
		s.fail(w, err)
		return
	}
	s.log.Info("content saved",
		logger.String("category", category),
		logger.String("id", id),
		logger.String("identity", result.Identity),
	)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r, "upload"); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "No file provided", nil)
		return
	}
	defer file.Close()

	result, err := s.service.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		status, code, message, details := mapError(err)
		if status == http.StatusInternalServerError {
			message = "Upload failed"
		}
		s.log.Error("upload failed", logger.String("filename", header.Filename), logger.Error(err))
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleContact(w http.ResponseWriter, r *http.Request) {
	// An unreadable body is treated as an empty submission.
	var sub contact.Submission
	_ = decodeBody(r, &sub)

	if err := s.service.SubmitContact(r.Context(), clientIP(r), sub); err != nil {
		status, code, message, details := mapError(err)
		if status == http.StatusInternalServerError {
			s.log.Error("contact form error", logger.Error(err))
			message = "Failed to send message"
		}
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "q is required", nil)
		return
	}
	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer between 1 and 100", nil)
			return
		}
		limit = parsed
	}

	payload, err := s.service.Search(r.Context(), search.Query{
		Text:     q,
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Limit:    limit,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) fail(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", logger.String("code", code), logger.Error(err))
	}
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = util.NewID("")
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		fields := []logger.Field{
			logger.String("request_id", requestID),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", writer.status),
			logger.Duration("duration", time.Since(started)),
		}
		if writer.status >= http.StatusInternalServerError {
			s.log.Error("request", fields...)
			return
		}
		s.log.Info("request", fields...)
	})
}

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, "+auth.IdentityHeader)
	header.Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

// decodeBody decodes a body holding exactly one JSON value. Numbers stay
// json.Number so integers round-trip exactly through the store.
func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return fmt.Errorf("empty body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected data after JSON body")
	}
	return nil
}

// splitPath splits an escaped path and unescapes each segment, so ids may
// contain an encoded "/".
func splitPath(path string) ([]string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, nil
	}
	raw := strings.Split(trimmed, "/")
	parts := make([]string, len(raw))
	for i, segment := range raw {
		unescaped, err := url.PathUnescape(segment)
		if err != nil {
			return nil, err
		}
		parts[i] = unescaped
	}
	return parts, nil
}

// clientIP prefers the proxy supplied address headers. An empty result means
// the address is unknown.
func clientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	return ""
}
