package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sozercan/image-verdict/apimodels"
	"github.com/sozercan/image-verdict/internal/analyzer"
	"github.com/sozercan/image-verdict/internal/imagetype"
	"github.com/sozercan/image-verdict/internal/metrics"
)

const (
	formField = "file"

	msgNotImage    = "File must be an image"
	msgTooLarge    = "file too large"
	msgMissingFile = "file is required"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to Image Analysis API",
		"docs":    "/docs",
		"health":  "/health",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apimodels.HealthResponse{
		Status:    "healthy",
		Timestamp: timestamp(),
		Version:   Version,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	defer r.Body.Close()

	file, header, err := r.FormFile(formField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			s.reject(w, http.StatusRequestEntityTooLarge, msgTooLarge, "")
		default:
			s.reject(w, http.StatusBadRequest, msgMissingFile, err.Error())
		}
		return
	}
	defer file.Close()

	if !imagetype.IsImage(header.Header.Get("Content-Type")) {
		s.reject(w, http.StatusBadRequest, msgNotImage, "")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.reject(w, http.StatusBadRequest, "failed to read file", err.Error())
		return
	}

	contentType, ok := imagetype.Detect(data, header.Header.Get("Content-Type"))
	if !ok {
		s.reject(w, http.StatusBadRequest, msgNotImage, "")
		return
	}

	slog.Debug("Received analysis request", "filename", header.Filename, "content_type", contentType, "bytes", len(data))

	result, err := s.analyzer.Analyze(r.Context(), analyzer.Image{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		slog.Error("Analysis request failed", "error", err)
		metrics.AnalysesTotal.WithLabelValues("error").Inc()
		status := http.StatusInternalServerError
		if errors.Is(err, analyzer.ErrUpstream) {
			status = http.StatusBadGateway
		}
		writeError(w, status, fmt.Sprintf("Error processing image: %v", err), err.Error())
		return
	}

	metrics.AnalysesTotal.WithLabelValues("success").Inc()
	slog.Debug("Analysis request completed successfully", "id", result.ID)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) reject(w http.ResponseWriter, status int, message, detail string) {
	metrics.AnalysesTotal.WithLabelValues("rejected").Inc()
	writeError(w, status, message, detail)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, apimodels.ErrorResponse{
		Error:     message,
		Detail:    detail,
		Timestamp: timestamp(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
