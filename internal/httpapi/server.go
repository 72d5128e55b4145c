// Package httpapi exposes the transcriber over HTTP for clients that upload
// audio directly instead of going through the queue.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fmueller/voxworker/internal/dispatch"
	"github.com/fmueller/voxworker/internal/scratch"
)

const (
	DefaultMaxUploadBytes = 25 << 20

	welcomeMessage  = "Welcome to the voxworker transcription service"
	shutdownTimeout = 10 * time.Second
)

var uploadFields = []string{"file", "audio"}

type Options struct {
	Transcriber    dispatch.Transcriber
	TempDir        string
	MaxUploadBytes int64
	Logger         *zap.Logger
}

type Server struct {
	transcriber dispatch.Transcriber
	tempDir     string
	maxUpload   int64
	logger      *zap.Logger
	router      chi.Router
}

func New(opts Options) *Server {
	s := &Server{
		transcriber: opts.Transcriber,
		tempDir:     opts.TempDir,
		maxUpload:   opts.MaxUploadBytes,
		logger:      opts.Logger,
	}
	if s.maxUpload <= 0 {
		s.maxUpload = DefaultMaxUploadBytes
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.With(middleware.RequestSize(s.maxUpload)).Post("/transcribe", s.handleTranscribe)

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests. Transcriptions in progress are allowed to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": welcomeMessage})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	log := s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))

	if s.transcriber == nil {
		respondError(w, http.StatusServiceUnavailable, "transcription is not available")
		return
	}

	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		respondError(w, http.StatusBadRequest, "expected a multipart/form-data upload")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.Warn("failed to remove multipart spool files", zap.Error(err))
		}
	}()

	file, header, err := formFile(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing audio upload in form field \"file\"")
		return
	}
	defer file.Close()

	var text string
	err = scratch.WithFile(s.tempDir, "voxworker-upload-*"+uploadExt(header.Filename), file, func(path string) error {
		log.Debug("upload staged", zap.String("path", path), zap.Int64("bytes", header.Size))
		transcript, err := s.transcriber.Transcribe(r.Context(), path)
		if err != nil {
			return err
		}
		text = transcript
		return nil
	})
	if err != nil {
		log.Error("transcription request failed", zap.String("filename", header.Filename), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "transcription failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"text": text})
}

func formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	var lastErr error
	for _, field := range uploadFields {
		file, header, err := r.FormFile(field)
		if err == nil {
			return file, header, nil
		}
		lastErr = err
	}
	return nil, nil, lastErr
}

// uploadExt keeps a short alphanumeric extension from the client filename so
// the engine can pick a decoder. Anything else becomes .wav.
func uploadExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) < 2 || len(ext) > 6 {
		return ".wav"
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ".wav"
		}
	}
	return ext
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
