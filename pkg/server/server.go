// Package server exposes contract extraction over HTTP. Each upload is saved
// to a temporary file that the extraction goroutine owns and removes once it
// finishes, whether the client is still waiting or not.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/coolbeans/ejar/pkg/contract"
	"github.com/coolbeans/ejar/pkg/document"
	"github.com/coolbeans/ejar/pkg/value"
)

// Extractor is the part of contract.Assembler the server needs.
type Extractor interface {
	ExtractFile(path, backend string, opts contract.Options) (*value.Object, string, error)
}

// Config holds the server settings.
type Config struct {
	RequestTimeout   time.Duration
	MaxUploadBytes   int64
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	GracefulShutdown time.Duration

	// RateLimit is requests per second per client IP on /extract; 0 disables
	RateLimit float64
	RateBurst int

	// Backend is passed to the extractor; auto picks by file extension
	Backend string

	// DatePolicy overrides the template's payment date policy when set
	DatePolicy string
}

// allowedExtensions lists the upload types accepted by POST /extract.
var allowedExtensions = map[string]bool{
	".pdf": true,
	".txt": true,
}

// Server is the HTTP front end.
type Server struct {
	extractor Extractor
	cfg       Config
	logger    zerolog.Logger
	router    *gin.Engine
}

// New returns a Server with its routes registered.
func New(extractor Extractor, cfg Config, logger zerolog.Logger) *Server {
	s := &Server{extractor: extractor, cfg: cfg, logger: logger}

	router := gin.New()
	router.Use(RequestID())
	router.Use(Recovery(logger))
	router.Use(RequestLogger(logger))

	router.GET("/health", s.health)
	if cfg.RateLimit > 0 {
		router.POST("/extract", RateLimit(cfg.RateLimit, cfg.RateBurst, logger), s.extract)
	} else {
		router.POST("/extract", s.extract)
	}

	s.router = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.GracefulShutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return <-errCh
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

type outcome struct {
	record *value.Object
	err    error
}

func (s *Server) extract(c *gin.Context) {
	if s.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			s.fail(c, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		s.fail(c, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		s.fail(c, http.StatusBadRequest, "only PDF and text files are allowed")
		return
	}

	path, err := saveTemp(file, ext)
	if err != nil {
		if tooLarge(err) {
			s.fail(c, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		s.logger.Error().Err(err).Str("request_id", GetRequestID(c)).Msg("saving upload")
		s.fail(c, http.StatusInternalServerError, "failed to store upload")
		return
	}

	opts := contract.Options{DatePolicy: s.cfg.DatePolicy}
	opts.Debug, _ = strconv.ParseBool(c.Query("debug"))

	done := make(chan outcome, 1)
	go s.run(path, opts, done)

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	select {
	case out := <-done:
		s.respond(c, header.Filename, out)
	case <-ctx.Done():
		s.logger.Warn().
			Str("request_id", GetRequestID(c)).
			Str("file", header.Filename).
			Dur("timeout", s.cfg.RequestTimeout).
			Msg("extraction timed out")
		s.fail(c, http.StatusGatewayTimeout, "extraction timed out")
	}
}

// run extracts path, removes it and only then reports on done. done must be
// buffered so run never blocks on a request that has already given up.
func (s *Server) run(path string, opts contract.Options, done chan<- outcome) {
	out := s.extractFile(path, opts)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn().Err(err).Str("path", path).Msg("removing upload")
	}
	done <- out
}

// extractFile runs the extractor. Errors carry the stack of this goroutine
// so the failure log can print it.
func (s *Server) extractFile(path string, opts contract.Options) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = outcome{err: pkgerrors.Errorf("extraction panicked: %v", r)}
		}
	}()
	rec, _, err := s.extractor.ExtractFile(path, s.cfg.Backend, opts)
	if err != nil {
		return outcome{err: pkgerrors.WithStack(err)}
	}
	return outcome{record: rec}
}

func (s *Server) respond(c *gin.Context, filename string, out outcome) {
	var readErr *document.ReadError
	switch {
	case errors.As(out.err, &readErr), errors.Is(out.err, contract.ErrNoTemplate):
		s.logger.Warn().Err(out.err).Str("request_id", GetRequestID(c)).Str("file", filename).Msg("document rejected")
		s.fail(c, http.StatusUnprocessableEntity, "could not read contract: "+out.err.Error())
		return
	case out.err != nil:
		s.logger.Error().Stack().Err(out.err).Str("request_id", GetRequestID(c)).Str("file", filename).Msg("extraction failed")
		s.fail(c, http.StatusInternalServerError, "extraction failed")
		return
	}

	raw, err := out.record.MarshalJSON()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "encoding result failed")
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (s *Server) fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":      msg,
		"request_id": GetRequestID(c),
	})
}

func saveTemp(r io.Reader, ext string) (string, error) {
	f, err := os.CreateTemp("", "ejar-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	// multipart parsing does not always keep the error chain
	return strings.Contains(err.Error(), "request body too large")
}
