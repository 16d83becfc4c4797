package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/energy-optimizer/pkg/constants"
	"github.com/iwvelando/energy-optimizer/pkg/optimization"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFiles embed.FS

// DefaultsFunc returns the parameters served by the defaults endpoint. It is
// called per request so reloaded configuration takes effect immediately.
type DefaultsFunc func() optimization.Parameters

type handler struct {
	logger         *zap.Logger
	maxRequestSize int64
	version        string
	defaults       DefaultsFunc
	proxy          *httputil.ReverseProxy
}

// NewHandler constructs the HTTP handler that serves the web form, the
// defaults endpoint, and forwards optimization requests to upstream.
func NewHandler(logger *zap.Logger, upstream string, maxRequestSize int64, version string, defaults DefaultsFunc) (http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxRequestSize <= 0 {
		maxRequestSize = constants.DefaultMaxRequestSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	if defaults == nil {
		defaults = optimization.DefaultParameters
	}

	target, err := url.Parse(strings.TrimSpace(upstream))
	if err != nil {
		return nil, fmt.Errorf("invalid upstream %q: %w", upstream, err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("invalid upstream %q: scheme must be http or https", upstream)
	}

	h := &handler{
		logger:         logger,
		maxRequestSize: maxRequestSize,
		version:        trimmedVersion,
		defaults:       defaults,
	}
	h.proxy = h.newProxy(target)

	mux := http.NewServeMux()

	// Optimization requests are forwarded upstream
	mux.HandleFunc(constants.OptimizePath, h.handleOptimize)

	// Form defaults
	mux.HandleFunc(constants.DefaultsPath, h.handleDefaults)

	// Version endpoint for UI metadata
	mux.HandleFunc(constants.VersionPath, h.handleVersion)

	// Static assets (web UI)
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare embedded static files: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(sub)))

	return mux, nil
}

func (h *handler) newProxy(target *url.URL) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(target)
			r.SetXForwarded()
			if r.In.Header.Get(constants.RequestIDHeader) == "" {
				r.Out.Header.Set(constants.RequestIDHeader, uuid.NewString())
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			h.logger.Info("optimization forwarded",
				zap.String("op", "server.handleOptimize"),
				zap.Int("status", resp.StatusCode),
				zap.String("requestId", resp.Request.Header.Get(constants.RequestIDHeader)),
			)
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			h.respondErrorWithOp(w, http.StatusBadGateway,
				fmt.Sprintf("upstream request failed: %v", err), "server.handleOptimize")
		},
	}
}

func (h *handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxRequestSize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxRequestSize), "server.handleOptimize")
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), "server.handleOptimize")
		return
	}

	var payload optimization.OptimizationRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), "server.handleOptimize")
		return
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))
	h.proxy.ServeHTTP(w, r)

	h.logger.Debug("optimization request complete",
		zap.String("op", "server.handleOptimize"),
		zap.Int("solarSizes", len(payload.SolarInstallationSizes)),
		zap.Duration("duration", time.Since(start)),
	)
}

func (h *handler) handleDefaults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, h.defaults())
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
