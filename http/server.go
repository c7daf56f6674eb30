// Package http serves the invoice API over chi. Handlers are thin: they
// decode, delegate to the gateway or the wallet synchronizer, and map domain
// error codes to HTTP statuses.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chainvoice/chainvoice-go/gateway"
	"github.com/chainvoice/chainvoice-go/qr"
	"github.com/chainvoice/chainvoice-go/wallet"
)

// Server holds the handler dependencies.
type Server struct {
	gateway *gateway.Gateway
	wallet  *wallet.Synchronizer
	logger  *slog.Logger

	qrSize  int
	qrLevel qr.Level
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithQRDefaults sets the default QR size and error-correction level for the
// invoice QR endpoint.
func WithQRDefaults(size int, level qr.Level) ServerOption {
	return func(s *Server) {
		if size > 0 {
			s.qrSize = size
		}
		if level != "" {
			s.qrLevel = level
		}
	}
}

// NewServer creates a Server over the gateway and wallet synchronizer.
func NewServer(gw *gateway.Gateway, sync *wallet.Synchronizer, opts ...ServerOption) *Server {
	s := &Server{
		gateway: gw,
		wallet:  sync,
		logger:  slog.Default(),
		qrSize:  qr.DefaultSize,
		qrLevel: qr.LevelMedium,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with the full endpoint set.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/networks", s.handleListNetworks)

	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", s.handleListInvoices)
		r.Post("/", s.handleCreateInvoice)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetInvoice)
			r.Post("/pay", s.handlePayInvoice)
			r.Get("/uri", s.handleInvoiceURI)
			r.Get("/qr", s.handleInvoiceQR)
		})
	})

	r.Route("/wallet", func(r chi.Router) {
		r.Get("/", s.handleWalletState)
		r.Post("/connect", s.handleWalletConnect)
		r.Post("/disconnect", s.handleWalletDisconnect)
		r.Post("/switch", s.handleWalletSwitch)
	})

	return r
}

// requestLogger logs one line per request with method, path, status, and
// duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"requestId", middleware.GetReqID(r.Context()),
		)
	})
}
