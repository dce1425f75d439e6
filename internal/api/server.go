// Package api provides the local HTTP API and status stream.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/config"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/controller"
)

// Controller is the part of the translation loop exposed over the API
type Controller interface {
	Status() controller.Status
	Connect() error
	Disconnect() error
	SetPaused(paused bool) error
}

// Profiles manages the stored and active profiles
type Profiles interface {
	Current() *config.Profile
	ListProfiles() ([]string, error)
	SaveProfile(p *config.Profile) error
	SwitchToProfile(name string) error
}

// Server provides HTTP API for status and remote control
type Server struct {
	ctl      Controller
	profiles Profiles
	token    string
	logger   *zap.SugaredLogger
	wsMgr    *WSManager
}

// NewServer creates a new API server. An empty token disables authentication.
func NewServer(ctl Controller, profiles Profiles, token string, logger *zap.SugaredLogger) *Server {
	s := &Server{
		ctl:      ctl,
		profiles: profiles,
		token:    token,
		logger:   logger,
	}
	s.wsMgr = newWSManager(s)
	go s.wsMgr.start()
	return s
}

// Handler returns the routed handler with auth and panic recovery applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/profile", s.handleProfile)
	mux.HandleFunc("/api/profiles", s.handleProfiles)
	mux.HandleFunc("/api/profiles/activate", s.handleActivate)
	mux.HandleFunc("/api/connect", s.handleConnect)
	mux.HandleFunc("/api/disconnect", s.handleDisconnect)
	mux.HandleFunc("/api/pause", s.handlePause)
	mux.HandleFunc("/ws", s.wsMgr.handleWebSocket)
	return s.authMiddleware(s.recoverMiddleware(mux))
}

// Start serves the API on localhost:port until ctx is done
func (s *Server) Start(ctx context.Context, port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		s.logger.Errorf("API: Failed to listen on %s: %v", addr, err)
		return err
	}
	s.logger.Infof("API: Listening on %s", addr)

	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
		s.Close()
	}()

	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		s.logger.Errorf("API: Server stopped: %v", err)
		return err
	}
	return nil
}

// Close disconnects every WebSocket client
func (s *Server) Close() {
	s.wsMgr.stop()
}

// BroadcastStatus sends st to every WebSocket client
func (s *Server) BroadcastStatus(st controller.Status) {
	s.wsMgr.BroadcastStatus(st)
}

// BroadcastProfile notifies WebSocket clients of a profile switch
func (s *Server) BroadcastProfile(name string) {
	s.wsMgr.BroadcastProfile(name)
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Errorf("API: Recovered panic in %s %s: %v", r.Method, r.URL.Path, err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// localOrigin reports whether r has no Origin header or a loopback one.
// Browsers send the page origin, so pages from other sites are refused.
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// authMiddleware rejects foreign origins and checks the API token if configured
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debugf("API: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

		if !localOrigin(r) {
			s.logger.Warnf("API: Rejected %s %s from origin %s", r.Method, r.URL.Path, r.Header.Get("Origin"))
			writeError(w, http.StatusForbidden, errors.New("origin not allowed"))
			return
		}

		// Skip auth for health check
		if r.URL.Path == "/health" || s.token == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Browsers cannot set headers on a WebSocket upgrade
		authorized := r.Header.Get("Authorization") == "Bearer "+s.token ||
			(r.URL.Path == "/ws" && r.URL.Query().Get("token") == s.token)
		if !authorized {
			writeError(w, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.ctl.Status())
}

// handleProfile handles GET (read) and PUT (replace) of the active profile.
// A PUT naming another profile saves it and switches to it.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.profiles.Current())

	case http.MethodPut:
		var p config.Profile
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", config.ErrInvalidProfile, err))
			return
		}
		active := s.profiles.Current().Name
		if p.Name == "" {
			p.Name = active
		}
		if err := s.profiles.SaveProfile(&p); err != nil {
			s.logger.Warnf("API: Rejected profile %s: %v", p.Name, err)
			writeError(w, statusFor(err), err)
			return
		}
		if p.Name != active {
			if err := s.profiles.SwitchToProfile(p.Name); err != nil {
				writeError(w, statusFor(err), err)
				return
			}
		}
		s.logger.Infof("API: Profile %s updated from %s", p.Name, r.RemoteAddr)
		writeJSON(w, http.StatusOK, s.profiles.Current())

	default:
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

// handleProfiles handles GET /api/profiles
func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	names, err := s.profiles.ListProfiles()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active":   s.profiles.Current().Name,
		"profiles": names,
	})
}

// handleActivate handles POST /api/profiles/activate?name=<profile>
func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing name parameter"))
		return
	}
	s.logger.Infof("API: Switching to profile '%s' (request from %s)", name, r.RemoteAddr)
	if err := s.profiles.SwitchToProfile(name); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "profile": name})
}

// handleConnect handles POST /api/connect
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.ctl.Connect(); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctl.Status())
}

// handleDisconnect handles POST /api/disconnect
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.ctl.Disconnect(); err != nil {
		// the device is closed either way; report keys that failed to release
		s.logger.Warnf("API: Disconnect: %v", err)
	}
	writeJSON(w, http.StatusOK, s.ctl.Status())
}

// handlePause handles POST /api/pause?paused=true|false
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	paused, err := strconv.ParseBool(r.URL.Query().Get("paused"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("paused must be true or false"))
		return
	}
	if err := s.ctl.SetPaused(paused); err != nil {
		s.logger.Warnf("API: Pause: %v", err)
	}
	writeJSON(w, http.StatusOK, s.ctl.Status())
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, config.ErrInvalidProfile):
		return http.StatusBadRequest
	case errors.Is(err, config.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, config.ErrProfileExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
