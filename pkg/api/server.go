// Package api exposes the admin and pairing HTTP surface.
//
// The claim endpoint is the only one guests reach (through the captive
// portal); it pairs the caller's own source address, so a guest can never
// pair an address other than the one it queries from. Everything else is
// operator tooling and belongs behind the management network.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/guestcast/guestcast-go/pkg/pairing"
	"github.com/guestcast/guestcast-go/pkg/registry"
)

// Config configures the HTTP API server.
type Config struct {
	// Address to listen on (e.g., "127.0.0.1:8090").
	Address string

	// Pairings is the pairing store (required).
	Pairings pairing.WritableStore

	// Devices is the device registry (required).
	Devices registry.WritableRegistry

	// Tokens redeems pairing tokens (required).
	Tokens *pairing.TokenIssuer

	// PairingLifetime is granted to pairings created directly via the
	// admin endpoint. Zero means pairing.DefaultLifetime.
	PairingLifetime time.Duration
}

// Server serves the pairing and admin HTTP API.
type Server struct {
	config Config
	mux    *http.ServeMux
	server *http.Server
}

// NewServer creates the API server.
func NewServer(config Config) (*Server, error) {
	if config.Pairings == nil {
		return nil, fmt.Errorf("pairing store is required")
	}
	if config.Devices == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if config.Tokens == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	if config.PairingLifetime <= 0 {
		config.PairingLifetime = pairing.DefaultLifetime
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()

	s.server = &http.Server{
		Addr:    config.Address,
		Handler: s.mux,
	}
	return s, nil
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/api/v1/health", s.handleHealth)

	// Guest-facing
	s.mux.HandleFunc("/api/v1/claim", s.handleClaim)

	// Operator-facing
	s.mux.HandleFunc("/api/v1/tokens", s.handleIssueToken)
	s.mux.HandleFunc("/api/v1/pairings", s.handlePairings)
	s.mux.HandleFunc("/api/v1/pairings/", s.handlePairingByAddress)
	s.mux.HandleFunc("/api/v1/devices", s.handleDevices)
	s.mux.HandleFunc("/api/v1/devices/", s.handleDeviceRoom)
}

// Start begins serving. Blocks until the listener fails or Stop is called.
func (s *Server) Start() error {
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the server down, finishing in-flight requests.
func (s *Server) Stop() error {
	return s.server.Close()
}

// Handler returns the route handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// claimRequest is the guest-facing pairing claim.
type claimRequest struct {
	Token string `json:"token"`
}

// handleClaim redeems a token for the calling guest's address.
func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	guestAddr, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot determine caller address")
		return
	}

	record, err := s.config.Tokens.Claim(r.Context(), req.Token, guestAddr)
	switch {
	case errors.Is(err, pairing.ErrTokenNotFound), errors.Is(err, pairing.ErrTokenExpired):
		// One response for both: a guessing guest learns nothing about
		// whether a token ever existed.
		writeError(w, http.StatusForbidden, "invalid or expired token")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "pairing failed")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// tokenRequest is the operator token issue request.
type tokenRequest struct {
	Room     string `json:"room"`
	Lifetime string `json:"lifetime,omitempty"`
}

// tokenResponse carries the issued token and its QR payload.
type tokenResponse struct {
	Token     string    `json:"token"`
	Room      string    `json:"room"`
	QRPayload string    `json:"qrPayload"`
	IssuedAt  time.Time `json:"issuedAt"`
}

func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Room == "" {
		writeError(w, http.StatusBadRequest, "room is required")
		return
	}

	lifetime := s.config.PairingLifetime
	if req.Lifetime != "" {
		parsed, err := time.ParseDuration(req.Lifetime)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid lifetime")
			return
		}
		lifetime = parsed
	}

	token := s.config.Tokens.Issue(req.Room, lifetime)
	writeJSON(w, http.StatusCreated, tokenResponse{
		Token:     token.Value,
		Room:      token.Room,
		QRPayload: pairing.FormatQRPayload(token),
		IssuedAt:  token.IssuedAt,
	})
}

// pairRequest is the operator direct-pairing request.
type pairRequest struct {
	GuestAddress string `json:"guestAddress"`
	Room         string `json:"room"`
	Lifetime     string `json:"lifetime,omitempty"`
}

func (s *Server) handlePairings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		records, err := s.config.Pairings.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "store unavailable")
			return
		}
		if records == nil {
			records = []*pairing.Record{}
		}
		writeJSON(w, http.StatusOK, records)

	case http.MethodPost:
		var req pairRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GuestAddress == "" || req.Room == "" {
			writeError(w, http.StatusBadRequest, "guestAddress and room are required")
			return
		}
		if net.ParseIP(req.GuestAddress) == nil {
			writeError(w, http.StatusBadRequest, "guestAddress must be an IP address")
			return
		}

		lifetime := s.config.PairingLifetime
		if req.Lifetime != "" {
			parsed, err := time.ParseDuration(req.Lifetime)
			if err != nil || parsed <= 0 {
				writeError(w, http.StatusBadRequest, "invalid lifetime")
				return
			}
			lifetime = parsed
		}

		now := time.Now()
		record := &pairing.Record{
			GuestAddress: req.GuestAddress,
			Room:         req.Room,
			PairedAt:     now,
			ExpiresAt:    now.Add(lifetime),
		}
		if err := s.config.Pairings.Put(r.Context(), record); err != nil {
			writeError(w, http.StatusInternalServerError, "store unavailable")
			return
		}
		writeJSON(w, http.StatusCreated, record)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handlePairingByAddress serves /api/v1/pairings/:address.
func (s *Server) handlePairingByAddress(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Path[len("/api/v1/pairings/"):]
	if address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		record, err := s.config.Pairings.Lookup(r.Context(), address)
		switch {
		case errors.Is(err, pairing.ErrNotFound):
			writeError(w, http.StatusNotFound, "no pairing for address")
		case err != nil:
			writeError(w, http.StatusInternalServerError, "store unavailable")
		default:
			writeJSON(w, http.StatusOK, record)
		}

	case http.MethodDelete:
		err := s.config.Pairings.Delete(r.Context(), address)
		switch {
		case errors.Is(err, pairing.ErrNotFound):
			writeError(w, http.StatusNotFound, "no pairing for address")
		case err != nil:
			writeError(w, http.StatusInternalServerError, "store unavailable")
		default:
			w.WriteHeader(http.StatusNoContent)
		}

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	devices, err := s.config.Devices.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "registry unavailable")
		return
	}
	if devices == nil {
		devices = []*registry.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

// roomRequest assigns (or clears) a device's room.
type roomRequest struct {
	Room string `json:"room"`
}

// handleDeviceRoom serves PUT /api/v1/devices/:uuid/room.
func (s *Server) handleDeviceRoom(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/devices/"
	const suffix = "/room"
	path := r.URL.Path
	if len(path) <= len(prefix)+len(suffix) || path[len(path)-len(suffix):] != suffix {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	uuid := path[len(prefix) : len(path)-len(suffix)]

	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	err := s.config.Devices.AssignRoom(r.Context(), uuid, req.Room)
	switch {
	case errors.Is(err, registry.ErrNotFound):
		writeError(w, http.StatusNotFound, "unknown device")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "registry unavailable")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
