package kbsstub

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ruteri/tee-keybroker-client/cryptoutils"
	"github.com/ruteri/tee-keybroker-client/evidence"
	"github.com/ruteri/tee-keybroker-client/interfaces"
	"github.com/ruteri/tee-keybroker-client/registration"
)

const (
	// SessionCookie carries the session opened on /kbs/v0/auth.
	SessionCookie = "kbs-session-id"

	// maxBodySize is the maximum allowed request body size (1MB).
	maxBodySize = 1024 * 1024

	nonceSize = 32
)

// RequestError provides structured error information for HTTP responses.
type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

type pendingSession struct {
	tee   interfaces.Tee
	nonce string
}

// Handler is an in-memory broker. It does not verify hardware evidence; with
// CheckBinding set it only checks that SNP reports carry the report data
// binding of the session nonce and key.
type Handler struct {
	secret       []byte
	checkBinding bool
	log          *slog.Logger

	resources    interfaces.ResourceStore
	resourcePath interfaces.ResourcePath

	mu            sync.Mutex
	sessions      map[string]*pendingSession
	registrations map[string][]json.RawMessage
}

// NewHandler creates a broker that releases secret to every attested session.
func NewHandler(secret []byte, checkBinding bool, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		secret:        secret,
		checkBinding:  checkBinding,
		log:           log,
		sessions:      make(map[string]*pendingSession),
		registrations: make(map[string][]json.RawMessage),
	}
}

// WithResources makes the broker release the resource at path from store
// instead of the static secret. Workload registrations carrying resources
// are written to the same path.
func (h *Handler) WithResources(store interfaces.ResourceStore, path interfaces.ResourcePath) *Handler {
	h.resources = store
	h.resourcePath = path
	return h
}

// RegisterRoutes mounts the broker endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post(registration.WorkloadEndpoint, h.handleRegister(registration.WorkloadEndpoint))
	r.Post(registration.ReferenceEndpoint, h.handleRegister(registration.ReferenceEndpoint))
	r.Post("/kbs/v0/auth", h.HandleAuth)
	r.Post("/kbs/v0/attest", h.HandleAttest)
}

// Registrations returns the payloads received on a registration endpoint.
func (h *Handler) Registrations(endpoint string) []json.RawMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]json.RawMessage(nil), h.registrations[endpoint]...)
}

func (h *Handler) handleRegister(endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(r)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if !json.Valid(body) {
			h.writeError(w, &RequestError{StatusCode: http.StatusBadRequest, Err: errors.New("invalid registration payload")})
			return
		}

		if endpoint == registration.WorkloadEndpoint && h.resources != nil {
			var workload registration.PolicyRegistration
			if err := json.Unmarshal(body, &workload); err != nil {
				h.writeError(w, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("invalid workload registration: %w", err)})
				return
			}
			if workload.Resources != "" {
				if err := h.resources.Store(r.Context(), h.resourcePath, []byte(workload.Resources)); err != nil {
					h.writeError(w, err)
					return
				}
				h.log.Info("Stored workload resources", "resource", h.resourcePath.String(), "store", h.resources.Name())
			}
		}

		h.mu.Lock()
		h.registrations[endpoint] = append(h.registrations[endpoint], json.RawMessage(body))
		h.mu.Unlock()

		h.log.Info("Registered workload", "endpoint", endpoint)
		w.WriteHeader(http.StatusOK)
	}
}

// HandleAuth opens a session and answers with a fresh nonce.
func (h *Handler) HandleAuth(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req interfaces.Request
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("invalid request: %w", err)})
		return
	}
	if req.Tee != interfaces.TeeSNP && req.Tee != interfaces.TeeTDX {
		h.writeError(w, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("unsupported tee %q", req.Tee)})
		return
	}

	rawNonce := make([]byte, nonceSize)
	if _, err := rand.Read(rawNonce); err != nil {
		h.writeError(w, err)
		return
	}
	nonce := base64.RawURLEncoding.EncodeToString(rawNonce)

	id := uuid.NewString()
	h.mu.Lock()
	h.sessions[id] = &pendingSession{tee: req.Tee, nonce: nonce}
	h.mu.Unlock()

	h.log.Debug("Session opened", "session", id, "tee", req.Tee)
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: id, Path: "/kbs"})
	writeJSON(w, &interfaces.Challenge{Nonce: nonce, ExtraParams: ""})
}

// HandleAttest consumes the session and releases the secret as a JWE
// envelope wrapped to the attested key.
func (h *Handler) HandleAttest(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		h.writeError(w, &RequestError{StatusCode: http.StatusUnauthorized, Err: errors.New("no session")})
		return
	}

	h.mu.Lock()
	sess, ok := h.sessions[cookie.Value]
	delete(h.sessions, cookie.Value)
	h.mu.Unlock()
	if !ok {
		h.writeError(w, &RequestError{StatusCode: http.StatusUnauthorized, Err: errors.New("unknown session")})
		return
	}

	body, err := readBody(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var att interfaces.Attestation
	if err := json.Unmarshal(body, &att); err != nil {
		h.writeError(w, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("invalid attestation: %w", err)})
		return
	}

	pubKey, err := publicKey(&att.TeePubKey)
	if err != nil {
		h.writeError(w, &RequestError{StatusCode: http.StatusBadRequest, Err: err})
		return
	}

	if h.checkBinding && sess.tee == interfaces.TeeSNP {
		if err := checkSnpBinding(sess.nonce, &att); err != nil {
			h.writeError(w, &RequestError{StatusCode: http.StatusUnauthorized, Err: err})
			return
		}
	}

	secret, err := h.releasedSecret(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	envelope, err := cryptoutils.EncryptSecret(pubKey, secret)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("Secret released", "session", cookie.Value)
	writeJSON(w, envelope)
}

func (h *Handler) releasedSecret(r *http.Request) ([]byte, error) {
	if h.resources == nil {
		return h.secret, nil
	}

	secret, err := h.resources.Fetch(r.Context(), h.resourcePath)
	if errors.Is(err, interfaces.ErrResourceNotFound) {
		return nil, &RequestError{StatusCode: http.StatusNotFound, Err: fmt.Errorf("resource %s not found", h.resourcePath)}
	}
	if err != nil {
		return nil, &RequestError{StatusCode: http.StatusServiceUnavailable, Err: err}
	}
	return secret, nil
}

func publicKey(key *interfaces.TeePubKey) (*rsa.PublicKey, error) {
	if key.Kty != "RSA" || key.Alg != "RSA" {
		return nil, fmt.Errorf("unsupported key type %q/%q", key.Kty, key.Alg)
	}
	n, err := cryptoutils.DecodeKey(key.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}
	e, err := cryptoutils.DecodeKey(key.E)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}
	if !e.IsInt64() || e.Int64() < 3 || e.Int64() > 1<<31-1 {
		return nil, fmt.Errorf("invalid exponent %s", e)
	}
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

func checkSnpBinding(nonce string, att *interfaces.Attestation) error {
	var doc evidence.SnpAttestation
	if err := json.Unmarshal([]byte(att.TeeEvidence), &doc); err != nil {
		return fmt.Errorf("invalid snp evidence: %w", err)
	}

	rawReport, err := hex.DecodeString(doc.Report)
	if err != nil {
		return fmt.Errorf("invalid snp report encoding: %w", err)
	}

	var report evidence.SnpReport
	if err := report.UnmarshalBinary(rawReport); err != nil {
		return err
	}

	expected := cryptoutils.ReportData(nonce, att.TeePubKey.N, att.TeePubKey.E)
	if report.ReportData != expected {
		return fmt.Errorf("invalid report data %x, expected %x", report.ReportData, expected)
	}
	return nil
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("failed to read request body: %w", err)}
	}
	return body, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		status = reqErr.StatusCode
	}
	h.log.Error("Request failed", "status", status, "err", err)
	http.Error(w, err.Error(), status)
}
