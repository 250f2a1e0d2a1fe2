// Package p2p implements the replica-to-replica and client-to-replica
// HTTP surface from spec.md §6, using github.com/go-chi/chi/v5 as the
// router. It is new code — the teacher's internal/rpc and
// internal/network packages were both unimplemented stubs — built in
// the idiom several other pack repos use for a chi-routed JSON API:
// small handler functions, a thin encode/decode helper pair, and status
// codes chosen per-handler rather than via a generic envelope.
package p2p

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"tracechain.io/replica/internal/ledger"
	"tracechain.io/replica/internal/replica"
)

// Server wraps a *replica.Node with the chi router spec.md §6 names.
type Server struct {
	node   *replica.Node
	log    *logrus.Logger
	router chi.Router
}

// NewServer builds the router and binds every handler.
func NewServer(node *replica.Node, log *logrus.Logger) *Server {
	s := &Server{node: node, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/status", s.handleStatus)
	r.Post("/add-transaction", s.handleAddTransaction)
	r.Post("/receive-transaction", s.handleReceiveTransaction)
	r.Post("/mine", s.handleMine)
	r.Post("/receive-block", s.handleReceiveBlock)
	r.Get("/chain", s.handleChain)
	r.Get("/mempool", s.handleMempool)
	r.Get("/history/{batch_id}", s.handleHistory)
	r.Get("/verify/{batch_id}", s.handleVerify)
	r.Post("/nodes/register", s.handleRegisterNode)
	r.Get("/nodes", s.handleNodes)
	r.Post("/sync", s.handleSync)
	r.Post("/actors/register", s.handleRegisterActor)
	r.Get("/actors", s.handleActors)

	s.router = r
	return s
}

// ServeHTTP satisfies http.Handler, delegating to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Debug("p2p: handling request")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]string{"error": reason})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.node.Status(r.Context()))
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var tx ledger.Transaction
	if err := decodeJSON(r, &tx); err != nil {
		writeError(w, http.StatusBadRequest, "malformed transaction body")
		return
	}
	result := s.node.AddTransaction(r.Context(), tx)
	if result.Status == http.StatusCreated {
		writeJSON(w, result.Status, tx)
		return
	}
	writeError(w, result.Status, result.Reason)
}

func (s *Server) handleReceiveTransaction(w http.ResponseWriter, r *http.Request) {
	var tx ledger.Transaction
	if err := decodeJSON(r, &tx); err != nil {
		writeError(w, http.StatusBadRequest, "malformed transaction body")
		return
	}
	result := s.node.ReceiveTransaction(r.Context(), tx)
	writeJSON(w, result.Status, nil)
}

func (s *Server) handleMine(w http.ResponseWriter, r *http.Request) {
	result := s.node.Mine(r.Context())
	if result.Status == http.StatusCreated {
		writeJSON(w, result.Status, result.Block)
		return
	}
	writeError(w, result.Status, result.Reason)
}

func (s *Server) handleReceiveBlock(w http.ResponseWriter, r *http.Request) {
	var block ledger.Block
	if err := decodeJSON(r, &block); err != nil {
		writeError(w, http.StatusBadRequest, "malformed block body")
		return
	}
	result := s.node.ReceiveBlock(&block)
	if result.Status == http.StatusOK {
		writeJSON(w, result.Status, nil)
		return
	}
	writeError(w, result.Status, result.Reason)
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"blocks":   s.node.ChainBlocks(),
		"is_valid": s.node.ChainValid(),
	})
}

func (s *Server) handleMempool(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": s.node.MempoolSnapshot(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batch_id")
	history := s.node.History(batchID)
	if len(history) == 0 {
		writeError(w, http.StatusNotFound, "no history for batch "+batchID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"batch_id": batchID, "history": history})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batch_id")
	chainValid, history := s.node.VerifyBatch(batchID)
	writeJSON(w, http.StatusOK, map[string]any{
		"batch_id":    batchID,
		"chain_valid": chainValid,
		"exists":      len(history) > 0,
		"history":     history,
	})
}

type registerNodeRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleRegisterNode(w http.ResponseWriter, r *http.Request) {
	var req registerNodeRequest
	if err := decodeJSON(r, &req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "missing peer url")
		return
	}
	if err := s.node.RegisterPeer(req.URL); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": req.URL})
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"peers": s.node.Peers()})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	s.node.Sync(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "sync cycle complete"})
}

type registerActorRequest struct {
	Actor string `json:"actor"`
}

func (s *Server) handleRegisterActor(w http.ResponseWriter, r *http.Request) {
	var req registerActorRequest
	if err := decodeJSON(r, &req); err != nil || req.Actor == "" {
		writeError(w, http.StatusBadRequest, "missing actor name")
		return
	}
	registration, err := s.node.RegisterActor(req.Actor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"actor":              req.Actor,
		"public_key":         registration.PublicKeyPEM,
		"registration_token": registration.RegistrationToken,
	})
}

func (s *Server) handleActors(w http.ResponseWriter, r *http.Request) {
	actors, err := s.node.Actors()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"actors": actors})
}
