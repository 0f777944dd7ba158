package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/xelth-com/eckdepotgo/internal/buildinfo"
	"github.com/xelth-com/eckdepotgo/internal/config"
	"github.com/xelth-com/eckdepotgo/internal/middleware"
	"github.com/xelth-com/eckdepotgo/internal/websocket"
	"github.com/xelth-com/eckdepotgo/internal/yard"
)

// Router wraps the mux router and the yard services
type Router struct {
	*mux.Router
	cfg       *config.Config
	registry  yard.Registry
	positions *yard.PositionService
	buffer    *yard.BufferService
	lifecycle *yard.LifecycleService
	leases    *yard.LeaseManager
	hub       *websocket.Hub
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(cfg *config.Config, registry yard.Registry, hub *websocket.Hub, leases *yard.LeaseManager) *Router {
	r := &Router{
		Router:    mux.NewRouter(),
		cfg:       cfg,
		registry:  registry,
		positions: yard.NewPositionService(registry),
		buffer:    yard.NewBufferService(registry),
		lifecycle: yard.NewLifecycleService(registry),
		leases:    leases,
		hub:       hub,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	r.HandleFunc("/auth/token", r.issueToken).Methods("POST")

	// Yard event stream
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		websocket.ServeWS(hub, w, req)
	})

	// Gate-in / gate-out routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/yards", r.listYards).Methods("GET")
	api.HandleFunc("/yards/{yardId}/positions", r.getAvailablePositions).Methods("GET")
	api.HandleFunc("/yards/{yardId}/buffer", r.routeDamagedContainer).Methods("POST")
	api.HandleFunc("/yards/{yardId}/buffer/stats", r.getBufferZoneStats).Methods("GET")
	api.HandleFunc("/yards/{yardId}/summary", r.getStackStatusSummary).Methods("GET")
	api.HandleFunc("/yards/{yardId}/stacks", r.listStacks).Methods("GET")
	api.HandleFunc("/stacks/{id}/check-position", r.checkPositionAvailability).Methods("POST")
	api.HandleFunc("/stacks/{id}/vacate", r.vacatePosition).Methods("POST")
	api.HandleFunc("/stacks/{id}/labels.pdf", r.printPositionLabels).Methods("GET")
	api.HandleFunc("/leases", r.acquireLease).Methods("POST")
	api.HandleFunc("/leases/{id}/commit", r.commitLease).Methods("POST")
	api.HandleFunc("/leases/{id}", r.releaseLease).Methods("DELETE")

	// Administrative lifecycle routes (protected)
	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(middleware.Auth(cfg.JWTSecret))
	admin.HandleFunc("/yards", r.createYard).Methods("POST")
	admin.HandleFunc("/stacks", r.createStack).Methods("POST")
	admin.HandleFunc("/stacks/recreate", r.recreateStack).Methods("POST")
	admin.HandleFunc("/stacks/{id}", r.softDeleteStack).Methods("DELETE")
	admin.HandleFunc("/stacks/{id}/reactivate", r.reactivateStack).Methods("POST")
	admin.HandleFunc("/stacks/{id}/permanent", r.permanentlyDeleteStack).Methods("DELETE")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"server":  "depot",
		"started": buildinfo.StartTime,
		"commit":  buildinfo.CommitHash,
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondInternal masks registry faults from end users
func respondInternal(w http.ResponseWriter, op string, err error) {
	log.Printf("❌ %s: %v", op, err)
	respondError(w, http.StatusInternalServerError, "unexpected error")
}
