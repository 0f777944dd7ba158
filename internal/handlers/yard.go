package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/xelth-com/eckdepotgo/internal/models"
	"github.com/xelth-com/eckdepotgo/internal/services/printer"
	"github.com/xelth-com/eckdepotgo/internal/websocket"
)

func parseSize(raw string) (models.ContainerSize, error) {
	switch raw {
	case "", string(models.Size20ft):
		return models.Size20ft, nil
	case string(models.Size40ft):
		return models.Size40ft, nil
	default:
		return "", fmt.Errorf("unknown container size %q", raw)
	}
}

func parseQuantity(raw string) (int, error) {
	if raw == "" {
		return 1, nil
	}
	q, err := strconv.Atoi(raw)
	if err != nil || q < 1 || q > 2 {
		return 0, fmt.Errorf("quantity must be 1 or 2")
	}
	return q, nil
}

// listYards returns all yards
func (r *Router) listYards(w http.ResponseWriter, req *http.Request) {
	yards, err := r.registry.ListYards(req.Context())
	if err != nil {
		respondInternal(w, "list yards", err)
		return
	}
	respondJSON(w, http.StatusOK, yards)
}

// getAvailablePositions answers a gate-in candidate query
func (r *Router) getAvailablePositions(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	q := req.URL.Query()

	size, err := parseSize(q.Get("size"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	quantity, err := parseQuantity(q.Get("quantity"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	candidates, err := r.positions.GetAvailablePositions(req.Context(), vars["yardId"], size, quantity, q.Get("clientCode"))
	if err != nil {
		respondInternal(w, "get available positions", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(candidates),
		"positions": candidates,
	})
}

type checkPositionRequest struct {
	Position   string `json:"position"`
	Size       string `json:"size"`
	Quantity   int    `json:"quantity"`
	ClientCode string `json:"client_code,omitempty"`
}

// checkPositionAvailability re-validates a suggestion against live data
func (r *Router) checkPositionAvailability(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	var body checkPositionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	size, err := parseSize(body.Size)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Quantity == 0 {
		body.Quantity = 1
	}

	avail, err := r.positions.CheckPositionAvailability(req.Context(), vars["id"], body.Position, size, body.Quantity, body.ClientCode)
	if err != nil {
		respondInternal(w, "check position availability", err)
		return
	}
	respondJSON(w, http.StatusOK, avail)
}

type bufferRequest struct {
	Size       string `json:"size"`
	DamageType string `json:"damage_type"`
}

// routeDamagedContainer diverts a flagged container to its quarantine
// stack instead of the compatibility filter
func (r *Router) routeDamagedContainer(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	var body bufferRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	size, err := parseSize(body.Size)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.DamageType == "" {
		respondError(w, http.StatusBadRequest, "damage_type is required")
		return
	}

	assignment, err := r.buffer.RouteDamagedContainer(req.Context(), vars["yardId"], size, models.DamageType(body.DamageType))
	if err != nil {
		respondInternal(w, "route damaged container", err)
		return
	}

	r.hub.Broadcast(websocket.EventBufferAllocated, vars["yardId"], assignment)
	respondJSON(w, http.StatusOK, assignment)
}

// getBufferZoneStats aggregates over the yard's quarantine stacks
func (r *Router) getBufferZoneStats(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	stats, err := r.buffer.GetBufferZoneStats(req.Context(), vars["yardId"])
	if err != nil {
		respondInternal(w, "buffer zone stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// getStackStatusSummary is a pure read over the yard
func (r *Router) getStackStatusSummary(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	summary, err := r.lifecycle.GetStackStatusSummary(req.Context(), vars["yardId"])
	if err != nil {
		respondInternal(w, "stack status summary", err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// listStacks lists a yard's stacks, optionally filtered by state
func (r *Router) listStacks(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	ctx := req.Context()

	var (
		stacks []models.Stack
		err    error
	)
	switch req.URL.Query().Get("state") {
	case "active":
		stacks, err = r.lifecycle.GetActiveStacks(ctx, vars["yardId"])
	case "inactive":
		stacks, err = r.lifecycle.GetInactiveStacks(ctx, vars["yardId"])
	case "":
		stacks, err = r.registry.ListStacksByYard(ctx, vars["yardId"])
	default:
		respondError(w, http.StatusBadRequest, "state must be active or inactive")
		return
	}
	if err != nil {
		respondInternal(w, "list stacks", err)
		return
	}
	respondJSON(w, http.StatusOK, stacks)
}

type leaseRequest struct {
	StackID    string `json:"stack_id"`
	Position   string `json:"position"`
	Size       string `json:"size"`
	Quantity   int    `json:"quantity"`
	ClientCode string `json:"client_code,omitempty"`
}

// acquireLease takes a time-bounded hold on a suggested position
func (r *Router) acquireLease(w http.ResponseWriter, req *http.Request) {
	var body leaseRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	size, err := parseSize(body.Size)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Quantity == 0 {
		body.Quantity = 1
	}

	lease, avail, err := r.leases.Acquire(req.Context(), body.StackID, body.Position, size, body.Quantity, body.ClientCode)
	if err != nil {
		respondInternal(w, "acquire lease", err)
		return
	}
	if !avail.IsAvailable {
		respondJSON(w, http.StatusConflict, avail)
		return
	}
	respondJSON(w, http.StatusCreated, lease)
}

// commitLease converts a lease into occupancy
func (r *Router) commitLease(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	result, err := r.leases.Commit(req.Context(), vars["id"])
	if err != nil {
		respondInternal(w, "commit lease", err)
		return
	}
	if result.Success {
		r.hub.Broadcast(websocket.EventPositionCommitted, "", result)
	}
	respondJSON(w, http.StatusOK, result)
}

// releaseLease abandons a hold
func (r *Router) releaseLease(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	released := r.leases.Release(vars["id"])
	respondJSON(w, http.StatusOK, map[string]bool{"released": released})
}

type vacateRequest struct {
	Position string `json:"position"`
}

// vacatePosition is the gate-out path
func (r *Router) vacatePosition(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	var body vacateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	result, err := r.leases.Vacate(req.Context(), vars["id"], body.Position)
	if err != nil {
		respondInternal(w, "vacate position", err)
		return
	}
	if result.Success {
		r.hub.Broadcast(websocket.EventPositionVacated, "", result)
	}
	respondJSON(w, http.StatusOK, result)
}

// printPositionLabels renders the stack's QR label sheet
func (r *Router) printPositionLabels(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	ctx := req.Context()

	stack, err := r.registry.GetStack(ctx, vars["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Stack not found")
		return
	}
	locations, err := r.registry.ListLocations(ctx, stack.ID)
	if err != nil {
		respondInternal(w, "list locations", err)
		return
	}

	yardCode := stack.YardID
	if y, err := r.registry.GetYard(ctx, stack.YardID); err == nil {
		yardCode = y.Code
	}

	pdf, err := printer.GeneratePositionLabelsPDF(yardCode, stack, locations, printer.DefaultLabelConfig())
	if err != nil {
		respondInternal(w, "generate labels", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=stack-S%02d-labels.pdf", stack.StackNumber))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
