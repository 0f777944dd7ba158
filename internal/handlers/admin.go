package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/xelth-com/eckdepotgo/internal/models"
	"github.com/xelth-com/eckdepotgo/internal/websocket"
	"github.com/xelth-com/eckdepotgo/internal/yard"
)

type createYardRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// createYard registers a new yard section
func (r *Router) createYard(w http.ResponseWriter, req *http.Request) {
	var body createYardRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if body.Code == "" {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}

	y := &models.Yard{Code: body.Code, Name: body.Name, IsActive: true}
	if err := r.registry.CreateYard(req.Context(), y); err != nil {
		respondInternal(w, "create yard", err)
		return
	}
	respondJSON(w, http.StatusCreated, y)
}

// createStack inserts a new stack plus its location grid
func (r *Router) createStack(w http.ResponseWriter, req *http.Request) {
	var params yard.CreateStackParams
	if err := json.NewDecoder(req.Body).Decode(&params); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if params.ContainerSize == "" {
		params.ContainerSize = models.Size20ft
	}

	stack, result, err := r.lifecycle.CreateStack(req.Context(), params)
	if err != nil {
		respondInternal(w, "create stack", err)
		return
	}
	if !result.Success {
		respondJSON(w, http.StatusConflict, result)
		return
	}

	r.hub.Broadcast(websocket.EventStackCreated, params.YardID, stack)
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"result": result,
		"stack":  stack,
	})
}

// recreateStack reactivates a soft-deleted stack with location
// recovery, or creates a fresh one
func (r *Router) recreateStack(w http.ResponseWriter, req *http.Request) {
	var params yard.CreateStackParams
	if err := json.NewDecoder(req.Body).Decode(&params); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if params.ContainerSize == "" {
		params.ContainerSize = models.Size20ft
	}

	result, err := r.lifecycle.RecreateStackWithLocationRecovery(req.Context(), params)
	if err != nil {
		respondInternal(w, "recreate stack", err)
		return
	}
	if !result.Success {
		respondJSON(w, http.StatusConflict, result)
		return
	}

	event := websocket.EventStackCreated
	if result.Recovered {
		event = websocket.EventStackReactivated
	}
	r.hub.Broadcast(event, params.YardID, result.Stack)
	respondJSON(w, http.StatusOK, result)
}

// softDeleteStack deactivates a stack, preserving its data
func (r *Router) softDeleteStack(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	result, err := r.lifecycle.SoftDeleteStack(req.Context(), vars["id"])
	if err != nil {
		respondInternal(w, "soft delete stack", err)
		return
	}
	if !result.Success {
		respondJSON(w, http.StatusConflict, result)
		return
	}

	r.hub.Broadcast(websocket.EventStackDeactivated, "", map[string]string{"stack_id": vars["id"]})
	respondJSON(w, http.StatusOK, result)
}

// reactivateStack brings a soft-deleted stack back
func (r *Router) reactivateStack(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	result, err := r.lifecycle.ReactivateStack(req.Context(), vars["id"])
	if err != nil {
		respondInternal(w, "reactivate stack", err)
		return
	}
	if !result.Success {
		respondJSON(w, http.StatusConflict, result)
		return
	}

	r.hub.Broadcast(websocket.EventStackReactivated, "", map[string]string{"stack_id": vars["id"]})
	respondJSON(w, http.StatusOK, result)
}

// permanentlyDeleteStack irreversibly removes an inactive, empty stack
func (r *Router) permanentlyDeleteStack(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	result, err := r.lifecycle.PermanentlyDeleteStack(req.Context(), vars["id"])
	if err != nil {
		respondInternal(w, "permanently delete stack", err)
		return
	}
	if !result.Success {
		respondJSON(w, http.StatusConflict, result)
		return
	}

	r.hub.Broadcast(websocket.EventStackDeleted, "", map[string]string{"stack_id": vars["id"]})
	respondJSON(w, http.StatusOK, result)
}
