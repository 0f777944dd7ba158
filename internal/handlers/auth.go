package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/xelth-com/eckdepotgo/internal/utils"
)

type tokenRequest struct {
	OperatorID  string `json:"operator_id"`
	OperatorKey string `json:"operator_key"`
}

// issueToken exchanges the operator key for an admin JWT. Account and
// session management live outside this service; the key hash comes
// from deployment config.
func (r *Router) issueToken(w http.ResponseWriter, req *http.Request) {
	var body tokenRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	if r.cfg.AdminKeyHash == "" {
		respondError(w, http.StatusServiceUnavailable, "Admin access is not configured")
		return
	}
	if !utils.CheckOperatorKey(body.OperatorKey, r.cfg.AdminKeyHash) {
		respondError(w, http.StatusUnauthorized, "Invalid operator key")
		return
	}

	token, err := utils.GenerateToken(body.OperatorID, r.cfg.JWTSecret)
	if err != nil {
		respondInternal(w, "issue token", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}
