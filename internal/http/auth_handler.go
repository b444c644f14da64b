package http

import (
	"encoding/json"
	"net/http"
)

type LoginRequestDTO struct {
	Name string `json:"name"`
}

type LoginResponseDTO struct {
	Name string `json:"name"`
}

// Login is a mock: no credentials, no tokens, just a display name remembered
// in a cookie so the UI can greet the user.
func Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "missing_name", "name is required")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "display_name",
		Value:    req.Name,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, LoginResponseDTO{Name: req.Name})
}
