package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Brawl345/supacreds/model"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/xid"
)

const maxRequestBody = 64 << 10

type (
	resolveRequest struct {
		ProjectID    *int64        `json:"projectId"`
		UserIdentity string        `json:"userIdentity"`
		Current      *model.Bundle `json:"current"`
		FallbackKey  string        `json:"fallbackKey"`
	}

	errorResponse struct {
		Error   string   `json:"error"`
		Missing []string `json:"missing,omitempty"`
		GUID    string   `json:"guid,omitempty"`
	}
)

func (s *Server) getCredentials(w http.ResponseWriter, _ *http.Request) {
	bundle, ok := s.credentials.Bundle()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no credentials stored"})
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (s *Server) clearCredentials(w http.ResponseWriter, r *http.Request) {
	s.credentials.Clear()
	log.Info().
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("Credentials cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resolveCredentials(w http.ResponseWriter, r *http.Request) {
	authToken, ok := bearerToken(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return
	}

	var req resolveRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	cfg := s.defaults
	cfg.AuthToken = authToken
	if req.ProjectID != nil {
		cfg.ProjectID = *req.ProjectID
	}
	if req.UserIdentity != "" {
		cfg.UserIdentity = req.UserIdentity
	}
	if req.FallbackKey != "" {
		cfg.FallbackKey = req.FallbackKey
	}
	if req.Current != nil {
		cfg.Current = req.Current
	}

	bundle, err := s.resolver.Resolve(r.Context(), cfg)
	if err != nil {
		var missing *model.MissingCredentialsError
		if errors.As(err, &missing) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
				Error:   "credentials unavailable",
				Missing: missing.Fields,
			})
			return
		}

		guid := xid.New().String()
		log.Err(err).
			Str("guid", guid).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Failed to resolve credentials")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", GUID: guid})
		return
	}

	s.credentials.Set(bundle)
	log.Info().
		Str("request_id", middleware.GetReqID(r.Context())).
		Int64("project_id", cfg.ProjectID).
		Msg("Credentials resolved and stored")
	writeJSON(w, http.StatusOK, bundle)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to write response")
	}
}
