package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/supermega-io/usermemory/internal/common"
	"github.com/supermega-io/usermemory/internal/server/auth"
	"github.com/supermega-io/usermemory/internal/server/models"
)

func (s *HTTPServer) handlePing(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// handleSessionStart resolves (or creates) the user, opens a session, and
// returns the bootstrap bundle: stats, preferences, and the tool's projects,
// together with a bearer token for the rest of the API.
func (s *HTTPServer) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req sessionStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.users.GetOrCreateUser(ctx, req.Email, req.Name, req.WorkspaceEmail)
	if err != nil {
		if errors.Is(err, common.ErrorMissingLookupKey) {
			respondError(w, http.StatusBadRequest, "email or workspace_email is required")
			return
		}
		s.logger.Error(ctx, "session start: resolving user", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	sessionID, err := s.sessions.CreateSession(ctx, user.ID, req.ToolID, req.State)
	if err != nil {
		s.logger.Error(ctx, "session start: creating session", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	stats, err := s.users.GetUserStats(ctx, user.ID)
	if err != nil {
		s.logger.Error(ctx, "session start: loading stats", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	prefs, err := s.users.GetPreferences(ctx, user.ID)
	if err != nil {
		s.logger.Error(ctx, "session start: loading preferences", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	projects, err := s.projects.GetProjects(ctx, user.ID, req.ToolID)
	if err != nil {
		s.logger.Error(ctx, "session start: loading projects", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenTTL)
	if err != nil {
		s.logger.Error(ctx, "session start: minting token", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, &sessionStartResponse{
		SessionID:   sessionID,
		AccessToken: token,
		User:        toStatsResponse(stats),
		Preferences: prefs,
		Projects:    toProjectResponses(projects),
	})
}

func (s *HTTPServer) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	session, err := s.sessions.GetSession(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		s.logger.Error(ctx, "getting session", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Foreign sessions look absent, not forbidden.
	if session.UserID != userID {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	respondJSON(w, http.StatusOK, toSessionResponse(session))
}

func (s *HTTPServer) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)
	id := r.PathValue("id")

	var req sessionUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := s.sessions.GetSession(ctx, id)
	if err == nil && session.UserID != userID {
		err = common.ErrorNotFound
	}
	if err == nil {
		err = s.sessions.UpdateSession(ctx, id, req.State)
	}
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		s.logger.Error(ctx, "updating session", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *HTTPServer) handleLogUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req usageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ToolID == "" || req.Action == "" {
		respondError(w, http.StatusBadRequest, "tool_id and action are required")
		return
	}
	if req.ProcessingTime < 0 {
		respondError(w, http.StatusBadRequest, "processing_time must be non-negative")
		return
	}

	record := &models.ToolUsage{
		UserID:         userIDFromContext(ctx),
		ToolID:         req.ToolID,
		Action:         req.Action,
		Input:          req.Input,
		Output:         req.Output,
		ProcessingTime: req.ProcessingTime,
		Success:        req.Success,
	}

	if err := s.sessions.LogToolUsage(ctx, record); err != nil {
		s.logger.Error(ctx, "logging usage", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"status": "OK"})
}

func (s *HTTPServer) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projects, err := s.projects.GetProjects(ctx, userIDFromContext(ctx), r.URL.Query().Get("tool_id"))
	if err != nil {
		s.logger.Error(ctx, "listing projects", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, toProjectResponses(projects))
}

func (s *HTTPServer) handleSaveProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req projectSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	project, err := s.projects.SaveProject(ctx, userIDFromContext(ctx), req.ToolID, req.Name, req.Data)
	if err != nil {
		s.logger.Error(ctx, "saving project", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusCreated, toProjectResponse(project))
}

func (s *HTTPServer) handleThumbnailUploadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	url, err := s.projects.GetThumbnailUploadURL(ctx, r.PathValue("id"), userIDFromContext(ctx))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		s.logger.Error(ctx, "presigning thumbnail upload", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"upload_url": url})
}

func (s *HTTPServer) handleThumbnailDownloadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	url, err := s.projects.GetThumbnailDownloadURL(ctx, r.PathValue("id"), userIDFromContext(ctx))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			respondError(w, http.StatusNotFound, "thumbnail not found")
			return
		}
		s.logger.Error(ctx, "presigning thumbnail download", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"download_url": url})
}

func (s *HTTPServer) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	prefs, err := s.users.GetPreferences(ctx, userIDFromContext(ctx))
	if err != nil {
		s.logger.Error(ctx, "listing preferences", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, prefs)
}

// handleSetPreference takes the raw JSON body as the preference value, so
// `"dark"` stores a string and `{"theme":"dark"}` stores a structured value.
func (s *HTTPServer) handleSetPreference(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := r.PathValue("key")

	var value any
	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.users.SetPreference(ctx, userIDFromContext(ctx), key, value); err != nil {
		s.logger.Error(ctx, "saving preference", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := s.users.GetUserStats(ctx, userIDFromContext(ctx))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		s.logger.Error(ctx, "loading stats", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, toStatsResponse(stats))
}
