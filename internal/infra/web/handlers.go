package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ai-coding-tutor/internal/domain"
	"ai-coding-tutor/internal/domain/model"
	"ai-coding-tutor/internal/infra/logging"
)

// defaultUserID stands in until real authentication exists.
const defaultUserID = "default-user"

func resolveUserID(r *http.Request) string {
	if id := r.URL.Query().Get("userId"); id != "" {
		return id
	}
	return defaultUserID
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string             `json:"response"`
	Updates  *model.StateUpdate `json:"updates,omitempty"`
}

// handleChat runs one chat turn: read state, append the user message,
// orchestrate against the pre-append snapshot, append the assistant
// reply, then merge any suggested updates.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	userID := resolveUserID(r)
	ctx := logging.WithUserID(r.Context(), userID)
	log := logging.With(ctx, s.log)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	snapshot, err := s.stateUC.Get(ctx, userID)
	if err != nil {
		s.internalError(w, log, err)
		return
	}

	if _, err := s.stateUC.AppendMessage(ctx, userID, model.Message{Role: "user", Content: req.Message}); err != nil {
		s.internalError(w, log, err)
		return
	}

	result, err := s.tutorUC.Chat(ctx, req.Message, snapshot)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "Message is required")
			return
		}
		s.internalError(w, log, err)
		return
	}

	if _, err := s.stateUC.AppendMessage(ctx, userID, model.Message{Role: "assistant", Content: result.Response}); err != nil {
		s.internalError(w, log, err)
		return
	}

	resp := chatResponse{Response: result.Response}
	if !result.SuggestedUpdates.Empty() {
		if _, err := s.stateUC.Update(ctx, userID, result.SuggestedUpdates); err != nil {
			s.internalError(w, log, err)
			return
		}
		upd := result.SuggestedUpdates
		resp.Updates = &upd
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	userID := resolveUserID(r)
	ctx := logging.WithUserID(r.Context(), userID)

	state, err := s.stateUC.Get(ctx, userID)
	if err != nil {
		s.internalError(w, logging.With(ctx, s.log), err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleUpdateState(w http.ResponseWriter, r *http.Request) {
	userID := resolveUserID(r)
	ctx := logging.WithUserID(r.Context(), userID)

	var upd model.StateUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := s.stateUC.Update(ctx, userID, upd)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "Invalid state fields")
			return
		}
		s.internalError(w, logging.With(ctx, s.log), err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type conceptRequest struct {
	Concept string `json:"concept"`
	Action  string `json:"action"`
}

func (s *Server) handleConcept(w http.ResponseWriter, r *http.Request) {
	userID := resolveUserID(r)
	ctx := logging.WithUserID(r.Context(), userID)

	var req conceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Concept == "" {
		writeError(w, http.StatusBadRequest, "Concept is required")
		return
	}

	state, err := s.stateUC.ClassifyConcept(ctx, userID, req.Concept, model.ConceptAction(req.Action))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "Action must be master, struggle, or remove")
			return
		}
		s.internalError(w, logging.With(ctx, s.log), err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type practiceRequest struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
}

func (s *Server) handlePractice(w http.ResponseWriter, r *http.Request) {
	userID := resolveUserID(r)
	ctx := logging.WithUserID(r.Context(), userID)
	log := logging.With(ctx, s.log)

	var req practiceRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // all fields optional
	}

	state, err := s.stateUC.Get(ctx, userID)
	if err != nil {
		s.internalError(w, log, err)
		return
	}

	topic := firstNonEmpty(req.Topic, state.CurrentTopic, "general programming")
	difficulty := firstNonEmpty(req.Difficulty, string(state.SkillLevel), string(model.SkillBeginner))
	language := firstNonEmpty(state.CurrentLanguage, "Python")

	problem, err := s.tutorUC.GeneratePractice(ctx, topic, difficulty, language)
	if err != nil {
		s.upstreamError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"problem":    problem,
		"topic":      topic,
		"difficulty": difficulty,
		"language":   language,
	})
}

type reviewRequest struct {
	Code     string `json:"code"`
	Topic    string `json:"topic"`
	Language string `json:"language"`
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	userID := resolveUserID(r)
	ctx := logging.WithUserID(r.Context(), userID)
	log := logging.With(ctx, s.log)

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "Code is required")
		return
	}

	state, err := s.stateUC.Get(ctx, userID)
	if err != nil {
		s.internalError(w, log, err)
		return
	}

	topic := firstNonEmpty(req.Topic, state.CurrentTopic, "general")
	language := firstNonEmpty(req.Language, state.CurrentLanguage, "Python")

	review, err := s.tutorUC.ReviewCode(ctx, req.Code, topic, language)
	if err != nil {
		s.upstreamError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"review":   review,
		"topic":    topic,
		"language": language,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	userID := resolveUserID(r)
	ctx := logging.WithUserID(r.Context(), userID)

	if _, err := s.stateUC.Reset(ctx, userID); err != nil {
		s.internalError(w, logging.With(ctx, s.log), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UnixMilli(),
	})
}

// ---- helpers ----

func (s *Server) internalError(w http.ResponseWriter, log *zerolog.Logger, err error) {
	log.Error().Err(err).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

func (s *Server) upstreamError(w http.ResponseWriter, log *zerolog.Logger, err error) {
	if errors.Is(err, domain.ErrInvalidArgument) {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if errors.Is(err, domain.ErrAIUnavailable) {
		log.Warn().Err(err).Msg("inference unavailable")
		writeError(w, http.StatusBadGateway, "AI service unavailable")
		return
	}
	s.internalError(w, log, err)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
