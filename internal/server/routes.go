package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hvga/hvga-og/internal/chat"
)

type chatRequest struct {
	Message   string `json:"message"`
	Model     string `json:"model"` // accepted for compatibility, not used
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response  string `json:"response"`
	Model     string `json:"model"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	if s.deps.Chat == nil {
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}

	reply, err := s.deps.Chat.Respond(r.Context(), chat.Turn{SessionID: req.SessionID, Message: req.Message})
	if err != nil {
		log.Error().Err(err).Str("session", req.SessionID).Msg("chat request failed")
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:  reply.Text,
		Model:     reply.Model,
		SessionID: reply.SessionID,
	})
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "Audio file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No audio file provided")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	if s.deps.Speech == nil {
		writeError(w, http.StatusInternalServerError, "Failed to process speech-to-text")
		return
	}

	text, err := s.deps.Speech.Transcribe(r.Context(), audio, header.Header.Get("Content-Type"))
	if err != nil {
		log.Error().Err(err).Int("bytes", len(audio)).Msg("speech-to-text failed")
		writeError(w, http.StatusInternalServerError, "Failed to process speech-to-text")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"deepgramApiKey": s.cfg.DeepgramAPIKey})
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	if s.deps.Backend == nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch members data")
		return
	}
	members, err := s.deps.Backend.ListMembers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("fetching members")
		writeError(w, http.StatusInternalServerError, "Failed to fetch members data")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(members)
}

type feedbackRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	if s.deps.Backend == nil {
		writeError(w, http.StatusInternalServerError, "Failed to submit feedback")
		return
	}
	if err := s.deps.Backend.SubmitFeedback(r.Context(), req.Message); err != nil {
		log.Error().Err(err).Msg("submitting feedback")
		writeError(w, http.StatusInternalServerError, "Failed to submit feedback")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Feedback submitted successfully"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.cfg.Version})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
