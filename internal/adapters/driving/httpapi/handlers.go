package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/udirag/internal/logger"
)

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req ChatCompletionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "request body is empty")
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}

	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages must contain at least one message")
		return
	}

	query := strings.TrimSpace(req.Messages[len(req.Messages)-1].Content)
	if query == "" {
		writeError(w, http.StatusBadRequest, "the last message has no content")
		return
	}

	logger.Debug("Chat request: %q", query)
	answer := s.answers.Answer(r.Context(), query)
	if answer.Degraded {
		logger.Warn("Answer degraded for %q", query)
	}

	id := "chatcmpl-" + uuid.NewString()
	if req.Stream {
		writeStream(w, ChatCompletionChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: s.now().Unix(),
			Model:   s.cfg.ModelID,
			Choices: []ChunkChoice{{
				Index:        0,
				Delta:        Message{Role: "assistant", Content: answer.Text},
				FinishReason: "stop",
			}},
		})
		return
	}

	writeJSON(w, http.StatusOK, ChatCompletionResponse{
		ID:      id,
		Object:  "chat.completion",
		Created: s.now().Unix(),
		Model:   s.cfg.ModelID,
		Choices: []Choice{{
			Index:        0,
			Message:      Message{Role: "assistant", Content: answer.Text},
			FinishReason: "stop",
		}},
	})
}

// writeStream sends the whole answer as one server-sent event followed by
// the [DONE] terminator.
func writeStream(w http.ResponseWriter, chunk ChatCompletionChunk) {
	data, err := json.Marshal(chunk)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode stream chunk")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprintf(w, "data: %s\n\ndata: [DONE]\n\n", data); err != nil {
		logger.Warn("Write stream: %v", err)
		return
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ModelList{
		Object: "list",
		Data: []Model{{
			ID:      s.cfg.ModelID,
			Object:  "model",
			OwnedBy: s.cfg.OwnedBy,
		}},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{
		Message: message,
		Type:    "invalid_request_error",
	}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Write response: %v", err)
	}
}
