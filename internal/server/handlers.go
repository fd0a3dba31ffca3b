package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"scadarag/internal/llm"
	"scadarag/internal/loader"
	"scadarag/internal/worker"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket forwards every text frame to the worker as a Request and
// writes back its Response, in order.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error(err, "websocket upgrade")
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Error(err, "websocket read")
			}
			return
		}

		var req worker.Request
		resp := worker.NewError("invalid message format")
		if err := json.Unmarshal(msg, &req); err == nil {
			resp, err = s.worker.Do(r.Context(), req)
			if err != nil {
				resp = worker.NewError(err.Error())
			}
		}
		if err := conn.WriteJSON(resp); err != nil {
			s.log.Error(err, "websocket write")
			return
		}
	}
}

type uploadResponse struct {
	IDs     []string `json:"ids"`
	Skipped []string `json:"skipped,omitempty"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := int64(s.cfg.MaxUploadMB) << 20
	if limit <= 0 {
		limit = 32 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload: "+err.Error())
		return
	}

	var payload worker.IngestPayload
	var out uploadResponse
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		doc, err := s.loader.Load(fh.Filename, f, fh.Size)
		f.Close()
		if errors.Is(err, loader.ErrUnsupportedType) {
			out.Skipped = append(out.Skipped, fh.Filename)
			continue
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		payload.Docs = append(payload.Docs, worker.DocPayload{
			ID:     doc.ID,
			Title:  doc.Title,
			Text:   doc.Text,
			Size:   doc.Metadata.Size,
			Origin: doc.Metadata.Origin,
		})
		out.IDs = append(out.IDs, doc.ID)
	}
	if len(payload.Docs) == 0 {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]any{"error": "no supported files in upload", "skipped": out.Skipped})
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !s.dispatch(w, r, worker.Request{Type: worker.TypeIngest, Payload: raw}, nil) {
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if s.dispatch(w, r, worker.Request{Type: worker.TypeReset}, nil) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	raw, _ := json.Marshal(worker.RemovePayload{IDs: []string{chi.URLParam(r, "id")}})
	if s.dispatch(w, r, worker.Request{Type: worker.TypeRemove, Payload: raw}, nil) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var q worker.QueryPayload
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid query body")
		return
	}
	raw, _ := json.Marshal(q)
	var result worker.Response
	if s.dispatch(w, r, worker.Request{Type: worker.TypeQuery, Payload: raw}, &result) {
		writeJSON(w, http.StatusOK, result.Payload)
	}
}

// dispatch runs req on the worker. It writes an error response and returns
// false when the worker fails or replies with an error message.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req worker.Request, out *worker.Response) bool {
	resp, err := s.worker.Do(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return false
	}
	if resp.Type == worker.TypeError {
		status := http.StatusBadRequest
		if p, ok := resp.Payload.(worker.ErrorPayload); ok && p.Code == worker.CodeNoIndex {
			status = http.StatusConflict
		}
		writeJSON(w, status, resp.Payload)
		return false
	}
	if out != nil {
		*out = resp
	}
	return true
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	provider, err := s.chats.Get(chi.URLParam(r, "provider"))
	switch {
	case errors.Is(err, llm.ErrUnknownProvider):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	var req llm.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "body must carry a non-empty messages list")
		return
	}

	resp, err := provider.Complete(r.Context(), req)
	if err != nil {
		s.log.Error(err, "chat completion failed", "provider", provider.Name())
		writeError(w, http.StatusBadGateway, "upstream chat provider failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
