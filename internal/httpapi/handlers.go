package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reunite-dev/reunite/internal/engine"
	"github.com/reunite-dev/reunite/internal/entity"
)

// actorHeader carries the authenticated user id. Authentication itself
// is delegated to the fronting proxy; the API trusts this header.
const actorHeader = "X-Actor-Id"

// requireActor extracts the acting user id from the request.
func requireActor(r *http.Request) (string, error) {
	actor := r.Header.Get(actorHeader)
	if actor == "" {
		return "", entity.NewValidation("missing " + actorHeader + " header")
	}
	return actor, nil
}

// decodeBody parses a JSON request body into v. A missing body decodes
// into the zero value.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return entity.NewValidation("malformed request body: " + err.Error())
	}
	return nil
}

type createItemRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	SecretPhrase string `json:"secretPhrase,omitempty"`
	ImageBase64  string `json:"imageBase64,omitempty"`
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	actor, err := requireActor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var payload []byte
	if req.ImageBase64 != "" {
		payload, err = base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			writeError(w, r, entity.NewValidation("imageBase64 is not valid base64"))
			return
		}
	}

	item, err := s.engine.CreateItem(r.Context(), engine.CreateItemParams{
		OwnerID:      actor,
		Name:         req.Name,
		Description:  req.Description,
		SecretPhrase: req.SecretPhrase,
		ImagePayload: payload,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	actor, err := requireActor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.engine.DeleteItem(r.Context(), chi.URLParam(r, "itemID"), actor); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reportLostRequest struct {
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleReportLost(w http.ResponseWriter, r *http.Request) {
	actor, err := requireActor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req reportLostRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	post, err := s.engine.ReportLost(r.Context(), chi.URLParam(r, "itemID"), actor, req.Title, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) handleOpenChat(w http.ResponseWriter, r *http.Request) {
	actor, err := requireActor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	room, err := s.engine.OpenChat(r.Context(), chi.URLParam(r, "postID"), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

type resolvePostRequest struct {
	Reason  string `json:"reason"`
	FoundBy string `json:"foundBy,omitempty"`
}

func (s *Server) handleResolvePost(w http.ResponseWriter, r *http.Request) {
	actor, err := requireActor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req resolvePostRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	err = s.engine.ResolvePost(r.Context(), chi.URLParam(r, "postID"), actor,
		entity.ResolveReason(req.Reason), req.FoundBy)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecordView(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.RecordPostView(r.Context(), chi.URLParam(r, "postID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type postMessageRequest struct {
	MessageID string `json:"messageId"`
	Text      string `json:"text"`
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	actor, err := requireActor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req postMessageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := s.engine.PostMessage(r.Context(), chi.URLParam(r, "roomID"), actor, req.MessageID, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
