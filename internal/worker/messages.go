package worker

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"scadarag/internal/domain"
	"scadarag/internal/service"
)

// Request message types.
const (
	TypeIngest = "ingest"
	TypeReset  = "reset"
	TypeQuery  = "query"
	TypeRemove = "remove"
)

// Response message types.
const (
	TypeIndexed = "indexed"
	TypeResult  = "result"
	TypeError   = "error"
)

// Request is one message sent to the worker.
type Request struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the single reply to a Request.
type Response struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// DocPayload is a document as sent by clients. Name is accepted as an alias
// for Title.
type DocPayload struct {
	ID     string `json:"id,omitempty"`
	Title  string `json:"title,omitempty"`
	Name   string `json:"name,omitempty"`
	Text   string `json:"text"`
	Size   int64  `json:"size,omitempty"`
	Origin string `json:"origin,omitempty"`
}

type IngestPayload struct {
	Docs []DocPayload `json:"docs"`
}

type QueryPayload struct {
	Query string `json:"query"`
	K     *int   `json:"k,omitempty"`
}

type RemovePayload struct {
	IDs []string `json:"ids"`
}

// Hit is a ranked passage rendered as a citation.
type Hit struct {
	Score      float64 `json:"score"`
	ID         string  `json:"id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Text       string  `json:"text"`
	Page       int     `json:"page,omitempty"`
}

type ResultPayload struct {
	Answer string `json:"answer"`
	Hits   []Hit  `json:"hits"`
}

// ErrorPayload describes a failed request. Code is set for failures clients
// are expected to handle, such as CodeNoIndex.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// CodeNoIndex marks a query made before anything was ingested.
const CodeNoIndex = "no_index"

// Document converts the payload, assigning a random ID when none was sent.
func (p DocPayload) Document() domain.Document {
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	title := p.Title
	if title == "" {
		title = p.Name
	}
	return domain.Document{
		ID:       id,
		Title:    title,
		Text:     p.Text,
		Metadata: domain.Metadata{Size: p.Size, Origin: p.Origin},
	}
}

// NewResult renders an answer as a result response.
func NewResult(ans service.Answer) Response {
	hits := make([]Hit, len(ans.Hits))
	for i, h := range ans.Hits {
		hits[i] = Hit{
			Score:      h.Score,
			ID:         h.Chunk.ID,
			DocumentID: h.Chunk.DocumentID,
			Title:      h.Chunk.Title,
			Text:       h.Chunk.Text,
			Page:       h.Chunk.Page,
		}
	}
	return Response{Type: TypeResult, Payload: ResultPayload{Answer: ans.Text, Hits: hits}}
}

func NewError(msg string) Response {
	return Response{Type: TypeError, Payload: ErrorPayload{Message: msg}}
}

func errorResponse(err error) Response {
	p := ErrorPayload{Message: err.Error()}
	if errors.Is(err, service.ErrNoIndex) {
		p.Code = CodeNoIndex
	}
	return Response{Type: TypeError, Payload: p}
}

func indexed() Response { return Response{Type: TypeIndexed} }
