package handlers

import (
	"context"
	"net/http"

	"github.com/ramonehamilton/deckforge/internal/api/response"
	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/storage/models"
)

// CorpusStore persists imported decks. *storage.Service satisfies it.
type CorpusStore interface {
	ImportCorpus(ctx context.Context, decks []cards.Deck, source string) (*models.ImportResult, []cards.Deck, error)
}

// CorpusHandler imports reference decks and republishes the engine.
type CorpusHandler struct {
	engine DeckEngine
	store  CorpusStore
}

// NewCorpusHandler creates a new CorpusHandler. Without a store, the posted decks
// replace the published corpus outright.
func NewCorpusHandler(engine DeckEngine, store CorpusStore) *CorpusHandler {
	return &CorpusHandler{engine: engine, store: store}
}

// ImportCorpusRequest carries decks to add to the corpus.
type ImportCorpusRequest struct {
	Decks  []cards.Deck `json:"decks" validate:"required,min=1"`
	Source string       `json:"source" validate:"omitempty,max=64"`
}

// ImportCorpusResponse reports the import and the published corpus size.
type ImportCorpusResponse struct {
	models.ImportResult
	CorpusDecks int `json:"corpusDecks"`
}

// ImportCorpus stores the decks and republishes the statistics model.
func (h *CorpusHandler) ImportCorpus(w http.ResponseWriter, r *http.Request) {
	var req ImportCorpusRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result := &models.ImportResult{Imported: len(req.Decks)}
	corpus := req.Decks
	if h.store != nil {
		var err error
		result, corpus, err = h.store.ImportCorpus(r.Context(), req.Decks, req.Source)
		if err != nil {
			response.InternalError(w, err)
			return
		}
	}

	if err := h.engine.Publish(r.Context(), corpus); err != nil {
		response.Unprocessable(w, err)
		return
	}
	response.Success(w, ImportCorpusResponse{ImportResult: *result, CorpusDecks: len(corpus)})
}
