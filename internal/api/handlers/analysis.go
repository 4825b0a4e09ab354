package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/deckforge/internal/api/response"
	"github.com/ramonehamilton/deckforge/internal/builder"
	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/deckstats"
	"github.com/ramonehamilton/deckforge/internal/export"
	"github.com/ramonehamilton/deckforge/internal/metrics"
	"github.com/ramonehamilton/deckforge/internal/optimizer"
	"github.com/ramonehamilton/deckforge/internal/scoring"
)

// DeckEngine is the engine surface the analysis handlers need.
type DeckEngine interface {
	Optimize(deck cards.Deck, collection []cards.Card) (*optimizer.OptimizedDeck, error)
	BuildFrom(partial []string, collection []cards.Card) ([]string, error)
	SuggestNextCard(partial []string, collection []cards.Card, topK int) ([]builder.Suggestion, error)
	ScoreDeck(deck []string, collection []cards.Card) (scoring.Breakdown, error)
	Publish(ctx context.Context, corpus []cards.Deck) error
	Model() *deckstats.Model
	Metrics() *metrics.Recorder
}

// AnalysisHandler serves the optimizer, builder and scorer.
type AnalysisHandler struct {
	engine      DeckEngine
	collections CollectionSource
}

// NewAnalysisHandler creates a new AnalysisHandler. collections may be nil, in
// which case requests must carry their collection inline.
func NewAnalysisHandler(engine DeckEngine, collections CollectionSource) *AnalysisHandler {
	return &AnalysisHandler{engine: engine, collections: collections}
}

// OptimizeRequest asks for a reference deck mapped onto a collection.
type OptimizeRequest struct {
	Deck cards.Deck `json:"deck" validate:"required"`
	PlayerCollection
}

// Optimize maps a reference deck onto the player's collection.
func (h *AnalysisHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	collection, err := req.resolve(r.Context(), h.collections)
	if err != nil {
		response.InternalError(w, err)
		return
	}

	result, err := h.engine.Optimize(req.Deck, collection)
	if err != nil {
		engineError(w, err)
		return
	}
	if result == nil {
		response.Unprocessable(w, errors.New("deck must have 8 distinct named cards"))
		return
	}
	response.Success(w, result)
}

// BuildRequest asks for a full deck, optionally seeded with a partial one.
type BuildRequest struct {
	Partial []string `json:"partial" validate:"max=8"`
	PlayerCollection
}

// BuildResponse is the built deck and its score.
type BuildResponse struct {
	Cards      []string          `json:"cards"`
	Evaluation scoring.Breakdown `json:"evaluation"`
}

// Build runs the beam search.
func (h *AnalysisHandler) Build(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	collection, err := req.resolve(r.Context(), h.collections)
	if err != nil {
		response.InternalError(w, err)
		return
	}

	deck, err := h.engine.BuildFrom(req.Partial, collection)
	if err != nil {
		engineError(w, err)
		return
	}
	if deck == nil {
		response.Unprocessable(w, errors.New("not enough playable cards to build a deck"))
		return
	}
	eval, err := h.engine.ScoreDeck(deck, collection)
	if err != nil {
		engineError(w, err)
		return
	}
	response.Success(w, BuildResponse{Cards: deck, Evaluation: eval})
}

// SuggestRequest asks for the best next cards for a partial deck.
type SuggestRequest struct {
	Partial []string `json:"partial" validate:"max=8"`
	TopK    int      `json:"topK" validate:"min=0,max=50"`
	PlayerCollection
}

// Suggest ranks single-card extensions.
func (h *AnalysisHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	collection, err := req.resolve(r.Context(), h.collections)
	if err != nil {
		response.InternalError(w, err)
		return
	}

	out, err := h.engine.SuggestNextCard(req.Partial, collection, req.TopK)
	if err != nil {
		engineError(w, err)
		return
	}
	response.Success(w, out)
}

// ScoreRequest asks for a deck evaluation.
type ScoreRequest struct {
	Deck []string `json:"deck" validate:"required,min=1,max=8,dive,required"`
	PlayerCollection
}

// Score evaluates a deck with the weighted objective.
func (h *AnalysisHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	collection, err := req.resolve(r.Context(), h.collections)
	if err != nil {
		response.InternalError(w, err)
		return
	}

	b, err := h.engine.ScoreDeck(req.Deck, collection)
	if err != nil {
		engineError(w, err)
		return
	}
	response.Success(w, b)
}

// TopCards returns the most frequent corpus cards. ?limit= defaults to 20.
func (h *AnalysisHandler) TopCards(w http.ResponseWriter, r *http.Request) {
	m := h.engine.Model()
	if m == nil {
		response.ServiceUnavailable(w, errors.New("no corpus published"))
		return
	}
	response.Success(w, m.TopCards(limitParam(r, 20)))
}

// Partners returns a card's strongest PMI partners.
func (h *AnalysisHandler) Partners(w http.ResponseWriter, r *http.Request) {
	m := h.engine.Model()
	if m == nil {
		response.ServiceUnavailable(w, errors.New("no corpus published"))
		return
	}
	name := chi.URLParam(r, "card")
	if _, ok := m.ID(name); !ok {
		response.NotFound(w, errors.New("card not in corpus"))
		return
	}
	response.Success(w, m.TopPartners(name, limitParam(r, 10)))
}

// ExportCards streams the full card frequency table. ?format=csv|json, default csv.
func (h *AnalysisHandler) ExportCards(w http.ResponseWriter, r *http.Request) {
	m := h.engine.Model()
	if m == nil {
		response.ServiceUnavailable(w, errors.New("no corpus published"))
		return
	}
	format := export.FormatCSV
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := export.ParseFormat(v)
		if err != nil {
			response.BadRequest(w, err)
			return
		}
		format = f
	}

	if format == export.FormatCSV {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.GenerateFilename("cards", format)+`"`)
	}
	if err := export.Write(w, format, export.CardRows(m, 0), false); err != nil {
		response.InternalError(w, err)
	}
}

// Stats returns in-process operation timings.
func (h *AnalysisHandler) Stats(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.engine.Metrics().GetStats())
}

func limitParam(r *http.Request, def int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return min(n, 500)
}
