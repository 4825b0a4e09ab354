package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/deckforge/internal/api/response"
	"github.com/ramonehamilton/deckforge/internal/storage/models"
	"github.com/ramonehamilton/deckforge/internal/storage/repository"
)

// SavedDeckHandler handles saved deck requests.
type SavedDeckHandler struct {
	repo repository.SavedDeckRepository
}

// NewSavedDeckHandler creates a new SavedDeckHandler.
func NewSavedDeckHandler(repo repository.SavedDeckRepository) *SavedDeckHandler {
	return &SavedDeckHandler{repo: repo}
}

// SaveDeckRequest represents a request to save a deck.
type SaveDeckRequest struct {
	Name      string   `json:"name" validate:"required,max=100"`
	PlayerTag string   `json:"playerTag" validate:"omitempty,max=32"`
	Cards     []string `json:"cards" validate:"required,len=8,unique,dive,required"`
	Score     float64  `json:"score"`
	Source    string   `json:"source" validate:"omitempty,oneof=optimize build manual"`
}

// ListDecks returns saved decks, filtered by ?player= when given.
func (h *SavedDeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.repo.List(r.Context(), r.URL.Query().Get("player"))
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, decks)
}

// CreateDeck saves a deck.
func (h *SavedDeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	var req SaveDeckRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	deck := &models.SavedDeck{
		PlayerTag: req.PlayerTag,
		Name:      req.Name,
		Cards:     req.Cards,
		Score:     req.Score,
		Source:    req.Source,
	}
	if deck.Source == "" {
		deck.Source = "manual"
	}
	if err := h.repo.Save(r.Context(), deck); err != nil {
		response.InternalError(w, err)
		return
	}
	response.Created(w, deck)
}

// GetDeck returns a single saved deck.
func (h *SavedDeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	deck, err := h.repo.Get(r.Context(), chi.URLParam(r, "deckID"))
	if errors.Is(err, repository.ErrNotFound) {
		response.NotFound(w, errors.New("deck not found"))
		return
	}
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, deck)
}

// DeleteDeck removes a saved deck.
func (h *SavedDeckHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	err := h.repo.Delete(r.Context(), chi.URLParam(r, "deckID"))
	if errors.Is(err, repository.ErrNotFound) {
		response.NotFound(w, errors.New("deck not found"))
		return
	}
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.NoContent(w)
}
