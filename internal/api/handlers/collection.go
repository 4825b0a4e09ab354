package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/deckforge/internal/api/response"
	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/storage/repository"
)

// CollectionHandler handles stored player collections.
type CollectionHandler struct {
	repo repository.CollectionRepository
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(repo repository.CollectionRepository) *CollectionHandler {
	return &CollectionHandler{repo: repo}
}

// PutCollectionRequest replaces a player's collection.
type PutCollectionRequest struct {
	Cards []cards.Card `json:"cards" validate:"required"`
}

func playerParam(r *http.Request) (string, error) {
	tag := chi.URLParam(r, "player")
	if tag == "" || len(tag) > 32 {
		return "", errors.New("invalid player tag")
	}
	return tag, nil
}

// GetCollection returns a player's stored collection.
func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	tag, err := playerParam(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}
	c, err := h.repo.GetCollection(r.Context(), tag)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, c)
}

// PutCollection replaces a player's stored collection.
func (h *CollectionHandler) PutCollection(w http.ResponseWriter, r *http.Request) {
	tag, err := playerParam(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}
	var req PutCollectionRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if err := h.repo.ReplaceCollection(r.Context(), tag, req.Cards); err != nil {
		response.InternalError(w, err)
		return
	}
	stored, err := h.repo.GetCollection(r.Context(), tag)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, stored)
}
