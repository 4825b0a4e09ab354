package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ramonehamilton/deckforge/internal/api/handlers"
	"github.com/ramonehamilton/deckforge/internal/api/response"
	"github.com/ramonehamilton/deckforge/internal/version"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.healthCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	var (
		collections handlers.CollectionSource
		corpusStore handlers.CorpusStore
	)
	if s.store != nil {
		collections = s.store.Collections()
		corpusStore = s.store
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}

		analysis := handlers.NewAnalysisHandler(s.engine, collections)
		r.Post("/optimize", analysis.Optimize)
		r.Post("/build", analysis.Build)
		r.Post("/suggest", analysis.Suggest)
		r.Post("/score", analysis.Score)

		r.Route("/stats", func(r chi.Router) {
			r.Get("/", analysis.Stats)
			r.Get("/cards", analysis.TopCards)
			r.Get("/cards/export", analysis.ExportCards)
			r.Get("/cards/{card}/partners", analysis.Partners)
		})

		corpus := handlers.NewCorpusHandler(s.engine, corpusStore)
		r.Post("/corpus", corpus.ImportCorpus)

		if s.store == nil {
			return
		}

		decks := handlers.NewSavedDeckHandler(s.store.SavedDecks())
		r.Route("/decks", func(r chi.Router) {
			r.Get("/", decks.ListDecks)
			r.Post("/", decks.CreateDeck)
			r.Get("/{deckID}", decks.GetDeck)
			r.Delete("/{deckID}", decks.DeleteDeck)
		})

		collection := handlers.NewCollectionHandler(s.store.Collections())
		r.Route("/collections", func(r chi.Router) {
			r.Get("/{player}", collection.GetCollection)
			r.Put("/{player}", collection.PutCollection)
		})
	})
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	status := map[string]any{
		"status":  "healthy",
		"service": "deckforge-api",
		"version": version.GetVersion(),
		"ready":   s.engine.Ready(),
	}
	if m := s.engine.Model(); m != nil {
		status["corpusDecks"] = m.DeckCount()
		status["corpusCards"] = m.CardCount()
	}
	response.JSON(w, http.StatusOK, status)
}
