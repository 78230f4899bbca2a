package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/declanmg/vocabdeck/internal/domain"
	"github.com/declanmg/vocabdeck/internal/schedule"
	"github.com/declanmg/vocabdeck/internal/storage"
	"github.com/declanmg/vocabdeck/internal/streak"
	sourcesync "github.com/declanmg/vocabdeck/internal/sync"
)

// Server holds the dependencies for the HTTP API. The frontend is a
// separate SPA, so every handler speaks JSON. The caller's identity comes
// from the X-Owner header; authenticating it is the proxy's job.
type Server struct {
	db       *storage.DB
	router   *http.ServeMux
	loc      *time.Location
	validate *validator.Validate
	now      func() time.Time
}

// NewServer creates and configures a new server. loc is the observer time
// zone used for calendar-day accounting.
func NewServer(db *storage.DB, loc *time.Location) *Server {
	s := &Server{
		db:       db,
		router:   http.NewServeMux(),
		loc:      loc,
		validate: validator.New(),
		now:      time.Now,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("/decks", s.handleDecks())
	s.router.HandleFunc("/decks/", s.handleDeck())
	s.router.HandleFunc("/cards", s.handleCards())
	s.router.HandleFunc("/cards/", s.handleCard())
	s.router.HandleFunc("/quiz/due", s.handleDueCards())
	s.router.HandleFunc("/quiz/review/", s.handlePostReview())
	s.router.HandleFunc("/dashboard", s.handleDashboard())
	s.router.HandleFunc("/sources", s.handleSources())
	s.router.HandleFunc("/sources/", s.handleDeleteSource())
	s.router.HandleFunc("/sync", s.handlePostSync())
}

type deckJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type cardJSON struct {
	ID             string     `json:"id"`
	DeckID         *string    `json:"deck_id"`
	Word           string     `json:"word"`
	Meaning        string     `json:"meaning"`
	Difficulty     string     `json:"difficulty,omitempty"`
	LastReviewedAt *time.Time `json:"last_reviewed_at"`
	ReviewCount    int        `json:"review_count"`
	NextReviewAt   *time.Time `json:"next_review_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toDeckJSON(d domain.Deck) deckJSON {
	return deckJSON{ID: d.ID, Name: d.Name, CreatedAt: d.CreatedAt}
}

func toCardJSON(c domain.Flashcard) cardJSON {
	return cardJSON{
		ID:             c.ID,
		DeckID:         c.DeckID,
		Word:           c.Word,
		Meaning:        c.Meaning,
		Difficulty:     string(c.Difficulty),
		LastReviewedAt: c.LastReviewedAt,
		ReviewCount:    c.ReviewCount,
		NextReviewAt:   c.NextReviewAt,
		CreatedAt:      c.CreatedAt,
	}
}

func toCardListJSON(cards []domain.Flashcard) []cardJSON {
	out := make([]cardJSON, len(cards))
	for i, c := range cards {
		out[i] = toCardJSON(c)
	}
	return out
}

// owner extracts the caller identity, writing a 401 when absent.
func (s *Server) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := r.Header.Get("X-Owner")
	if owner == "" {
		writeError(w, http.StatusUnauthorized, "missing X-Owner header")
		return "", false
	}
	return owner, true
}

// deckFilter reads the ?deck= query parameter: empty means every deck,
// "none" means the uncategorized group, anything else is a deck id.
func deckFilter(r *http.Request) storage.DeckFilter {
	deck := r.URL.Query().Get("deck")
	switch deck {
	case "":
		return storage.DeckFilter{}
	case "none":
		return storage.DeckFilter{Uncategorized: true}
	default:
		return storage.DeckFilter{ID: deck}
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps storage errors onto status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	slog.Error("storage failure", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func (s *Server) handleDecks() http.HandlerFunc {
	type createRequest struct {
		Name string `json:"name" validate:"required"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := s.owner(w, r)
		if !ok {
			return
		}
		switch r.Method {
		case http.MethodGet:
			decks, err := s.db.DecksByOwner(owner)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			out := make([]deckJSON, len(decks))
			for i, d := range decks {
				out[i] = toDeckJSON(d)
			}
			writeJSON(w, http.StatusOK, out)
		case http.MethodPost:
			var req createRequest
			if !s.decode(w, r, &req) {
				return
			}
			deck, err := s.db.CreateDeck(owner, req.Name)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, toDeckJSON(*deck))
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) handleDeck() http.HandlerFunc {
	type renameRequest struct {
		Name string `json:"name" validate:"required"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := s.owner(w, r)
		if !ok {
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/decks/")
		if id == "" {
			writeError(w, http.StatusBadRequest, "missing deck id")
			return
		}
		switch r.Method {
		case http.MethodPut:
			var req renameRequest
			if !s.decode(w, r, &req) {
				return
			}
			if err := s.db.RenameDeck(id, owner, req.Name); err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"id": id, "name": req.Name})
		case http.MethodDelete:
			// Cards in the deck are detached, not deleted.
			if err := s.db.DeleteDeck(id, owner); err != nil {
				writeStoreError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) handleCards() http.HandlerFunc {
	type createRequest struct {
		Word    string  `json:"word" validate:"required"`
		Meaning string  `json:"meaning" validate:"required"`
		DeckID  *string `json:"deck_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := s.owner(w, r)
		if !ok {
			return
		}
		switch r.Method {
		case http.MethodGet:
			cards, err := s.db.CardsByOwner(owner, deckFilter(r))
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toCardListJSON(cards))
		case http.MethodPost:
			var req createRequest
			if !s.decode(w, r, &req) {
				return
			}
			card, err := s.db.CreateCard(owner, req.DeckID, req.Word, req.Meaning)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, toCardJSON(*card))
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) handleCard() http.HandlerFunc {
	type updateRequest struct {
		Word    string  `json:"word" validate:"required"`
		Meaning string  `json:"meaning" validate:"required"`
		DeckID  *string `json:"deck_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := s.owner(w, r)
		if !ok {
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/cards/")
		if id == "" {
			writeError(w, http.StatusBadRequest, "missing card id")
			return
		}
		switch r.Method {
		case http.MethodPut:
			var req updateRequest
			if !s.decode(w, r, &req) {
				return
			}
			if err := s.db.UpdateCardContent(id, owner, req.Word, req.Meaning, req.DeckID); err != nil {
				writeStoreError(w, err)
				return
			}
			card, err := s.db.CardByID(id)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			if card == nil {
				writeError(w, http.StatusNotFound, "not found")
				return
			}
			writeJSON(w, http.StatusOK, toCardJSON(*card))
		case http.MethodDelete:
			if err := s.db.DeleteCard(id, owner); err != nil {
				writeStoreError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) handleDueCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		owner, ok := s.owner(w, r)
		if !ok {
			return
		}
		due, err := s.db.DueCards(owner, deckFilter(r), s.now())
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCardListJSON(due))
	}
}

func (s *Server) handlePostReview() http.HandlerFunc {
	type reviewRequest struct {
		Rating string `json:"rating" validate:"required"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		owner, ok := s.owner(w, r)
		if !ok {
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/quiz/review/")

		var req reviewRequest
		if !s.decode(w, r, &req) {
			return
		}

		card, err := s.db.CardByID(id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if card == nil || card.OwnerID != owner {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		reviewed, err := schedule.ApplyReview(*card, domain.Rating(req.Rating), s.now())
		if err != nil {
			if errors.Is(err, schedule.ErrInvalidRating) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			slog.Error("review failed", "card", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		if err := s.db.UpdateCardReview(reviewed); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCardJSON(reviewed))
	}
}

func (s *Server) handleDashboard() http.HandlerFunc {
	type deckRow struct {
		DeckID *string `json:"deck_id"`
		Name   string  `json:"name"`
		Total  int     `json:"total"`
		Due    int     `json:"due"`
	}
	type dashboard struct {
		TotalCards    int       `json:"total_cards"`
		DueCount      int       `json:"due_count"`
		ReviewedToday int       `json:"reviewed_today"`
		StreakDays    int       `json:"streak_days"`
		Decks         []deckRow `json:"decks"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		owner, ok := s.owner(w, r)
		if !ok {
			return
		}

		cards, err := s.db.CardsByOwner(owner, storage.DeckFilter{})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		decks, err := s.db.DecksByOwner(owner)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		now := s.now()
		due := schedule.Due(cards, now)

		totalByDeck := make(map[string]int)
		dueByDeck := make(map[string]int)
		key := func(deckID *string) string {
			if deckID == nil {
				return ""
			}
			return *deckID
		}
		for _, c := range cards {
			totalByDeck[key(c.DeckID)]++
		}
		for _, c := range due {
			dueByDeck[key(c.DeckID)]++
		}

		rows := make([]deckRow, 0, len(decks)+1)
		for _, d := range decks {
			id := d.ID
			rows = append(rows, deckRow{
				DeckID: &id,
				Name:   d.Name,
				Total:  totalByDeck[d.ID],
				Due:    dueByDeck[d.ID],
			})
		}
		if totalByDeck[""] > 0 || dueByDeck[""] > 0 {
			rows = append(rows, deckRow{
				Name:  "Uncategorized",
				Total: totalByDeck[""],
				Due:   dueByDeck[""],
			})
		}

		writeJSON(w, http.StatusOK, dashboard{
			TotalCards:    len(cards),
			DueCount:      len(due),
			ReviewedToday: streak.ReviewedToday(cards, now, s.loc),
			StreakDays:    streak.Current(cards, now, s.loc),
			Decks:         rows,
		})
	}
}

func (s *Server) handleSources() http.HandlerFunc {
	type createRequest struct {
		Path   string  `json:"path" validate:"required"`
		Type   string  `json:"type" validate:"required,oneof=local git"`
		DeckID *string `json:"deck_id"`
	}
	type sourceJSON struct {
		ID         int64      `json:"id"`
		Path       string     `json:"path"`
		Type       string     `json:"type"`
		DeckID     *string    `json:"deck_id"`
		LastSynced *time.Time `json:"last_synced"`
	}
	toJSON := func(src storage.Source) sourceJSON {
		out := sourceJSON{ID: src.ID, Path: src.Path, Type: src.Type, DeckID: src.DeckID}
		if src.LastSynced.Valid {
			t := src.LastSynced.Time
			out.LastSynced = &t
		}
		return out
	}
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := s.owner(w, r)
		if !ok {
			return
		}
		switch r.Method {
		case http.MethodGet:
			sources, err := s.db.SourcesByOwner(owner)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			out := make([]sourceJSON, len(sources))
			for i, src := range sources {
				out[i] = toJSON(src)
			}
			writeJSON(w, http.StatusOK, out)
		case http.MethodPost:
			var req createRequest
			if !s.decode(w, r, &req) {
				return
			}
			id, err := s.db.CreateSource(owner, req.DeckID, req.Path, req.Type)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		owner, ok := s.owner(w, r)
		if !ok {
			return
		}
		idStr := strings.TrimPrefix(r.URL.Path, "/sources/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid source id")
			return
		}
		if err := s.db.DeleteSource(id, owner); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		// Run in the foreground so the caller sees the result.
		if err := sourcesync.RunSync(s.db); err != nil {
			slog.Error("sync failed", "error", err)
			writeError(w, http.StatusInternalServerError, "sync failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
