// Package web serves the study UI: deck overview, the review loop, and
// source/user management.
package web

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/conorfennell/memorank/internal/curriculum"
	"github.com/conorfennell/memorank/internal/domain"
	"github.com/conorfennell/memorank/internal/fsrs"
	"github.com/conorfennell/memorank/internal/gitsource"
	"github.com/conorfennell/memorank/internal/storage"
	"github.com/conorfennell/memorank/internal/sync"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Server holds the dependencies for the HTTP server.
type Server struct {
	db        *storage.DB
	router    *http.ServeMux
	scheduler *fsrs.Scheduler
	order     curriculum.Order
	batchSize int
	templates *template.Template
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, scheduler *fsrs.Scheduler, order curriculum.Order, batchSize int) *Server {
	tpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	s := &Server{
		db:        db,
		router:    http.NewServeMux(),
		scheduler: scheduler,
		order:     order,
		batchSize: batchSize,
		templates: tpl,
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
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatalf("Failed to create sub-filesystem for static assets: %v", err)
	}
	fileServer := http.FileServer(http.FS(staticFS))

	s.router.Handle("/static/", http.StripPrefix("/static/", fileServer))
	s.router.Handle("/", fileServer)

	// HTMX-based routes
	s.router.HandleFunc("/deck", s.handleGetDeck())
	s.router.HandleFunc("/review/next", s.handleGetNextReview())
	s.router.HandleFunc("/review/answer/", s.handleShowAnswer())
	s.router.HandleFunc("/review/", s.handlePostReview())

	// User and source management routes
	s.router.HandleFunc("/users", s.handleUsers())
	s.router.HandleFunc("/sources", s.handleSources())
	s.router.HandleFunc("/sources/", s.handleDeleteSource())
	s.router.HandleFunc("/sync", s.handlePostSync())
}

// ratingButton is one of the four grade buttons under the answer, labelled
// with the previewed interval.
type ratingButton struct {
	Grade int
	Name  string
	Label string
}

// reviewView is the data rendered per review screen.
type reviewView struct {
	UserID  string
	Card    domain.CardWithTemplate
	Mode    curriculum.Mode
	Due     int
	Buttons []ratingButton
}

// nextCard selects the next card of the user's current batch.
func (s *Server) nextCard(userID string, now time.Time) (*reviewView, error) {
	cards, err := s.db.GetCardsForUser(userID)
	if err != nil {
		return nil, err
	}
	batch := curriculum.SelectBatch(cards, now, s.order, s.batchSize)
	if len(batch.Cards) == 0 {
		return nil, nil
	}
	return &reviewView{
		UserID: userID,
		Card:   batch.Cards[0],
		Mode:   batch.Mode,
		Due:    len(batch.Cards),
	}, nil
}

// handleGetDeck renders the deck view, showing the batch waiting for the user.
func (s *Server) handleGetDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user")
		view, err := s.nextCard(userID, time.Now())
		if err != nil {
			slog.Error("error building deck view", "user", userID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		data := map[string]interface{}{
			"UserID":   userID,
			"HasCards": view != nil,
		}
		if view != nil {
			data["DueCount"] = view.Due
			data["Mode"] = view.Mode
		}
		s.templates.ExecuteTemplate(w, "deck", data)
	}
}

// handleGetNextReview renders the front of the next card in the batch.
func (s *Server) handleGetNextReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user")
		if userID == "" {
			userID = r.PostFormValue("user")
		}
		view, err := s.nextCard(userID, time.Now())
		if err != nil {
			slog.Error("error getting next card", "user", userID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if view == nil {
			s.templates.ExecuteTemplate(w, "deck", map[string]interface{}{
				"UserID":   userID,
				"HasCards": false,
			})
			return
		}
		s.templates.ExecuteTemplate(w, "card_front", view)
	}
}

// handleShowAnswer renders the back of a card with the four preview-labelled
// rating buttons.
func (s *Server) handleShowAnswer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hash := strings.TrimPrefix(r.URL.Path, "/review/answer/")
		userID := r.URL.Query().Get("user")

		card, err := s.db.FindCardForUser(userID, hash)
		if err != nil {
			slog.Error("error loading card", "user", userID, "hash", hash, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if card == nil {
			http.NotFound(w, r)
			return
		}

		labels, err := s.scheduler.PreviewIntervals(card.State, time.Now())
		if err != nil {
			slog.Error("error previewing intervals", "hash", hash, "error", err)
			http.Error(w, "Unprocessable card state", http.StatusUnprocessableEntity)
			return
		}

		view := reviewView{UserID: userID, Card: *card}
		for _, rating := range fsrs.Ratings {
			view.Buttons = append(view.Buttons, ratingButton{
				Grade: int(rating),
				Name:  rating.String(),
				Label: labels[rating],
			})
		}
		s.templates.ExecuteTemplate(w, "card_back", view)
	}
}

// handlePostReview processes one review and renders the next card. On any
// failure the stored card state is left untouched.
func (s *Server) handlePostReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		hash := strings.TrimPrefix(r.URL.Path, "/review/")
		userID := r.PostFormValue("user")
		grade, err := strconv.Atoi(r.PostFormValue("grade"))
		if err != nil {
			http.Error(w, "Invalid grade", http.StatusBadRequest)
			return
		}
		rating, err := fsrs.ParseGrade(grade)
		if err != nil {
			http.Error(w, "Invalid grade", http.StatusBadRequest)
			return
		}

		card, err := s.db.FindCardForUser(userID, hash)
		if err != nil {
			slog.Error("error loading card for review", "user", userID, "hash", hash, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if card == nil {
			http.NotFound(w, r)
			return
		}

		now := time.Now()
		next, err := s.scheduler.Schedule(card.State, rating, now)
		if err != nil {
			slog.Error("error scheduling review", "user", userID, "hash", hash, "error", err)
			if errors.Is(err, fsrs.ErrInconsistentCard) {
				http.Error(w, "Unprocessable card state", http.StatusUnprocessableEntity)
				return
			}
			http.Error(w, "Invalid grade", http.StatusBadRequest)
			return
		}

		if err := s.db.UpsertCardState(userID, hash, next); err != nil {
			slog.Error("error persisting card state", "user", userID, "hash", hash, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if err := s.db.InsertReviewLog(domain.ReviewLog{
			UserID:       userID,
			TemplateHash: hash,
			Grade:        grade,
			Timestamp:    now,
		}); err != nil {
			slog.Warn("error appending review log", "user", userID, "hash", hash, "error", err)
		}

		// After the review, show the next card.
		s.handleGetNextReview()(w, r)
	}
}

// handleUsers handles both GET and POST for the user picker.
func (s *Server) handleUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.renderUserList(w)
		case http.MethodPost:
			name := r.PostFormValue("name")
			if name == "" {
				http.Error(w, "Name cannot be empty", http.StatusBadRequest)
				return
			}
			now := time.Now()
			user, err := s.db.CreateUser(name, now)
			if err != nil {
				slog.Error("error creating user", "name", name, "error", err)
				http.Error(w, "Failed to create user", http.StatusInternalServerError)
				return
			}
			if _, err := s.db.SeedMissingCardStates(user.ID, now); err != nil {
				slog.Error("error seeding new user", "user", user.ID, "error", err)
				http.Error(w, "Failed to seed user", http.StatusInternalServerError)
				return
			}
			s.renderUserList(w)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (s *Server) renderUserList(w http.ResponseWriter) {
	users, err := s.db.GetAllUsers()
	if err != nil {
		slog.Error("error getting users", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.templates.ExecuteTemplate(w, "user_list", map[string]interface{}{
		"Users": users,
	})
}

// handleSources handles both GET and POST for the sources page.
func (s *Server) handleSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.handleGetSources(w, r)
		case http.MethodPost:
			s.handlePostSource(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// handleGetSources renders the main sources management page.
func (s *Server) handleGetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.GetAllSources()
	if err != nil {
		slog.Error("error getting sources", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.templates.ExecuteTemplate(w, "sources", map[string]interface{}{
		"Sources": sources,
	})
}

// handlePostSource adds a new source and re-renders the source list.
func (s *Server) handlePostSource(w http.ResponseWriter, r *http.Request) {
	path := r.PostFormValue("path")
	if path == "" {
		http.Error(w, "Path cannot be empty", http.StatusBadRequest)
		return
	}

	sourceType := "local"
	if gitsource.IsGitURL(path) {
		sourceType = "git"
	}

	if _, err := s.db.InsertSource(path, sourceType); err != nil {
		slog.Error("error inserting new source", "path", path, "error", err)
		http.Error(w, "Failed to add source", http.StatusInternalServerError)
		return
	}
	s.renderSourceList(w)
}

// handleDeleteSource deletes a source and re-renders the source list.
func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		idStr := strings.TrimPrefix(r.URL.Path, "/sources/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			http.Error(w, "Invalid source ID", http.StatusBadRequest)
			return
		}

		if err := s.db.DeleteSource(id); err != nil {
			slog.Error("error deleting source", "id", id, "error", err)
			http.Error(w, "Failed to delete source", http.StatusInternalServerError)
			return
		}
		s.renderSourceList(w)
	}
}

func (s *Server) renderSourceList(w http.ResponseWriter) {
	sources, err := s.db.GetAllSources()
	if err != nil {
		slog.Error("error getting sources", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.templates.ExecuteTemplate(w, "source_list", map[string]interface{}{
		"Sources": sources,
	})
}

// handlePostSync triggers a manual sync and re-renders the source list.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Run in the foreground to make the user wait.
		if err := sync.RunSync(s.db); err != nil {
			slog.Error("manual sync failed", "error", err)
			http.Error(w, "Sync failed", http.StatusInternalServerError)
			return
		}

		s.templates.ExecuteTemplate(w, "sync_success", nil)
		s.renderSourceList(w)
	}
}
