package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkwell-dev/inkwell/internal/store"
)

// handleListPosts returns the session user's posts, projected without content.
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	posts, err := s.store.ListPostSummaries(r.Context(), sess.UserID)
	if err != nil {
		s.logger.Error("list posts failed", "user", sess.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if posts == nil {
		posts = []store.PostSummary{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// handleCreatePost creates a post for the session user. The quota check runs
// before validation, matching the resource's admission order: session, plan
// quota, payload.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	sess := sessionFromContext(r.Context())

	decision, err := s.subs.CheckPostQuota(r.Context(), sess.UserID)
	if err != nil {
		s.logger.Error("quota check failed", "user", sess.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if !decision.Allowed {
		writeError(w, http.StatusPaymentRequired, "Requires Pro Plan")
		return
	}

	input, issues, err := decodePostCreate(r.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if len(issues) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, issues)
		return
	}

	post := &store.Post{
		ID:        uuid.New().String(),
		AuthorID:  sess.UserID,
		Title:     input.Title,
		CreatedAt: time.Now().UTC(),
	}
	if input.Content != nil {
		post.Content = *input.Content
	}

	if err := s.store.CreatePost(r.Context(), post); err != nil {
		s.logger.Error("create post failed", "user", sess.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": post.ID})
}

// handleGetPost returns a single post owned by the session user.
func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	postID := chi.URLParam(r, "postID")

	post, err := s.store.GetPost(r.Context(), postID)
	if err != nil {
		s.logger.Error("get post failed", "post", postID, "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if post == nil || post.AuthorID != sess.UserID {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// --- Validation ---

// Issue describes a single payload validation failure. The 422 response body
// is the bare array of issues.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type postCreateInput struct {
	Title   string  `json:"title"`
	Content *string `json:"content"`
}

// decodePostCreate parses and validates a post creation body. Field-level
// problems come back as issues; an unreadable body comes back as an error and
// is treated as an unexpected condition by the caller.
func decodePostCreate(body io.Reader) (postCreateInput, []Issue, error) {
	var in postCreateInput
	if err := json.NewDecoder(body).Decode(&in); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "body"
			}
			return in, []Issue{{
				Field:   field,
				Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
			}}, nil
		}
		return in, nil, fmt.Errorf("decode body: %w", err)
	}

	var issues []Issue
	if strings.TrimSpace(in.Title) == "" {
		issues = append(issues, Issue{Field: "title", Message: "title is required"})
	}
	return in, issues, nil
}
