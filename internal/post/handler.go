package post

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/anshk/inkwell/backend/internal/auth"
	"github.com/anshk/inkwell/backend/internal/models"
	"github.com/anshk/inkwell/backend/internal/store"
)

const (
	maxImageSize    = 10 << 20 // 10 MiB multipart memory budget
	defaultPageSize = 10
	maxPageSize     = 100
	searchLimit     = 10
)

// PostStore defines the interface for post persistence.
type PostStore interface {
	Insert(ctx context.Context, post *models.Post) (string, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, id, title, content string) (*models.Post, error)
	Delete(ctx context.Context, id string) error
	ListPage(ctx context.Context, page, limit int) ([]models.Post, int64, error)
	ListByAuthor(ctx context.Context, authorID string) ([]models.Post, error)
	SearchTitle(ctx context.Context, query string, limit int) ([]models.Post, error)
}

// ImageStore defines the interface for post image storage.
type ImageStore interface {
	UploadImage(ctx context.Context, data []byte, contentType, ext string) (string, error)
	DownloadImage(ctx context.Context, key string) ([]byte, string, error)
	RemoveImage(ctx context.Context, key string) error
}

// UserLookup resolves the authenticated subject to the identity denormalized
// into new posts.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// PageCache defines the interface for the feed-page cache.
type PageCache interface {
	Get(ctx context.Context, page, limit int) *models.PostPage
	Set(ctx context.Context, page, limit int, pp *models.PostPage)
	Invalidate(ctx context.Context)
}

// Handler holds post HTTP handlers.
type Handler struct {
	posts  PostStore
	images ImageStore
	users  UserLookup
	cache  PageCache
}

func NewHandler(posts PostStore, images ImageStore, users UserLookup, cache PageCache) *Handler {
	return &Handler{posts: posts, images: images, users: users, cache: cache}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func subject(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
	}
	return userID, ok
}

// Create accepts a multipart form with title, content, and an optional image
// and stores a new post owned by the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := subject(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		http.Error(w, `{"error":"invalid form data"}`, http.StatusBadRequest)
		return
	}
	title := r.FormValue("title")
	content := r.FormValue("content")
	switch {
	case title == "" || content == "":
		http.Error(w, `{"error":"title and content are required"}`, http.StatusBadRequest)
		return
	case len(title) > 100:
		http.Error(w, `{"error":"title cannot exceed 100 characters"}`, http.StatusBadRequest)
		return
	}

	imageKey := ""
	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, `{"error":"invalid image upload"}`, http.StatusBadRequest)
			return
		}
		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}
		imageKey, err = h.images.UploadImage(r.Context(), data, contentType, filepath.Ext(header.Filename))
		if err != nil {
			log.Printf("image upload error: %v", err)
			http.Error(w, `{"error":"Server error"}`, http.StatusInternalServerError)
			return
		}
	}

	author, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		log.Printf("author lookup error: %v", err)
		http.Error(w, `{"error":"Server error"}`, http.StatusInternalServerError)
		return
	}

	p := &models.Post{
		Title:    title,
		Content:  content,
		ImageKey: imageKey,
		Author: models.Author{
			ID:       author.ID,
			Username: author.Username,
			Name:     author.Name,
		},
	}
	id, err := h.posts.Insert(r.Context(), p)
	if err != nil {
		log.Printf("post insert error: %v", err)
		http.Error(w, `{"error":"Server error"}`, http.StatusInternalServerError)
		return
	}
	h.cache.Invalidate(r.Context())

	saved, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		log.Printf("post refetch error: %v", err)
		http.Error(w, `{"error":"Server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// List returns one page of the public feed, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", defaultPageSize)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}

	if cached := h.cache.Get(r.Context(), page, limit); cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	posts, total, err := h.posts.ListPage(r.Context(), page, limit)
	if err != nil {
		log.Printf("feed list error: %v", err)
		http.Error(w, `{"error":"Server error"}`, http.StatusInternalServerError)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	pp := &models.PostPage{
		Posts: posts,
		Pagination: models.Pagination{
			CurrentPage:     page,
			TotalPages:      totalPages,
			TotalPosts:      total,
			PostsPerPage:    limit,
			HasNextPage:     page < totalPages,
			HasPreviousPage: page > 1,
		},
	}
	h.cache.Set(r.Context(), page, limit, pp)
	writeJSON(w, http.StatusOK, pp)
}

// Get returns a single post.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.posts.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"Post not found"}`, http.StatusNotFound)
			return
		}
		log.Printf("post get error: %v", err)
		http.Error(w, `{"error":"Server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Update rewrites a post's title and content. Only the post's author may
// update it.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := subject(w, r)
	if !ok {
		return
	}

	var req models.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	switch {
	case req.Title == "" || req.Content == "":
		http.Error(w, `{"error":"title and content are required"}`, http.StatusBadRequest)
		return
	case len(req.Title) > 100:
		http.Error(w, `{"error":"title cannot exceed 100 characters"}`, http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	p, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"Post not found"}`, http.StatusNotFound)
			return
		}
		log.Printf("post get error: %v", err)
		http.Error(w, `{"error":"Server error"}`, http.StatusInternalServerError)
		return
	}
	if p.Author.ID != userID {
		http.Error(w, `{"error":"Forbidden"}`, http.StatusForbidden)
		return
	}

	updated, err := h.posts.Update(r.Context(), id, req.Title, req.Content)
	if err != nil {
		log.Printf("post update error: %v", err)
		http.Error(w, `{"error":"Server error"}`, http.StatusInternalServerError)
		return
	}
	h.cache.Invalidate(r.Context())
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes a post and its stored image. Only the post's author may
// delete it.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := subject(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	p, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"Post not found"}`, http.StatusNotFound)
			return
		}
		log.Printf("post get error: %v", err)
		http.Error(w, `{"error":"Server error"}`, http.StatusInternalServerError)
		return
	}
	if p.Author.ID != userID {
		http.Error(w, `{"error":"Forbidden"}`, http.StatusForbidden)
		return
	}

	if p.ImageKey != "" {
		if err := h.images.RemoveImage(r.Context(), p.ImageKey); err != nil {
			log.Printf("image remove error (non-fatal): %v", err)
		}
	}

	if err := h.posts.Delete(r.Context(), id); err != nil {
		log.Printf("post delete error: %v", err)
		http.Error(w, `{"error":"Server error"}`, http.StatusInternalServerError)
		return
	}
	h.cache.Invalidate(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
}

// Mine returns the caller's own posts, newest first.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := subject(w, r)
	if !ok {
		return
	}

	posts, err := h.posts.ListByAuthor(r.Context(), userID)
	if err != nil {
		log.Printf("my posts error: %v", err)
		http.Error(w, `{"error":"Server error"}`, http.StatusInternalServerError)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// Search returns posts whose title matches the q parameter.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusOK, map[string][]models.Post{"results": {}})
		return
	}

	results, err := h.posts.SearchTitle(r.Context(), query, searchLimit)
	if err != nil {
		log.Printf("search error: %v", err)
		http.Error(w, `{"error":"Search failed"}`, http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []models.Post{}
	}
	writeJSON(w, http.StatusOK, map[string][]models.Post{"results": results})
}

// Image streams a post's stored image.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	p, err := h.posts.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil || p.ImageKey == "" {
		http.Error(w, `{"error":"image not available"}`, http.StatusNotFound)
		return
	}

	data, contentType, err := h.images.DownloadImage(r.Context(), p.ImageKey)
	if err != nil {
		log.Printf("image download error: %v", err)
		http.Error(w, `{"error":"Server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
