package post

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anshk/inkwell/backend/internal/auth"
	"github.com/anshk/inkwell/backend/internal/middleware"
	"github.com/anshk/inkwell/backend/internal/models"
	"github.com/anshk/inkwell/backend/internal/store"
)

// memUserStore satisfies both auth.UserStore and post.UserLookup so the
// scenario below can run register, login, and post routes against one router.
type memUserStore struct {
	mu     sync.Mutex
	users  map[string]*models.User
	nextID int
}

func (m *memUserStore) CreateUser(_ context.Context, username, name, hashedPw string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; ok {
		return nil, store.ErrUsernameTaken
	}
	m.nextID++
	u := &models.User{ID: fmt.Sprintf("user-%d", m.nextID), Username: username, Name: name, Password: hashedPw}
	m.users[username] = u
	return u, nil
}

func (m *memUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[username]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (m *memUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func TestRegisterLoginMyPosts(t *testing.T) {
	users := &memUserStore{users: make(map[string]*models.User)}
	tokens := auth.NewTokens([]byte("scenario-secret"))
	authHandler := auth.NewHandler(users, tokens)
	postHandler := NewHandler(newFakePostStore(), newFakeImageStore(), users, newFakeCache())

	r := chi.NewRouter()
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})
	r.Route("/api/posts", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(tokens))
			r.Get("/mine", postHandler.Mine)
		})
	})

	do := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	// Register Ada.
	rec := do(httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"name":"Ada","username":"ada","password":"secret1"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	// Wrong password is rejected generically.
	rec = do(httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"ada","password":"wrong"}`)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")

	// Correct password sets the token cookie.
	rec = do(httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"ada","password":"secret1"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	// "My posts" without the cookie is rejected.
	rec = do(httptest.NewRequest(http.MethodGet, "/api/posts/mine", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unauthorized")

	// With the cookie it succeeds, empty list since Ada has no posts yet.
	req := httptest.NewRequest(http.MethodGet, "/api/posts/mine", nil)
	req.AddCookie(cookies[0])
	rec = do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
