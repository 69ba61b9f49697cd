package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/anshk/inkwell/backend/internal/models"
	"github.com/anshk/inkwell/backend/internal/store"
)

// fakeUserStore is an in-memory UserStore with the same uniqueness semantics
// as the Postgres one.
type fakeUserStore struct {
	mu     sync.Mutex
	users  map[string]*models.User // keyed by username
	nextID int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) CreateUser(_ context.Context, username, name, hashedPw string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[username]; ok {
		return nil, store.ErrUsernameTaken
	}
	f.nextID++
	u := &models.User{
		ID:       fmt.Sprintf("user-%d", f.nextID),
		Username: username,
		Name:     name,
		Password: hashedPw,
	}
	f.users[username] = u
	return u, nil
}

func (f *fakeUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func newTestHandler() (*Handler, *fakeUserStore, *Tokens) {
	users := newFakeUserStore()
	tokens := NewTokens([]byte("test-secret"))
	return NewHandler(users, tokens), users, tokens
}

func doJSON(t *testing.T, h http.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRegister_Success(t *testing.T) {
	h, users, _ := newTestHandler()

	rec := doJSON(t, h.Register, http.MethodPost,
		`{"name":"Ada","username":"ada","password":"secret1"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "User created successfully")

	stored := users.users["ada"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret1", stored.Password, "plaintext must never be stored")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret1")))
}

func TestRegister_DuplicateUsername(t *testing.T) {
	h, users, _ := newTestHandler()

	body := `{"name":"Ada","username":"ada","password":"secret1"}`
	rec := doJSON(t, h.Register, http.MethodPost, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h.Register, http.MethodPost, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username already exists")
	assert.Len(t, users.users, 1, "second attempt must not create a record")
}

func TestRegister_Validation(t *testing.T) {
	h, _, _ := newTestHandler()

	cases := []struct {
		name string
		body string
	}{
		{"missing fields", `{"username":"ada"}`},
		{"short username", `{"name":"Ada","username":"ab","password":"secret1"}`},
		{"long username", fmt.Sprintf(`{"name":"Ada","username":%q,"password":"secret1"}`, strings.Repeat("a", 31))},
		{"short password", `{"name":"Ada","username":"ada","password":"pw"}`},
		{"bad json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, h.Register, http.MethodPost, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLogin_GenericRejection(t *testing.T) {
	h, _, _ := newTestHandler()
	doJSON(t, h.Register, http.MethodPost, `{"name":"Ada","username":"ada","password":"secret1"}`)

	unknown := doJSON(t, h.Login, http.MethodPost, `{"username":"ghost","password":"secret1"}`)
	wrongPw := doJSON(t, h.Login, http.MethodPost, `{"username":"ada","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	// Unknown username and wrong password must be indistinguishable.
	assert.Equal(t, unknown.Body.String(), wrongPw.Body.String())
	assert.Contains(t, wrongPw.Body.String(), "Invalid credentials")
}

func TestLogin_Success(t *testing.T) {
	h, users, tokens := newTestHandler()
	doJSON(t, h.Register, http.MethodPost, `{"name":"Ada","username":"ada","password":"secret1"}`)

	rec := doJSON(t, h.Login, http.MethodPost, `{"username":"ada","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Login successful", resp.Message)
	assert.Equal(t, "ada", resp.User.Username)
	assert.Equal(t, "Ada", resp.User.Name)
	assert.NotContains(t, rec.Body.String(), users.users["ada"].Password,
		"password digest must never appear in a response")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, TokenCookie, c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, 86400, c.MaxAge)

	subject, err := tokens.Verify(c.Value)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, subject)
}

func TestLogout_ClearsCookie(t *testing.T) {
	h, _, _ := newTestHandler()

	rec := doJSON(t, h.Logout, http.MethodPost, "")
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, TokenCookie, cookies[0].Name)
	assert.Equal(t, "", cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestMe(t *testing.T) {
	h, users, _ := newTestHandler()
	u, err := users.CreateUser(context.Background(), "ada", "Ada", "digest")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUserID(req.Context(), u.ID))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.PublicUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, u.ID, got.ID)
	assert.NotContains(t, rec.Body.String(), "digest")
}
