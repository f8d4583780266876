package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"snipstream/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"snipstream/internal/database"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret: "test-secret-at-least-32-characters-long",
		Port:      "0",
		Env:       "test",
	}
}

// setupServerTest builds a server over a fresh in-memory database and
// miniredis, with routes mounted on a bare fiber app.
func setupServerTest(t *testing.T) (*fiber.App, *Server) {
	t.Helper()

	db, err := database.ConnectTest()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	srv, err := NewServerWithDeps(testConfig(), db, rdb)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupRoutes(app)
	return app, srv
}

type authedUser struct {
	ID       uint
	Username string
	Token    string
}

// signupTestUser registers a user through the API and returns its token.
func signupTestUser(t *testing.T, app *fiber.App) authedUser {
	t.Helper()

	username := gofakeit.Username() + gofakeit.DigitN(4)
	body := map[string]string{
		"username": username,
		"email":    gofakeit.Email(),
		"password": "Password123!",
	}

	resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", body)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)

	return authedUser{ID: out.User.ID, Username: username, Token: out.Token}
}

// doJSON issues a request with an optional bearer token and JSON body.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// decodeBody reads a response body into a generic map.
func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// followUser makes follower follow target through the API.
func followUser(t *testing.T, app *fiber.App, follower authedUser, targetID uint) {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/users/%d/follow", targetID), follower.Token, nil)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// createSnippet posts a snippet and returns its id.
func createSnippet(t *testing.T, app *fiber.App, author authedUser, title string) uint {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/snippets", author.Token, map[string]interface{}{
		"title":    title,
		"content":  "fmt.Println(\"hello\")",
		"language": "go",
		"tags":     []string{"go", "example"},
	})
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.ID
}
