package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/conduitlabs/conduit/backend/internal/articles"
	"github.com/conduitlabs/conduit/backend/internal/auth"
	"github.com/conduitlabs/conduit/backend/internal/social"
	"github.com/conduitlabs/conduit/backend/internal/users"
	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:server_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&users.User{},
		&social.FollowEdge{},
		&articles.Article{},
		&articles.Tag{},
		&articles.ArticleTag{},
		&articles.ArticleFavorite{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	tokenIssuer := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte("test-signing-secret"),
		Issuer:        "conduit-auth",
		Audience:      "conduit-api",
		TokenTTL:      time.Minute,
	})

	userService, err := users.NewService(users.ServiceConfig{
		Database:   db,
		IDProvider: users.NewUUIDProvider(),
	})
	if err != nil {
		t.Fatalf("failed to create user service: %v", err)
	}

	followGraph, err := social.NewGraph(social.GraphConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to create follow graph: %v", err)
	}

	articleStore, err := articles.NewStore(articles.StoreConfig{
		Database:   db,
		IDProvider: articles.NewUUIDProvider(),
	})
	if err != nil {
		t.Fatalf("failed to create article store: %v", err)
	}

	favoriteTracker, err := articles.NewFavorites(db, nil)
	if err != nil {
		t.Fatalf("failed to create favorites: %v", err)
	}

	tagCatalog, err := articles.NewCatalog(db)
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}

	articleQuery, err := articles.NewQuery(articles.QueryConfig{
		Store:     articleStore,
		Favorites: favoriteTracker,
		Follows:   followGraph,
		Authors:   NewAuthorResolver(userService),
	})
	if err != nil {
		t.Fatalf("failed to create query service: %v", err)
	}

	handler, err := NewHTTPHandler(Dependencies{
		Tokens:    tokenIssuer,
		Users:     userService,
		Store:     articleStore,
		Favorites: favoriteTracker,
		Catalog:   tagCatalog,
		Follows:   followGraph,
		Query:     articleQuery,
		Logger:    zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}
	return handler
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Token "+token)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func registerUser(t *testing.T, handler http.Handler, username, email string) string {
	t.Helper()

	body := map[string]map[string]string{"user": {
		"username": username,
		"email":    email,
		"password": "secret",
	}}
	recorder := doJSON(t, handler, http.MethodPost, "/api/users", "", body)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("failed to register %s: status %d body %s", username, recorder.Code, recorder.Body.String())
	}

	var response struct {
		User struct {
			Token string `json:"token"`
		} `json:"user"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	if response.User.Token == "" {
		t.Fatalf("expected token in register response")
	}
	return response.User.Token
}

func createArticle(t *testing.T, handler http.Handler, token, title string, tags []string) string {
	t.Helper()

	body := map[string]interface{}{"article": map[string]interface{}{
		"title":       title,
		"description": "d",
		"body":        "b",
		"tagList":     tags,
	}}
	recorder := doJSON(t, handler, http.MethodPost, "/api/articles", token, body)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("failed to create article %q: status %d body %s", title, recorder.Code, recorder.Body.String())
	}

	var response struct {
		Article struct {
			Slug string `json:"slug"`
		} `json:"article"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode article response: %v", err)
	}
	return response.Article.Slug
}
