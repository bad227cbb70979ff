package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/conduitlabs/conduit/backend/internal/articles"
	"github.com/conduitlabs/conduit/backend/internal/social"
	"github.com/conduitlabs/conduit/backend/internal/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const userIDContextKey = "conduit_user_id"

var (
	errMissingTokenManager = errors.New("token manager dependency required")
	errMissingUserService  = errors.New("user service dependency required")
	errMissingStore        = errors.New("article store dependency required")
	errMissingFavorites    = errors.New("favorite tracker dependency required")
	errMissingCatalog      = errors.New("tag catalog dependency required")
	errMissingFollowGraph  = errors.New("follow graph dependency required")
	errMissingQuery        = errors.New("article query dependency required")
)

// TokenManager mints and validates bearer credentials.
type TokenManager interface {
	Issue(ctx context.Context, userID string) (string, int64, error)
	Validate(token string) (string, error)
}

// Dependencies wires the HTTP surface to the domain services.
type Dependencies struct {
	Tokens    TokenManager
	Users     *users.Service
	Store     *articles.Store
	Favorites *articles.Favorites
	Catalog   *articles.Catalog
	Follows   *social.Graph
	Query     *articles.Query
	Logger    *zap.Logger
}

// NewHTTPHandler builds the gin router serving the API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Tokens == nil {
		return nil, errMissingTokenManager
	}
	if deps.Users == nil {
		return nil, errMissingUserService
	}
	if deps.Store == nil {
		return nil, errMissingStore
	}
	if deps.Favorites == nil {
		return nil, errMissingFavorites
	}
	if deps.Catalog == nil {
		return nil, errMissingCatalog
	}
	if deps.Follows == nil {
		return nil, errMissingFollowGraph
	}
	if deps.Query == nil {
		return nil, errMissingQuery
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:    deps.Tokens,
		users:     deps.Users,
		store:     deps.Store,
		favorites: deps.Favorites,
		catalog:   deps.Catalog,
		follows:   deps.Follows,
		query:     deps.Query,
		logger:    logger,
	}

	api := router.Group("/api")

	api.POST("/users", handler.handleRegister)
	api.POST("/users/login", handler.handleLogin)
	api.GET("/tags", handler.handleListTags)

	optional := api.Group("/")
	optional.Use(handler.resolveOptionalUser)
	optional.GET("/profiles/:username", handler.handleGetProfile)
	optional.GET("/articles", handler.handleListArticles)
	optional.GET("/articles/:slug", handler.handleGetArticle)

	protected := api.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.GET("/user", handler.handleCurrentUser)
	protected.PUT("/user", handler.handleUpdateUser)
	protected.POST("/profiles/:username/follow", handler.handleFollow)
	protected.DELETE("/profiles/:username/follow", handler.handleUnfollow)
	protected.GET("/articles/feed", handler.handleFeed)
	protected.POST("/articles", handler.handleCreateArticle)
	protected.PUT("/articles/:slug", handler.handleUpdateArticle)
	protected.DELETE("/articles/:slug", handler.handleDeleteArticle)
	protected.POST("/articles/:slug/favorite", handler.handleFavorite)
	protected.DELETE("/articles/:slug/favorite", handler.handleUnfavorite)

	return router, nil
}

type httpHandler struct {
	tokens    TokenManager
	users     *users.Service
	store     *articles.Store
	favorites *articles.Favorites
	catalog   *articles.Catalog
	follows   *social.Graph
	query     *articles.Query
	logger    *zap.Logger
}

// authorizeRequest requires a valid bearer credential and stores the caller's
// user id on the request context.
func (h *httpHandler) authorizeRequest(c *gin.Context) {
	userID, ok := h.userIDFromHeader(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, userID)
	c.Next()
}

// resolveOptionalUser stores the caller's user id when a valid credential is
// present and proceeds anonymously otherwise.
func (h *httpHandler) resolveOptionalUser(c *gin.Context) {
	if userID, ok := h.userIDFromHeader(c); ok {
		c.Set(userIDContextKey, userID)
	}
	c.Next()
}

func (h *httpHandler) userIDFromHeader(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", false
	}
	fields := strings.Fields(header)
	if len(fields) != 2 {
		return "", false
	}
	scheme := strings.ToLower(fields[0])
	if scheme != "token" && scheme != "bearer" {
		return "", false
	}
	userID, err := h.tokens.Validate(fields[1])
	if err != nil {
		return "", false
	}
	return userID, true
}

// writeDomainError maps domain sentinels to status codes: missing entities to
// 404, uniqueness and favorite conflicts to 409, non-author mutation to 403.
func (h *httpHandler) writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, users.ErrUserNotFound), errors.Is(err, articles.ErrArticleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, articles.ErrTitleTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "title_taken"})
	case errors.Is(err, articles.ErrAlreadyFavorited):
		c.JSON(http.StatusConflict, gin.H{"error": "already_favorited"})
	case errors.Is(err, articles.ErrNotFavorited):
		c.JSON(http.StatusConflict, gin.H{"error": "not_favorited"})
	case errors.Is(err, users.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "username_taken"})
	case errors.Is(err, users.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email_taken"})
	case errors.Is(err, articles.ErrNotAuthor):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, articles.ErrInvalidArticle), errors.Is(err, users.ErrInvalidRegistration):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
	case errors.Is(err, users.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
	default:
		h.logger.Error("request failed", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
