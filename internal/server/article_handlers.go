package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/conduitlabs/conduit/backend/internal/articles"
	"github.com/gin-gonic/gin"
)

type articlePayload struct {
	Slug           string         `json:"slug"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Body           string         `json:"body"`
	TagList        []string       `json:"tagList"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	Favorited      bool           `json:"favorited"`
	FavoritesCount int64          `json:"favoritesCount"`
	Author         profilePayload `json:"author"`
}

type articleResponse struct {
	Article articlePayload `json:"article"`
}

type articleListResponse struct {
	Articles      []articlePayload `json:"articles"`
	ArticlesCount int              `json:"articlesCount"`
}

func articlePayloadFrom(info articles.ArticleInfo) articlePayload {
	tags := info.Tags
	if tags == nil {
		tags = []string{}
	}
	return articlePayload{
		Slug:           info.Article.Slug,
		Title:          info.Article.Title,
		Description:    info.Article.Description,
		Body:           info.Article.Body,
		TagList:        tags,
		CreatedAt:      info.Article.CreatedAt,
		UpdatedAt:      info.Article.UpdatedAt,
		Favorited:      info.Favorited,
		FavoritesCount: info.FavoritesCount,
		Author: profilePayload{
			Username:  info.Author.Username,
			Bio:       info.Author.Bio,
			Image:     info.Author.ImageURL,
			Following: info.Following,
		},
	}
}

func articleListResponseFrom(infos []articles.ArticleInfo) articleListResponse {
	payloads := make([]articlePayload, 0, len(infos))
	for _, info := range infos {
		payloads = append(payloads, articlePayloadFrom(info))
	}
	return articleListResponse{Articles: payloads, ArticlesCount: len(payloads)}
}

func facetsFromQuery(c *gin.Context) articles.Facets {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return articles.Facets{
		Tag:         c.Query("tag"),
		Author:      c.Query("author"),
		FavoritedBy: c.Query("favorited"),
		Limit:       limit,
		Offset:      offset,
	}
}

func (h *httpHandler) handleListArticles(c *gin.Context) {
	viewerID := c.GetString(userIDContextKey)
	infos, err := h.query.List(c.Request.Context(), viewerID, facetsFromQuery(c))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, articleListResponseFrom(infos))
}

func (h *httpHandler) handleFeed(c *gin.Context) {
	viewerID := c.GetString(userIDContextKey)
	infos, err := h.query.Feed(c.Request.Context(), viewerID, facetsFromQuery(c))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, articleListResponseFrom(infos))
}

func (h *httpHandler) handleGetArticle(c *gin.Context) {
	article, err := h.store.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}

	viewerID := c.GetString(userIDContextKey)
	info, err := h.query.ArticleInfo(c.Request.Context(), viewerID, article)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, articleResponse{Article: articlePayloadFrom(info)})
}

type createArticleRequest struct {
	Article struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Body        string   `json:"body"`
		TagList     []string `json:"tagList"`
	} `json:"article"`
}

func (h *httpHandler) handleCreateArticle(c *gin.Context) {
	var request createArticleRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	authorID := c.GetString(userIDContextKey)
	article, err := h.store.Create(c.Request.Context(), articles.CreateParams{
		AuthorID:    authorID,
		Title:       request.Article.Title,
		Description: request.Article.Description,
		Body:        request.Article.Body,
		Tags:        request.Article.TagList,
	})
	if err != nil {
		h.writeDomainError(c, err)
		return
	}

	info, err := h.query.ArticleInfo(c.Request.Context(), authorID, article)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, articleResponse{Article: articlePayloadFrom(info)})
}

type updateArticleRequest struct {
	Article struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Body        *string `json:"body"`
	} `json:"article"`
}

func (h *httpHandler) handleUpdateArticle(c *gin.Context) {
	var request updateArticleRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	requesterID := c.GetString(userIDContextKey)
	slug := c.Param("slug")

	article, err := h.store.BySlug(c.Request.Context(), slug)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}

	if request.Article.Title != nil {
		article, err = h.store.EditTitle(c.Request.Context(), requesterID, slug, *request.Article.Title)
		if err != nil {
			h.writeDomainError(c, err)
			return
		}
		slug = article.Slug
	}
	if request.Article.Description != nil {
		article, err = h.store.EditDescription(c.Request.Context(), requesterID, slug, *request.Article.Description)
		if err != nil {
			h.writeDomainError(c, err)
			return
		}
	}
	if request.Article.Body != nil {
		article, err = h.store.EditBody(c.Request.Context(), requesterID, slug, *request.Article.Body)
		if err != nil {
			h.writeDomainError(c, err)
			return
		}
	}

	info, err := h.query.ArticleInfo(c.Request.Context(), requesterID, article)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, articleResponse{Article: articlePayloadFrom(info)})
}

func (h *httpHandler) handleDeleteArticle(c *gin.Context) {
	requesterID := c.GetString(userIDContextKey)
	if err := h.store.Delete(c.Request.Context(), requesterID, c.Param("slug")); err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleFavorite(c *gin.Context) {
	viewerID := c.GetString(userIDContextKey)
	article, err := h.store.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}

	if err := h.favorites.Favorite(c.Request.Context(), viewerID, article.ID); err != nil {
		h.writeDomainError(c, err)
		return
	}

	info, err := h.query.ArticleInfo(c.Request.Context(), viewerID, article)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, articleResponse{Article: articlePayloadFrom(info)})
}

func (h *httpHandler) handleUnfavorite(c *gin.Context) {
	viewerID := c.GetString(userIDContextKey)
	article, err := h.store.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}

	if err := h.favorites.Unfavorite(c.Request.Context(), viewerID, article.ID); err != nil {
		h.writeDomainError(c, err)
		return
	}

	info, err := h.query.ArticleInfo(c.Request.Context(), viewerID, article)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, articleResponse{Article: articlePayloadFrom(info)})
}

func (h *httpHandler) handleListTags(c *gin.Context) {
	names, err := h.catalog.All(c.Request.Context())
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"tags": names})
}
