package server

import (
	"net/http"

	"github.com/conduitlabs/conduit/backend/internal/users"
	"github.com/gin-gonic/gin"
)

type profilePayload struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Following bool   `json:"following"`
}

type profileResponse struct {
	Profile profilePayload `json:"profile"`
}

func profileResponseFrom(user users.User, following bool) profileResponse {
	return profileResponse{Profile: profilePayload{
		Username:  user.Username,
		Bio:       user.Bio,
		Image:     user.ImageURL,
		Following: following,
	}}
}

func (h *httpHandler) handleGetProfile(c *gin.Context) {
	target, err := h.users.ByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}

	following := false
	if viewerID := c.GetString(userIDContextKey); viewerID != "" {
		following, err = h.follows.IsFollowing(c.Request.Context(), viewerID, target.ID)
		if err != nil {
			h.writeDomainError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, profileResponseFrom(target, following))
}

func (h *httpHandler) handleFollow(c *gin.Context) {
	followerID := c.GetString(userIDContextKey)
	target, err := h.users.ByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}

	if err := h.follows.Follow(c.Request.Context(), followerID, target.ID); err != nil {
		h.writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, profileResponseFrom(target, true))
}

func (h *httpHandler) handleUnfollow(c *gin.Context) {
	followerID := c.GetString(userIDContextKey)
	target, err := h.users.ByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}

	if err := h.follows.Unfollow(c.Request.Context(), followerID, target.ID); err != nil {
		h.writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, profileResponseFrom(target, false))
}
