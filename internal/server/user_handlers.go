package server

import (
	"net/http"

	"github.com/conduitlabs/conduit/backend/internal/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type userPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
	Token    string `json:"token,omitempty"`
}

type userResponse struct {
	User userPayload `json:"user"`
}

func userResponseFrom(user users.User, token string) userResponse {
	return userResponse{User: userPayload{
		Username: user.Username,
		Email:    user.Email,
		Bio:      user.Bio,
		Image:    user.ImageURL,
		Token:    token,
	}}
}

type registerRequest struct {
	User struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"user"`
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	var request registerRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	user, err := h.users.Register(c.Request.Context(), request.User.Username, request.User.Email, request.User.Password)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}

	token, _, err := h.tokens.Issue(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusCreated, userResponseFrom(user, token))
}

type loginRequest struct {
	User struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"user"`
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), request.User.Email, request.User.Password)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}

	token, _, err := h.tokens.Issue(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, userResponseFrom(user, token))
}

func (h *httpHandler) handleCurrentUser(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	user, err := h.users.ByID(c.Request.Context(), userID)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponseFrom(user, ""))
}

type updateUserRequest struct {
	User struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Bio      *string `json:"bio"`
		Image    *string `json:"image"`
	} `json:"user"`
}

func (h *httpHandler) handleUpdateUser(c *gin.Context) {
	var request updateUserRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	userID := c.GetString(userIDContextKey)
	user, err := h.users.Update(c.Request.Context(), userID, users.UpdateParams{
		Username: request.User.Username,
		Email:    request.User.Email,
		Password: request.User.Password,
		Bio:      request.User.Bio,
		ImageURL: request.User.Image,
	})
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponseFrom(user, ""))
}
