package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inkpress/inkpress/middleware"
	"github.com/inkpress/inkpress/models"
	"github.com/inkpress/inkpress/repositories"
	"github.com/inkpress/inkpress/utils"
)

const tokenLifetime = 72 * time.Hour

// AuthController handles registration, login, and profile lookup. The
// issued token carries the subject id and administrative flag the core
// trusts verbatim.
type AuthController struct {
	users repositories.UserStore
}

func NewAuthController(users repositories.UserStore) *AuthController {
	return &AuthController{users: users}
}

// Register creates a user with a bcrypt password hash.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=32"`
		Email    string `json:"email" binding:"omitempty,email"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid request payload")
		return
	}

	username := strings.TrimSpace(req.Username)
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to process password")
		return
	}

	user := &models.User{
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
	}
	if err := a.users.Insert(user); err != nil {
		if errors.Is(err, repositories.ErrUsernameTaken) {
			utils.Error(ctx, http.StatusConflict, 40903, "username already taken")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to register user")
		return
	}

	utils.Created(ctx, gin.H{"user": user})
}

// Login verifies credentials and issues a signed bearer token.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	user, err := a.users.FindByUsername(req.Username)
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.IsAdmin, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Me returns the authenticated user's record.
func (a *AuthController) Me(ctx *gin.Context) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	user, err := a.users.FindByID(actor.ID)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}
