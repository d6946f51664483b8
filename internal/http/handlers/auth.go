package handlers

import (
	"context"
	"net/http"

	"busbooking/internal/auth"
	"busbooking/internal/domain/models"
	"busbooking/internal/http/middleware"
	"busbooking/internal/utils"

	"github.com/gin-gonic/gin"
)

// UserStore is the account backend used by login and registration.
type UserStore interface {
	Authenticate(ctx context.Context, email, password string) (models.Identity, error)
	Create(ctx context.Context, name, email, password string) (models.Identity, error)
}

type AuthHandler struct {
	Users   UserStore
	Issuer  auth.TokenIssuer
	Returns auth.ReturnPathStore
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (h AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	id, err := h.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, id)
}

// POST /api/auth/register
func (h AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	id, err := h.Users.Create(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "auth", "register", "user_id="+id.UserID)
	h.respondWithToken(c, http.StatusCreated, id)
}

// respondWithToken issues the token and hands back the destination saved
// when the reservation flow redirected to sign-in, once.
func (h AuthHandler) respondWithToken(c *gin.Context, status int, id models.Identity) {
	token, err := h.Issuer.Issue(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	returnTo := ""
	if h.Returns != nil {
		returnTo, err = h.Returns.ConsumeReturnTo(c.Request.Context(), middleware.GetSessionID(c))
		if err != nil {
			_ = c.Error(err)
			returnTo = ""
		}
	}
	c.JSON(status, gin.H{
		"token":    token,
		"user":     id,
		"returnTo": returnTo,
	})
}
