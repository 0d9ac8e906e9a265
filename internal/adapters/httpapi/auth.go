package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/owndc/owndc/internal/domain"
	"github.com/owndc/owndc/internal/store"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (a *API) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	u, err := a.Store.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrUsernameTaken), errors.Is(err, store.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrUsernameTooLong), errors.Is(err, domain.ErrUsernameEmpty):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Error().Err(err).Str("module", "httpapi").Msg("register")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}
	a.startSession(c, u)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	u, err := a.Store.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrBadLogin) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		log.Error().Err(err).Str("module", "httpapi").Msg("login")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	a.startSession(c, u)
}

func (a *API) startSession(c *gin.Context, u *domain.User) {
	sess := sessions.Default(c)
	sess.Set(sessionUserKey, string(u.ID))
	if err := sess.Save(); err != nil {
		log.Error().Err(err).Str("module", "httpapi").Msg("save session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (a *API) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	c.Status(http.StatusNoContent)
}

func (a *API) Me(c *gin.Context) {
	uid := domain.UserID(c.GetString("user_id"))
	u, err := a.Store.UserByID(uid)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
