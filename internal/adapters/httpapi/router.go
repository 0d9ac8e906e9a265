// Package httpapi wires the gin router: cookie sessions, the REST API, the
// realtime endpoint, and static SPA serving.
package httpapi

import (
	"net/http"
	"path/filepath"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/owndc/owndc/internal/adapters/gateway"
	"github.com/owndc/owndc/internal/config"
	"github.com/owndc/owndc/internal/store"
)

const sessionUserKey = "user_id"

type API struct {
	Store store.Store
}

// AuthRequired loads the session identity into the gin context and rejects
// requests without one.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		uid, _ := sess.Get(sessionUserKey).(string)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
			return
		}
		c.Set("user_id", uid)
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, st store.Store, ws *gateway.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	cookieStore := cookie.NewStore([]byte(cfg.Secret))
	cookieStore.Options(sessions.Options{Path: "/", MaxAge: 24 * 60 * 60, HttpOnly: true})
	r.Use(sessions.Sessions("owndc_session", cookieStore))

	api := &API{Store: st}

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", api.Register)
		auth.POST("/login", api.Login)
		auth.POST("/logout", api.Logout)
		auth.GET("/me", AuthRequired(), api.Me)
	}

	guarded := r.Group("/api", AuthRequired())
	{
		guarded.GET("/users", api.SearchUsers)
		guarded.GET("/friends", api.ListFriends)
		guarded.GET("/friends/pending", api.PendingFriends)
		guarded.POST("/friends/request", api.RequestFriend)
		guarded.POST("/friends/accept", api.AcceptFriend)
		guarded.POST("/friends/decline", api.DeclineFriend)
		guarded.GET("/servers", api.ListServers)
		guarded.POST("/servers", api.CreateServer)
		guarded.POST("/servers/:id/join", api.JoinServer)
		guarded.GET("/servers/:id/channels", api.ServerChannels)
		guarded.GET("/channels", api.ListChannels)
		guarded.POST("/channels", api.CreateChannel)
		guarded.GET("/channels/:id/messages", api.ChannelHistory)
		guarded.GET("/dms/:id", api.DMHistory)
		guarded.GET("/groups", api.ListGroups)
		guarded.POST("/groups", api.CreateGroup)
		guarded.GET("/groups/:id/messages", api.GroupHistory)
	}

	r.GET("/ws", AuthRequired(), ws.HandleWS)

	// SPA: serve static assets, fall back to index.html.
	r.Static("/assets", filepath.Join(cfg.StaticPath, "assets"))
	r.NoRoute(func(c *gin.Context) {
		c.File(filepath.Join(cfg.StaticPath, "index.html"))
	})

	log.Info().Str("module", "httpapi").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}
