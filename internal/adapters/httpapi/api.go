package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/owndc/owndc/internal/domain"
	"github.com/owndc/owndc/internal/store"
)

const defaultHistoryLimit = 100

func historyLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", ""))
	if err != nil || n <= 0 || n > 500 {
		return defaultHistoryLimit
	}
	return n
}

func (a *API) SearchUsers(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}
	users, err := a.Store.SearchUsers(q, 25)
	if err != nil {
		log.Error().Err(err).Str("module", "httpapi").Msg("search users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (a *API) ListFriends(c *gin.Context) {
	uid := domain.UserID(c.GetString("user_id"))
	friends, err := a.Store.Friends(uid)
	if err != nil {
		log.Error().Err(err).Str("module", "httpapi").Msg("list friends")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

type friendRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func (a *API) RequestFriend(c *gin.Context) {
	uid := domain.UserID(c.GetString("user_id"))
	var req friendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := a.Store.RequestFriend(uid, domain.UserID(req.UserID)); err != nil {
		log.Error().Err(err).Str("module", "httpapi").Msg("friend request")
		c.JSON(http.StatusConflict, gin.H{"error": "request failed"})
		return
	}
	c.Status(http.StatusCreated)
}

func (a *API) AcceptFriend(c *gin.Context) {
	uid := domain.UserID(c.GetString("user_id"))
	var req friendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	// The requester is the row owner; the accepter flips it.
	if err := a.Store.AcceptFriend(domain.UserID(req.UserID), uid); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such request"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) PendingFriends(c *gin.Context) {
	uid := domain.UserID(c.GetString("user_id"))
	pending, err := a.Store.PendingFriends(uid)
	if err != nil {
		log.Error().Err(err).Str("module", "httpapi").Msg("pending friends")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": pending})
}

func (a *API) DeclineFriend(c *gin.Context) {
	uid := domain.UserID(c.GetString("user_id"))
	var req friendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := a.Store.DeclineFriend(domain.UserID(req.UserID), uid); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such request"})
		return
	}
	c.Status(http.StatusNoContent)
}

type createServerRequest struct {
	Name string `json:"name" binding:"required"`
	Icon string `json:"icon"`
}

func (a *API) CreateServer(c *gin.Context) {
	uid := domain.UserID(c.GetString("user_id"))
	var req createServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	srv, err := a.Store.CreateServer(req.Name, req.Icon, uid)
	if err != nil {
		log.Error().Err(err).Str("module", "httpapi").Msg("create server")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"server": srv})
}

func (a *API) ListServers(c *gin.Context) {
	uid := domain.UserID(c.GetString("user_id"))
	servers, err := a.Store.ServersOf(uid)
	if err != nil {
		log.Error().Err(err).Str("module", "httpapi").Msg("list servers")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"servers": servers})
}

func (a *API) JoinServer(c *gin.Context) {
	uid := domain.UserID(c.GetString("user_id"))
	srv := domain.ServerID(c.Param("id"))
	if err := a.Store.JoinServer(srv, uid); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no such server"})
			return
		}
		log.Error().Err(err).Str("module", "httpapi").Msg("join server")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "join failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"serverId": srv})
}

func (a *API) ServerChannels(c *gin.Context) {
	uid := domain.UserID(c.GetString("user_id"))
	channels, err := a.Store.ServerChannels(domain.ServerID(c.Param("id")), uid)
	if err != nil {
		if errors.Is(err, store.ErrNotMember) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
			return
		}
		log.Error().Err(err).Str("module", "httpapi").Msg("server channels")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

func (a *API) ListChannels(c *gin.Context) {
	channels, err := a.Store.Channels()
	if err != nil {
		log.Error().Err(err).Str("module", "httpapi").Msg("list channels")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

type createNameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (a *API) CreateChannel(c *gin.Context) {
	uid := domain.UserID(c.GetString("user_id"))
	var req createNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid name"})
		return
	}
	ch, err := a.Store.CreateChannel(req.Name, uid)
	if err != nil {
		log.Error().Err(err).Str("module", "httpapi").Msg("create channel")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"channel": ch})
}

func (a *API) ChannelHistory(c *gin.Context) {
	msgs, err := a.Store.ChannelMessages(domain.ChannelID(c.Param("id")), historyLimit(c))
	if err != nil {
		log.Error().Err(err).Str("module", "httpapi").Msg("channel history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (a *API) DMHistory(c *gin.Context) {
	uid := domain.UserID(c.GetString("user_id"))
	other := domain.UserID(c.Param("id"))
	msgs, err := a.Store.DirectMessages(uid, other, historyLimit(c))
	if err != nil {
		log.Error().Err(err).Str("module", "httpapi").Msg("dm history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (a *API) ListGroups(c *gin.Context) {
	uid := domain.UserID(c.GetString("user_id"))
	groups, err := a.Store.GroupsOf(uid)
	if err != nil {
		log.Error().Err(err).Str("module", "httpapi").Msg("list groups")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

type createGroupRequest struct {
	Name    string   `json:"name" binding:"required"`
	Members []string `json:"members"`
}

func (a *API) CreateGroup(c *gin.Context) {
	uid := domain.UserID(c.GetString("user_id"))
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	members := make([]domain.UserID, 0, len(req.Members))
	for _, m := range req.Members {
		members = append(members, domain.UserID(m))
	}
	g, err := a.Store.CreateGroup(req.Name, uid, members)
	if err != nil {
		log.Error().Err(err).Str("module", "httpapi").Msg("create group")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"group": g})
}

func (a *API) GroupHistory(c *gin.Context) {
	msgs, err := a.Store.GroupMessages(domain.GroupID(c.Param("id")), historyLimit(c))
	if err != nil {
		log.Error().Err(err).Str("module", "httpapi").Msg("group history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
