package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"planpoker/internal/adapters/signal"
	"planpoker/internal/config"
	"planpoker/internal/domain"
	"planpoker/internal/storage"
)

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// SetupRouter wires the CRUD surface around the live session engine:
// room listing and creation backed by sqlite, slug resolution, static
// pages, and the websocket endpoint.
func SetupRouter(ctx context.Context, cfg *config.Config, store *storage.Store, ctrl *signal.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	cookieStore := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("PlanPokerSessions", cookieStore))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	r.GET("/r/:slug", func(c *gin.Context) {
		if _, err := store.GetRoomBySlug(c.Param("slug")); err != nil {
			c.String(http.StatusNotFound, "no such room")
			return
		}
		c.File(cfg.StaticPath + "/room.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/rooms", func(c *gin.Context) {
		rooms, err := store.ListRooms()
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("list rooms")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rooms": rooms})
	})

	api.POST("/rooms", func(c *gin.Context) {
		var req struct {
			Name string `json:"name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
			return
		}
		if err := domain.ValidateRoomName(req.Name); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		room, err := store.CreateRoom(req.Name)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Str("name", req.Name).Msg("create room")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage"})
			return
		}
		c.JSON(http.StatusCreated, room)
	})

	api.GET("/rooms/:slug", func(c *gin.Context) {
		room, err := store.GetRoomBySlug(c.Param("slug"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage"})
			return
		}
		c.JSON(http.StatusOK, room)
	})

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("client", c.GetString("client_token")).Msg("ws endpoint hit")
		ctrl.HandleSession(ctx, c)
	})

	return r
}
