package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/remotehq/office/internal/adapters/ws"
	"github.com/remotehq/office/internal/config"
	"github.com/remotehq/office/internal/office"
)

func SetupRouter(ctx context.Context, cfg *config.Config, handler *ws.Handler, dir *office.Directory, rooms *office.Registry) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/ws/office", func(c *gin.Context) {
		handler.HandleOffice(ctx, c)
	})

	// Read-only views of the live office, handy for health checks and
	// debugging; they go through the same directory/registry contracts
	// as the event path.
	api.GET("/rooms", func(c *gin.Context) {
		type roomView struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Closed bool   `json:"closed"`
			Count  int    `json:"count"`
		}
		list := rooms.List()
		out := make([]roomView, 0, len(list))
		for _, room := range list {
			out = append(out, roomView{
				ID:     string(room.ID),
				Name:   room.Name,
				Closed: room.Closed,
				Count:  dir.CountByRoom(room.ID),
			})
		}
		c.JSON(http.StatusOK, out)
	})

	api.GET("/office", func(c *gin.Context) {
		c.JSON(http.StatusOK, dir.Snapshot())
	})

	return r
}
