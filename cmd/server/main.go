package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/remotehq/office/internal/adapters/http"
	"github.com/remotehq/office/internal/adapters/ws"
	"github.com/remotehq/office/internal/config"
	"github.com/remotehq/office/internal/domain"
	"github.com/remotehq/office/internal/office"
	"github.com/remotehq/office/internal/roomsource"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	dir := office.NewDirectory()
	rooms := office.NewRegistry()
	hub := ws.NewHub()
	coord := office.NewCoordinator(dir, rooms, hub, domain.RoomID(cfg.DefaultRoom), cfg.ReopenDelay)
	rooms.SetSortPolicy(office.OccupancySortPolicy(dir.CountByRoom))

	poller := roomsource.NewPoller(roomsource.New(cfg.RoomsSource), rooms, cfg.ReloadInterval, coord.PublishRooms)
	go poller.Run(ctx)
	sorter := roomsource.NewSortLoop(cfg.SortInterval, coord.LastActivity, coord.PublishRooms)
	go sorter.Run(ctx)

	handler := ws.NewHandler(hub, coord, cfg)
	r := router.SetupRouter(ctx, cfg, handler, dir, rooms)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("office server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
