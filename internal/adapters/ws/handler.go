package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/remotehq/office/internal/config"
	"github.com/remotehq/office/internal/domain"
	"github.com/remotehq/office/internal/office"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	hub      *Hub
	coord    *office.Coordinator
	cfg      *config.Config
	validate *validator.Validate
}

func NewHandler(hub *Hub, coord *office.Coordinator, cfg *config.Config) *Handler {
	return &Handler{
		hub:      hub,
		coord:    coord,
		cfg:      cfg,
		validate: validator.New(),
	}
}

// parseUser checks the handshake identity payload. Anything that does
// not decode into a valid user refuses the connection before admission.
func (h *Handler) parseUser(raw string) (*domain.User, error) {
	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("parse user payload: %w", err)
	}
	if err := h.validate.Struct(&user); err != nil {
		return nil, fmt.Errorf("validate user payload: %w", err)
	}
	return &user, nil
}

// HandleOffice is the websocket entry point. Identity and the optional
// starting room ride in the handshake query, the way the office client
// connects.
func (h *Handler) HandleOffice(ctx context.Context, c *gin.Context) {
	user, err := h.parseUser(c.Query("user"))
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("rejecting connection")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user"})
		return
	}

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	sock.SetReadLimit(h.cfg.ReadLimit)

	cn := newConn(sock)
	h.hub.add(cn)
	log.Info().Str("module", "ws").Str("conn", string(cn.id)).Str("user", string(user.ID)).Msg("new office connection")

	ctx, cancel := context.WithCancel(ctx)
	go cn.writePump(ctx, h.cfg.PingPeriod)

	h.coord.Connect(cn.id, user, domain.RoomID(c.Query("room")))
	h.readPump(ctx, cancel, cn)
}

func (h *Handler) readPump(ctx context.Context, cancel context.CancelFunc, cn *conn) {
	defer func() {
		log.Info().Str("module", "ws").Str("conn", string(cn.id)).Msg("readPump closing")
		cancel()
		h.hub.remove(cn.id)
		h.coord.Disconnect(cn.id)
		cn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := cn.sock.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "ws").Str("conn", string(cn.id)).Msg("readPump read error")
				return
			}
			h.dispatch(cn, data)
		}
	}
}
