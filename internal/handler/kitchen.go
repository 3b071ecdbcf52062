package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"teranga/internal/authz"
	"teranga/internal/events"
	"teranga/internal/middleware"
	"teranga/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const sseKeepalive = 30 * time.Second

type KitchenHandler struct {
	orders service.OrderService
	events events.Subscriber
}

func NewKitchenHandler(orders service.OrderService, sub events.Subscriber) *KitchenHandler {
	return &KitchenHandler{orders: orders, events: sub}
}

// Board godoc
// @Summary Active orders grouped by kitchen column
// @Tags kitchen
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.KitchenBoardResponse
// @Failure 403 {object} apierror.APIError
// @Router /v1/kitchen/board [get]
func (h *KitchenHandler) Board(c *gin.Context) {
	resp, err := h.orders.KitchenBoard(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stream godoc
// @Summary Server-sent order events for the kitchen board
// @Tags kitchen
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200
// @Failure 403 {object} apierror.APIError
// @Router /v1/kitchen/stream [get]
func (h *KitchenHandler) Stream(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	if err := authz.Require(actor, authz.PermOrderView); err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	ch, err := h.events.Subscribe(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, ": connected\n\n")
	fmt.Fprint(w, "retry: 2000\n\n")
	w.Flush()

	log.Debug().Str("actor", actor.Label()).Msg("kitchen stream: connected")

	ticker := time.NewTicker(sseKeepalive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("actor", actor.Label()).Msg("kitchen stream: disconnected")
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
			w.Flush()
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, evt); err != nil {
				log.Warn().Err(err).Msg("kitchen stream: write failed")
				return
			}
			w.Flush()
		}
	}
}

// writeEvent writes one SSE frame named after the event type.
func writeEvent(w io.Writer, evt events.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
	return err
}
