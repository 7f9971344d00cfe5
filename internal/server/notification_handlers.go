package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quorum/internal/models"

	"github.com/gofiber/fiber/v2"
)

const streamKeepAlive = 25 * time.Second

// GetNotifications handles GET /api/notifications (?unread=true, ?limit=, ?offset=).
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	list, err := s.notificationService.List(c.UserContext(), currentUserID(c), c.QueryBool("unread"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// MarkNotificationRead handles POST /api/notifications/:id/read.
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	n, err := s.notificationService.MarkRead(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(n)
}

// StreamNotifications handles GET /api/notifications/stream as server-sent events.
func (s *Server) StreamNotifications(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(fmt.Errorf("notification stream unavailable")))
	}

	// The stream outlives the handler, so it hangs off the server context.
	ctx, cancel := context.WithCancel(s.baseContext())
	events, err := s.notifier.SubscribeUser(ctx, currentUserID(c))
	if err != nil {
		cancel()
		return respondError(c, models.NewInternalError(err))
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		ticker := time.NewTicker(streamKeepAlive)
		defer ticker.Stop()

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				payload, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload)
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			// A failed flush means the client went away.
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}
