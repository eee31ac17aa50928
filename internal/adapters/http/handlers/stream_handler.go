package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"aidmap-api/internal/adapters/http/middleware"
	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/adapters/realtime"
	"aidmap-api/internal/core/services"
	"aidmap-api/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	streamBuffer      = 64
	streamRetain      = 200
	heartbeatInterval = 30 * time.Second
)

// StreamHandler serves Server-Sent Events: a snapshot of the feed followed
// by live rows, de-duplicated by row ID.
type StreamHandler struct {
	hub       *realtime.Hub
	messaging *services.MessagingService

	done      chan struct{}
	closeOnce sync.Once
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(hub *realtime.Hub, messaging *services.MessagingService) *StreamHandler {
	return &StreamHandler{
		hub:       hub,
		messaging: messaging,
		done:      make(chan struct{}),
	}
}

// Close ends every open stream after its snapshot. Call before shutdown.
func (h *StreamHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

type snapshotLoader func(ctx context.Context) ([]realtime.Event, error)

// rowEvents turns loaded rows into insert events for the thread snapshot
func rowEvents[T any](topic string, rows []T, key func(T) (string, time.Time)) ([]realtime.Event, error) {
	out := make([]realtime.Event, 0, len(rows))
	for _, row := range rows {
		id, at := key(row)
		ev, err := realtime.NewEvent(topic, realtime.EventInsert, id, at, row)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

// Map streams change notifications for open requests. Only ids and event
// types are sent; clients reload the map to get offset positions.
// @Summary Map change stream
// @Tags Realtime
// @Produce text/event-stream
// @Success 200 {string} string "event stream"
// @Router /stream/map [get]
func (h *StreamHandler) Map(c *fiber.Ctx) error {
	sub := h.hub.Subscribe(realtime.TopicOpenRequests, streamBuffer)
	setStreamHeaders(c)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer h.hub.Unsubscribe(sub)

		fmt.Fprintf(w, "event: connected\ndata: {\"topic\":%q}\n\n", sub.Topic)
		if err := w.Flush(); err != nil {
			return
		}

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: %s\nid: %s\ndata: {\"id\":%q}\n\n", ev.Type, ev.ID, ev.ID)
				if err := w.Flush(); err != nil {
					return
				}
			case <-heartbeat.C:
				fmt.Fprintf(w, ": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			case <-h.done:
				return
			}
		}
	})
	return nil
}

// Community streams a neighborhood's chat
// @Summary Community chat stream
// @Tags Realtime
// @Produce text/event-stream
// @Security BearerAuth
// @Param id path string true "Neighborhood ID"
// @Success 200 {string} string "event stream"
// @Router /neighborhoods/{id}/messages/stream [get]
func (h *StreamHandler) Community(c *fiber.Ctx) error {
	neighborhoodID := c.Params("id")
	topic := realtime.CommunityTopic(neighborhoodID)
	return h.stream(c, topic, func(ctx context.Context) ([]realtime.Event, error) {
		rows, err := h.messaging.ListCommunity(ctx, neighborhoodID, services.MessageFilterAll)
		if err != nil {
			return nil, err
		}
		return rowEvents(topic, rows, func(m *models.CommunityMessage) (string, time.Time) { return m.ID, m.CreatedAt })
	})
}

// Direct streams the direct thread with one partner
// @Summary Direct message stream
// @Tags Realtime
// @Produce text/event-stream
// @Security BearerAuth
// @Param userId path string true "Partner user ID"
// @Success 200 {string} string "event stream"
// @Router /messages/direct/{userId}/stream [get]
func (h *StreamHandler) Direct(c *fiber.Ctx) error {
	userID, partnerID := middleware.UserID(c), c.Params("userId")
	topic := realtime.DirectTopic(userID, partnerID)
	return h.stream(c, topic, func(ctx context.Context) ([]realtime.Event, error) {
		rows, err := h.messaging.DirectThread(ctx, userID, partnerID)
		if err != nil {
			return nil, err
		}
		return rowEvents(topic, rows, func(m *models.DirectMessage) (string, time.Time) { return m.ID, m.CreatedAt })
	})
}

// Request streams the requester/donor thread of one request
// @Summary Request thread stream
// @Tags Realtime
// @Produce text/event-stream
// @Security BearerAuth
// @Param id path string true "Aid request ID"
// @Success 200 {string} string "event stream"
// @Failure 403 {object} response.Response
// @Router /aid-requests/{id}/messages/stream [get]
func (h *StreamHandler) Request(c *fiber.Ctx) error {
	userID, requestID := middleware.UserID(c), c.Params("id")
	topic := realtime.RequestTopic(requestID)
	return h.stream(c, topic, func(ctx context.Context) ([]realtime.Event, error) {
		rows, err := h.messaging.RequestThread(ctx, userID, requestID)
		if err != nil {
			return nil, err
		}
		return rowEvents(topic, rows, func(m *models.RequestMessage) (string, time.Time) { return m.ID, m.CreatedAt })
	})
}

// stream subscribes before loading so no insert is lost between the snapshot
// query and the first live event. Inserts that raced the load are merged by
// the thread; updates pass straight through.
func (h *StreamHandler) stream(c *fiber.Ctx, topic string, load snapshotLoader) error {
	sub := h.hub.Subscribe(topic, streamBuffer)
	thread := realtime.NewBoundedThread(streamRetain)
	thread.BeginLoad()

	snapshot, err := load(c.Context())
	if err != nil {
		thread.Fail()
		h.hub.Unsubscribe(sub)
		return fail(c, err, "Failed to load messages")
	}

	var updates []realtime.Event
drain:
	for {
		select {
		case ev := <-sub.C:
			if ev.Type == realtime.EventUpdate {
				updates = append(updates, ev)
				continue
			}
			thread.Apply(ev)
		default:
			break drain
		}
	}
	rows := thread.Finish(snapshot)

	setStreamHeaders(c)
	log := logger.WithFields(logrus.Fields{"topic": topic, "subscription": sub.ID})

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer h.hub.Unsubscribe(sub)

		fmt.Fprintf(w, "event: connected\ndata: {\"topic\":%q,\"rows\":%d}\n\n", topic, len(rows))
		for _, ev := range rows {
			writeEvent(w, ev)
		}
		for _, ev := range updates {
			writeEvent(w, ev)
		}
		if err := w.Flush(); err != nil {
			log.Debug("📡 stream client disconnected")
			return
		}

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				if ev.Type != realtime.EventUpdate && !thread.Apply(ev) {
					continue
				}
				writeEvent(w, ev)
				if err := w.Flush(); err != nil {
					log.Debug("📡 stream client disconnected")
					return
				}
			case <-heartbeat.C:
				fmt.Fprintf(w, ": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					log.Debug("📡 stream client disconnected")
					return
				}
			case <-h.done:
				return
			}
		}
	})
	return nil
}

func setStreamHeaders(c *fiber.Ctx) {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")
}

// writeEvent writes one SSE frame carrying the JSON encoded event
func writeEvent(w *bufio.Writer, ev realtime.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.WithError(err).WithField("topic", ev.Topic).Warn("⚠️ stream event skipped")
		return
	}
	fmt.Fprintf(w, "event: %s\nid: %s\ndata: %s\n\n", ev.Type, ev.ID, payload)
}
