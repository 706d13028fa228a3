// Package hub pushes presence and message notifications to connected members
// over websockets.
package hub

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/logging"
	"github.com/dmitrijs2005/datingapp/internal/server/metrics"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
	"github.com/goccy/go-json"
)

// Event types sent to clients.
const (
	EventOnlineUsers        = "GetOnlineUsers"
	EventUserIsOnline       = "UserIsOnline"
	EventUserIsOffline      = "UserIsOffline"
	EventNewMessageReceived = "NewMessageReceived"
)

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// MessageNotice is the payload of NewMessageReceived.
type MessageNotice struct {
	ID       int64     `json:"id"`
	Username string    `json:"username"`
	KnownAs  string    `json:"knownAs,omitempty"`
	Sent     time.Time `json:"messageSent"`
}

type delivery struct {
	username string
	event    Event
}

// Hub tracks connections per username. All state is owned by the Serve
// goroutine.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	online     chan chan []string
	done       chan struct{}

	clients map[string]map[*Client]struct{}
	logger  logging.Logger
}

func New(logger logging.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		online:     make(chan chan []string),
		done:       make(chan struct{}),
		clients:    make(map[string]map[*Client]struct{}),
		logger:     logger.With("module", "hub"),
	}
}

func (h *Hub) String() string { return "notification-hub" }

// Serve runs the hub until ctx is done, then closes every connection.
func (h *Hub) Serve(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.clients {
				for c := range conns {
					h.drop(c)
				}
			}
			h.logger.Info(context.Background(), "hub stopped", "reason", ctx.Err())
			return ctx.Err()

		case c := <-h.register:
			h.add(ctx, c)

		case c := <-h.unregister:
			h.remove(ctx, c)

		case d := <-h.deliver:
			h.sendTo(d.username, d.event)

		case reply := <-h.online:
			reply <- h.onlineUsers()
		}
	}
}

func (h *Hub) add(ctx context.Context, c *Client) {
	conns, known := h.clients[c.username]
	if !known {
		conns = make(map[*Client]struct{})
		h.clients[c.username] = conns
	}
	conns[c] = struct{}{}
	metrics.HubConnections.Inc()

	if !known {
		h.broadcastExcept(c.username, Event{Type: EventUserIsOnline, Payload: c.username})
	}
	h.write(c, Event{Type: EventOnlineUsers, Payload: h.onlineUsers()})
	h.logger.Debug(ctx, "client connected", "username", c.username)
}

func (h *Hub) remove(ctx context.Context, c *Client) {
	if h.drop(c) {
		h.broadcastExcept(c.username, Event{Type: EventUserIsOffline, Payload: c.username})
	}
	h.logger.Debug(ctx, "client disconnected", "username", c.username)
}

// drop forgets c and closes its outbound queue. It reports whether c was the
// last connection of its user.
func (h *Hub) drop(c *Client) bool {
	conns, ok := h.clients[c.username]
	if !ok {
		return false
	}
	if _, ok := conns[c]; !ok {
		return false
	}
	delete(conns, c)
	close(c.send)
	metrics.HubConnections.Dec()

	if len(conns) == 0 {
		delete(h.clients, c.username)
		return true
	}
	return false
}

func (h *Hub) onlineUsers() []string {
	users := make([]string, 0, len(h.clients))
	for u := range h.clients {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

func (h *Hub) sendTo(username string, ev Event) {
	for c := range h.clients[username] {
		h.write(c, ev)
	}
}

func (h *Hub) broadcastExcept(username string, ev Event) {
	for u, conns := range h.clients {
		if u == username {
			continue
		}
		for c := range conns {
			h.write(c, ev)
		}
	}
}

// write queues ev for c. A client that cannot keep up is disconnected.
func (h *Hub) write(c *Client, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error(context.Background(), "encode event", "type", ev.Type, "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		h.drop(c)
	}
}

// Online returns the usernames with at least one open connection.
func (h *Hub) Online(ctx context.Context) ([]string, error) {
	reply := make(chan []string, 1)
	select {
	case h.online <- reply:
	case <-h.done:
		return nil, context.Canceled
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return <-reply, nil
}

// NewMessage notifies the recipient of msg. It never blocks on slow clients.
func (h *Hub) NewMessage(ctx context.Context, msg *models.Message) {
	d := delivery{
		username: msg.RecipientUsername,
		event: Event{Type: EventNewMessageReceived, Payload: MessageNotice{
			ID:       msg.ID,
			Username: msg.SenderUsername,
			Sent:     msg.MessageSent,
		}},
	}
	select {
	case h.deliver <- d:
	case <-h.done:
	case <-ctx.Done():
	}
}
