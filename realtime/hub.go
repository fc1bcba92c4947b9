package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
)

// Event types
const (
	EventNewOrder      = "new-order"
	EventUpdateOrder   = "update-order"
	EventPayment       = "payment"
	EventPaymentOnline = "payment-online"
	EventRefreshToken  = "refresh-token"
	EventLogout        = "logout"
)

// ManagerGroup reaches every connected staff member.
const ManagerGroup = "manager"

const (
	// SendQueueSize is how many frames a connection may fall behind before
	// new frames for it are dropped.
	SendQueueSize = 32
	// WriteWait bounds a single write to a peer.
	WriteWait = 10 * time.Second
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Conn is the part of a websocket connection the hub writes to.
// *websocket.Conn satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// BindingStore persists identity -> channel bindings.
type BindingStore interface {
	UpsertForGuest(ctx context.Context, guestID uint, channelID string) error
	UpsertForAccount(ctx context.Context, accountID uint, channelID string) error
	FindByGuest(ctx context.Context, guestID uint) (*models.ChannelBinding, error)
	FindByAccount(ctx context.Context, accountID uint) (*models.ChannelBinding, error)
	DeleteByChannel(ctx context.Context, channelID string) error
}

// Mirror receives a copy of every event, e.g. a message broker.
type Mirror interface {
	Publish(ctx context.Context, event string, body []byte) error
}

// Notifier is what request handlers use after a transaction commits.
type Notifier interface {
	// Notify sends to the manager group and, if set, to target as well.
	Notify(event string, payload interface{}, target string)
	// SendTo delivers only to target.
	SendTo(event string, payload interface{}, target string)
}

// ChannelResolver finds the live channel of an identity, "" when none.
type ChannelResolver interface {
	GuestChannel(ctx context.Context, guestID uint) string
	AccountChannel(ctx context.Context, accountID uint) string
}

// writeDeadliner is implemented by *websocket.Conn.
type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// client is a registered connection and its outgoing queue.
type client struct {
	conn Conn
	send chan []byte
	done chan struct{}
}

// Hub is the channel registry: it tracks live connections, group membership
// and the persisted binding of each identity. Frames are queued per
// connection and written by that connection's own goroutine.
type Hub struct {
	mu       sync.Mutex
	clients  map[string]*client
	groups   map[string]map[string]struct{}
	bindings BindingStore
	mirrors  []Mirror
}

func NewHub(bindings BindingStore, mirrors ...Mirror) *Hub {
	return &Hub{
		clients:  make(map[string]*client),
		groups:   make(map[string]map[string]struct{}),
		bindings: bindings,
		mirrors:  mirrors,
	}
}

// Register adds a live connection under channelID and starts its writer.
func (h *Hub) Register(channelID string, conn Conn) {
	cl := &client{
		conn: conn,
		send: make(chan []byte, SendQueueSize),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	old, replaced := h.clients[channelID]
	h.clients[channelID] = cl
	h.mu.Unlock()

	if replaced {
		close(old.done)
	}
	go cl.writePump(channelID)
}

// writePump drains the queue until the client is unregistered. A failed write
// closes the connection so its read loop ends and unregisters it.
func (cl *client) writePump(channelID string) {
	for {
		select {
		case <-cl.done:
			return
		case data := <-cl.send:
			if d, ok := cl.conn.(writeDeadliner); ok {
				d.SetWriteDeadline(time.Now().Add(WriteWait))
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				utils.ErrorLogger.Warnf("realtime: error sending to channel %s: %v", channelID, err)
				cl.conn.Close()
				return
			}
		}
	}
}

// Unregister closes the connection and forgets its group membership and binding.
func (h *Hub) Unregister(ctx context.Context, channelID string) {
	h.mu.Lock()
	cl, ok := h.clients[channelID]
	delete(h.clients, channelID)
	for _, members := range h.groups {
		delete(members, channelID)
	}
	h.mu.Unlock()

	if ok {
		close(cl.done)
		cl.conn.Close()
	}
	if err := h.bindings.DeleteByChannel(ctx, channelID); err != nil {
		utils.ErrorLogger.Warnf("realtime: failed to drop binding of channel %s: %v", channelID, err)
	}
}

// Bind records channelID as the current channel of identity, superseding any
// earlier one. Staff also join the manager group.
func (h *Hub) Bind(ctx context.Context, identity models.AuthenticatedIdentity, channelID string) error {
	var err error
	if identity.IsGuest() {
		err = h.bindings.UpsertForGuest(ctx, identity.ID, channelID)
	} else {
		err = h.bindings.UpsertForAccount(ctx, identity.ID, channelID)
	}
	if err != nil {
		return err
	}

	if identity.IsStaff() {
		h.Join(channelID, ManagerGroup)
	}
	utils.InfoLogger.Debugf("realtime: %s %d bound to channel %s", identity.Role, identity.ID, channelID)
	return nil
}

func (h *Hub) Join(channelID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]struct{})
		h.groups[group] = members
	}
	members[channelID] = struct{}{}
}

func (h *Hub) GuestChannel(ctx context.Context, guestID uint) string {
	b, err := h.bindings.FindByGuest(ctx, guestID)
	if err != nil {
		return ""
	}
	return b.ChannelID
}

func (h *Hub) AccountChannel(ctx context.Context, accountID uint) string {
	b, err := h.bindings.FindByAccount(ctx, accountID)
	if err != nil {
		return ""
	}
	return b.ChannelID
}

// ConnectionCount reports the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Notify(event string, payload interface{}, target string) {
	data, ok := h.encode(event, payload)
	if !ok {
		return
	}

	h.mu.Lock()
	recipients := make([]string, 0, len(h.groups[ManagerGroup])+1)
	for channelID := range h.groups[ManagerGroup] {
		recipients = append(recipients, channelID)
	}
	if target != "" {
		if _, isManager := h.groups[ManagerGroup][target]; !isManager {
			recipients = append(recipients, target)
		}
	}
	h.enqueue(recipients, data)
	h.mu.Unlock()

	h.mirror(event, data)
}

func (h *Hub) SendTo(event string, payload interface{}, target string) {
	if target == "" {
		return
	}
	data, ok := h.encode(event, payload)
	if !ok {
		return
	}

	h.mu.Lock()
	h.enqueue([]string{target}, data)
	h.mu.Unlock()

	h.mirror(event, data)
}

func (h *Hub) encode(event string, payload interface{}) ([]byte, bool) {
	data, err := json.Marshal(Message{Event: event, Data: payload})
	if err != nil {
		utils.ErrorLogger.Errorf("realtime: error marshaling %s message: %v", event, err)
		return nil, false
	}
	return data, true
}

// enqueue must be called with h.mu held. It never blocks: a connection whose
// queue is full misses the frame.
func (h *Hub) enqueue(channelIDs []string, data []byte) {
	for _, channelID := range channelIDs {
		cl, ok := h.clients[channelID]
		if !ok {
			continue
		}
		select {
		case cl.send <- data:
		default:
			utils.ErrorLogger.Warnf("realtime: channel %s is not keeping up, frame dropped", channelID)
		}
	}
}

func (h *Hub) mirror(event string, data []byte) {
	for _, m := range h.mirrors {
		go func(m Mirror) {
			if err := m.Publish(context.Background(), event, data); err != nil {
				utils.ErrorLogger.Warnf("realtime: failed to mirror %s: %v", event, err)
			}
		}(m)
	}
}
