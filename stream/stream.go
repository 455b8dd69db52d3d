// Package stream broadcasts glyph grids to websocket clients and exposes a
// small HTTP API to observe and stop playback.
package stream

import (
	"bytes"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tmpim/textreel"
)

const writeTimeout = 5 * time.Second

// Subscription is a set of packet kinds a client wants to receive.
type Subscription uint32

// Possible subscription flags.
const (
	SubscriptionFrames = Subscription(1 << iota)
	SubscriptionStatus
	// SubscriptionAll matches every client regardless of its flags.
	SubscriptionAll = Subscription(0)
)

// Possible packet types. Every binary message starts with one of these.
const (
	PacketFrame = iota + 1
	PacketReset
	PacketStatus
	PacketStop
)

// IsSubscribedTo returns whether or not the client subscription is subscribed
// to the given subscription.
func (s Subscription) IsSubscribedTo(sub Subscription) bool {
	return (s & sub) == sub
}

// WebsocketControl is the control message a client sends to change its
// subscription.
type WebsocketControl struct {
	Subscription uint32 `json:"subscription"`
}

// Status describes the playback being broadcast.
type Status struct {
	State    textreel.State `json:"state"`
	Position int            `json:"position"`
	Frames   int            `json:"frames"`
	Clients  int            `json:"clients"`
}

// Client is a websocket connected client.
type Client struct {
	mutex         sync.Mutex
	id            string
	conn          *websocket.Conn
	subscriptions Subscription
}

// ID returns the identifier assigned to the client on connection.
func (c *Client) ID() string {
	return c.id
}

func (c *Client) write(data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Broadcaster is a sink sending every frame to all subscribed clients. A new
// client receives frames from the next WriteFrame on.
type Broadcaster struct {
	clientsMutex sync.Mutex
	clients      []*Client
	closed       bool

	status func() Status
	buf    bytes.Buffer
}

// NewBroadcaster returns a broadcaster with no clients.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// SetStatus sets the function used to report playback status to clients.
func (b *Broadcaster) SetStatus(status func() Status) {
	b.clientsMutex.Lock()
	b.status = status
	b.clientsMutex.Unlock()
}

// Status returns the current status, with the client count filled in.
func (b *Broadcaster) Status() Status {
	b.clientsMutex.Lock()
	status := b.status
	clients := len(b.clients)
	b.clientsMutex.Unlock()

	var s Status
	if status != nil {
		s = status()
	}
	s.Clients = clients
	return s
}

// Clients returns the number of connected clients.
func (b *Broadcaster) Clients() int {
	b.clientsMutex.Lock()
	defer b.clientsMutex.Unlock()
	return len(b.clients)
}

// Broadcast sends data to every client subscribed to sub. Clients that fail
// to receive are disconnected.
func (b *Broadcaster) Broadcast(sub Subscription, data ...[]byte) {
	b.clientsMutex.Lock()
	clientCopy := make([]*Client, len(b.clients))
	copy(clientCopy, b.clients)
	b.clientsMutex.Unlock()

	for _, client := range clientCopy {
		client.mutex.Lock()
		if client.subscriptions.IsSubscribedTo(sub) {
			for _, d := range data {
				if err := client.write(d); err != nil {
					log.Println("textreel stream: dropping client", client.id+":", err)
					client.conn.Close()
					break
				}
			}
		}
		client.mutex.Unlock()
	}
}

func (b *Broadcaster) statusPacket() []byte {
	d, err := json.Marshal(b.Status())
	if err != nil {
		log.Println("textreel stream: error encoding status JSON:", err)
		return nil
	}
	return append([]byte{PacketStatus}, d...)
}

// BroadcastStatus sends the current status to clients subscribed to it.
func (b *Broadcaster) BroadcastStatus() {
	if d := b.statusPacket(); d != nil {
		b.Broadcast(SubscriptionStatus, d)
	}
}

// HandleConn serves a client until it disconnects. The client starts
// subscribed to frames and status.
func (b *Broadcaster) HandleConn(conn *websocket.Conn) {
	client := &Client{
		id:            uuid.New().String(),
		conn:          conn,
		subscriptions: SubscriptionFrames | SubscriptionStatus,
	}

	b.clientsMutex.Lock()
	if b.closed {
		b.clientsMutex.Unlock()
		client.write([]byte{PacketStop})
		conn.Close()
		return
	}
	b.clients = append(b.clients, client)
	b.clientsMutex.Unlock()

	log.Println("textreel stream: client connected:", client.id)

	defer func() {
		b.clientsMutex.Lock()
		defer b.clientsMutex.Unlock()

		for i, c := range b.clients {
			if c == client {
				b.clients = append(b.clients[:i], b.clients[i+1:]...)
				break
			}
		}
		conn.Close()
	}()

	if d := b.statusPacket(); d != nil {
		client.mutex.Lock()
		client.write(d)
		client.mutex.Unlock()
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			log.Println("textreel stream: client disconnected:", client.id+":", err)
			return
		}

		if msgType != websocket.BinaryMessage && msgType != websocket.TextMessage {
			continue
		}

		var controlMsg WebsocketControl
		if err := json.Unmarshal(data, &controlMsg); err != nil {
			log.Println("textreel stream: failed to unmarshal control message:", err)
			continue
		}

		client.mutex.Lock()
		client.subscriptions = Subscription(controlMsg.Subscription)
		client.mutex.Unlock()
	}
}

// WriteFrame broadcasts grid in its binary form, prefixed by PacketFrame.
func (b *Broadcaster) WriteFrame(grid *textreel.GlyphGrid) error {
	b.clientsMutex.Lock()
	closed := b.closed
	b.clientsMutex.Unlock()
	if closed {
		return textreel.ErrSinkClosed
	}

	b.buf.Reset()
	b.buf.WriteByte(PacketFrame)
	if _, err := grid.WriteTo(&b.buf); err != nil {
		return err
	}

	b.Broadcast(SubscriptionFrames, b.buf.Bytes())
	return nil
}

// Reset tells clients to clear their display and sends them the status.
func (b *Broadcaster) Reset() error {
	b.Broadcast(SubscriptionFrames, []byte{PacketReset})
	b.BroadcastStatus()
	return nil
}

// Close sends a stop packet and disconnects every client.
func (b *Broadcaster) Close() error {
	b.BroadcastStatus()
	b.Broadcast(SubscriptionAll, []byte{PacketStop})

	b.clientsMutex.Lock()
	b.closed = true
	clients := b.clients
	b.clients = nil
	b.clientsMutex.Unlock()

	for _, client := range clients {
		client.conn.Close()
	}
	return nil
}
