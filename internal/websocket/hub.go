package websocket

import "github.com/rs/zerolog/log"

// targetedMessage is a message addressed to one username's subscribers.
type targetedMessage struct {
	username string
	message  []byte
}

// Hub maintains the set of active clients and broadcasts messages to
// them. The client and subscription maps are owned by the Run goroutine
// and must never be touched from anywhere else.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Inbound messages from the clients for global broadcast.
	Broadcast chan []byte

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Targeted messages awaiting delivery by the Run loop.
	targeted chan targetedMessage

	// A map of usernames to the set of clients subscribed to their
	// generation progress.
	subscriptions map[string]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Broadcast:     make(chan []byte),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		targeted:      make(chan targetedMessage, 256),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
			if client.Username != "" {
				h.addSubscription(client, client.Username)
			}
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.removeSubscription(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
					h.removeSubscription(client)
				}
			}
		case tm := <-h.targeted:
			h.deliverTo(tm.username, tm.message)
		}
	}
}

// BroadcastTo queues a message for all clients subscribed to a
// username. Delivery happens on the Run goroutine, which owns the
// client maps; calling this from request goroutines is safe.
func (h *Hub) BroadcastTo(username string, message []byte) {
	h.targeted <- targetedMessage{username: username, message: message}
}

func (h *Hub) deliverTo(username string, message []byte) {
	for client := range h.subscriptions[username] {
		select {
		case client.Send <- message:
		default:
			close(client.Send)
			delete(h.clients, client)
			delete(h.subscriptions[username], client)
		}
	}
	if len(h.subscriptions[username]) == 0 {
		delete(h.subscriptions, username)
	}
}

func (h *Hub) addSubscription(client *Client, username string) {
	if h.subscriptions[username] == nil {
		h.subscriptions[username] = make(map[*Client]bool)
	}
	h.subscriptions[username][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	for username, subs := range h.subscriptions {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, username)
			}
		}
	}
}
