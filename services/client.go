package services

import (
	"encoding/json"
	"sync"

	"github.com/zagwe-games/bingo-rooms/game"
	"github.com/zagwe-games/bingo-rooms/utils/logger"

	"github.com/gorilla/websocket"
)

// Client is one websocket connection bound to a user. It implements
// game.Messenger so rooms can send rejections and per-player notices straight
// to the acting connection.
type Client struct {
	user     game.User
	conn     *websocket.Conn
	hub      *Hub
	registry *game.Registry
	send     chan []byte
	once     sync.Once
}

func NewClient(user game.User, conn *websocket.Conn, hub *Hub, registry *game.Registry) *Client {
	return &Client{
		user:     user,
		conn:     conn,
		hub:      hub,
		registry: registry,
		send:     make(chan []byte, 32),
	}
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.send)
		c.conn.Close()
	})
}

// Send implements game.Messenger.
func (c *Client) Send(event string, payload any) {
	b, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		logger.Errorf("[Client %d] marshal %s: %v", c.user.ID, event, err)
		return
	}
	c.enqueue(b)
}

func (c *Client) enqueue(b []byte) {
	defer func() {
		// send may be closed by a concurrent disconnect
		if r := recover(); r != nil {
			logger.Debugf("[Client %d] enqueue after close", c.user.ID)
		}
	}()
	select {
	case c.send <- b:
	default:
		logger.Warnf("[Client %d] dropping message, send buffer full", c.user.ID)
	}
}

// inbound is the transport action format.
type inbound struct {
	Action   string `json:"action"`
	GameID   string `json:"gameId"`
	CardID   int    `json:"cardId"`
	Number   int    `json:"number"`
	Stake    int64  `json:"stake"`
	RoundRef string `json:"roundRef"`
}

// --------------------
// Client read/write pumps
// --------------------
func (c *Client) ReadPump() {
	defer func() {
		c.disconnect()
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Infof("[Client %d] disconnected normally", c.user.ID)
			} else {
				logger.Infof("[Client %d] read error: %v", c.user.ID, err)
			}
			return
		}
		c.dispatch(message)
	}
}

func (c *Client) dispatch(msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[Client %d] recovered from panic: %v", c.user.ID, r)
		}
	}()

	var in inbound
	if err := json.Unmarshal(msg, &in); err != nil {
		logger.Infof("[Client %d] invalid message: %v", c.user.ID, err)
		return
	}
	if in.GameID == "" {
		return
	}
	room := c.registry.Get(in.GameID)

	switch in.Action {
	case "join_room":
		c.hub.Join(in.GameID, c)
		room.Join(c)
		c.pushStats()
	case "get_cards":
		c.Send(game.EventAllCards, room.CardsSnapshot())
	case "select_card":
		c.hub.Join(in.GameID, c)
		room.SelectCard(c.user, in.CardID, in.Stake, in.RoundRef, c)
		c.pushStats()
	case "mark_number":
		room.Mark(c.user.ID, in.Number)
	case "claim_bingo":
		room.Claim(c.user.ID, c)
	case "cancel_game":
		room.Cancel(c.user.ID, c)
		c.hub.Leave(in.GameID, c)
		c.pushStats()
	default:
		logger.Infof("[Client %d] unknown action: %s", c.user.ID, in.Action)
	}
}

func (c *Client) disconnect() {
	c.hub.Drop(c)
	c.registry.DisconnectEverywhere(c.user.ID)
	c.pushStats()
	c.Close()
}

func (c *Client) pushStats() {
	rooms, players := c.registry.Stats()
	c.hub.PushStats(rooms, players)
}

func (c *Client) WritePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.Infof("[Client %d] write error: %v", c.user.ID, err)
			return
		}
	}
}
