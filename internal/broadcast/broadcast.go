package broadcast

import (
	"encoding/json"
	"log"

	"quizroom/internal/players"
	"quizroom/internal/rooms"
	"quizroom/internal/wshub"
)

// PlayerView is one row of the canonical room view sent to clients.
type PlayerView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Level     int    `json:"level"`
	Ready     bool   `json:"ready"`
	IsCreator bool   `json:"isCreator"`
}

type roomUpdateMessage struct {
	Type    string       `json:"type"`
	Players []PlayerView `json:"players"`
}

// Coordinator assembles the canonical room view and fans payloads out to
// every connected member of a room.
type Coordinator struct {
	hub     *wshub.Hub
	rooms   *rooms.Store
	players *players.Store
}

func NewCoordinator(hub *wshub.Hub, rs *rooms.Store, ps *players.Store) *Coordinator {
	return &Coordinator{
		hub:     hub,
		rooms:   rs,
		players: ps,
	}
}

// RoomView builds the ordered member list for a room. Members whose
// registry entry is gone (mid-disconnect) are silently excluded.
func (c *Coordinator) RoomView(code string) []PlayerView {
	members := c.rooms.Members(code)
	views := make([]PlayerView, 0, len(members))
	for i, id := range members {
		p, err := c.players.Get(id)
		if err != nil {
			continue
		}
		views = append(views, PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			Score:     p.Score,
			Level:     p.Level,
			Ready:     p.Ready,
			IsCreator: i == 0,
		})
	}
	return views
}

// Publish delivers a payload to every connected member of a room.
// Delivery is best-effort per recipient; one dead peer never aborts the
// rest.
func (c *Coordinator) Publish(code string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[Broadcast] Marshal error: %v\n", err)
		return
	}
	c.hub.SendTo(c.rooms.Members(code), data)
}

// PublishTo delivers a payload to a single client.
func (c *Coordinator) PublishTo(clientID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[Broadcast] Marshal error: %v\n", err)
		return
	}
	c.hub.Send(clientID, data)
}

// PublishRoomView pushes the current room view to all members, invoked
// after every mutation that changes membership, readiness, or score.
func (c *Coordinator) PublishRoomView(code string) {
	c.Publish(code, roomUpdateMessage{
		Type:    "room_update",
		Players: c.RoomView(code),
	})
}
