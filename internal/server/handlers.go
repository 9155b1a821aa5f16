package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"quizroom/internal/broadcast"
	"quizroom/internal/db"
	"quizroom/internal/game"
	"quizroom/internal/players"
	"quizroom/internal/questions"
	"quizroom/internal/rooms"
	"quizroom/internal/wshub"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

type Server struct {
	Hub     *wshub.Hub
	Players *players.Store
	Rooms   *rooms.Store
	Games   *game.Controller
	Coord   *broadcast.Coordinator
	Bank    *questions.Bank
	DB      *db.DB // nil if no database configured
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"message":"Career Quiz Game Server"}`)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.DB != nil {
		if err := s.DB.Ping(); err != nil {
			status = "db_error"
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"%s","error":"%s"}`, status, err.Error())
			return
		}
	}
	fmt.Fprintf(w, `{"status":"%s"}`, status)
}

// handleWS upgrades the connection and runs the client's message loop
// until disconnect.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("clientID")
	if clientID == "" {
		clientID = uuid.New().String()
	}

	if _, err := s.Players.Register(clientID); err != nil {
		// A registry entry without a live connection is a recovered
		// checkpoint; the client is reclaiming it after a restart.
		if s.Hub.Connected(clientID) {
			http.Error(w, "client id already connected", http.StatusConflict)
			return
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.Players.Remove(clientID)
		log.Printf("[WS] Accept error: %v\n", err)
		return
	}

	client := &wshub.Client{
		ClientID: clientID,
		Conn:     conn,
		Send:     make(chan []byte, 16),
	}
	s.Hub.Register(client)
	log.Printf("[WS] Client %s connected\n", clientID)

	ctx := r.Context()
	go client.WritePump(ctx)

	s.readLoop(ctx, conn, clientID)

	s.disconnect(clientID)
	conn.Close(websocket.StatusNormalClosure, "")
}

// readLoop processes inbound messages until the connection drops. A
// malformed message yields an error reply to the sender; it never ends
// the loop.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, clientID string) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.Coord.PublishTo(clientID, errorReply("Invalid message format"))
			continue
		}
		s.dispatch(clientID, msg)
	}
}

func (s *Server) dispatch(clientID string, msg ClientMessage) {
	switch msg.Type {
	case "create_room":
		s.handleCreateRoom(clientID, msg)
	case "join_room":
		s.handleJoinRoom(clientID, msg)
	case "toggle_ready":
		s.handleToggleReady(clientID)
	case "start_game":
		s.handleStartGame(clientID)
	case "submit_answer":
		s.handleSubmitAnswer(clientID, msg)
	case "get_question":
		s.handleGetQuestion(clientID)
	default:
		s.Coord.PublishTo(clientID, errorReply("Unknown message type: "+msg.Type))
	}
}

func (s *Server) handleCreateRoom(clientID string, msg ClientMessage) {
	if msg.Username == "" {
		s.Coord.PublishTo(clientID, errorReply("Username is required"))
		return
	}
	if msg.Category != "" && !s.Bank.HasCategory(msg.Category) {
		s.Coord.PublishTo(clientID, errorReply("Unknown category: "+msg.Category))
		return
	}
	if _, found := s.Rooms.RoomOf(clientID); found {
		s.Coord.PublishTo(clientID, errorReply("You are already in a room"))
		return
	}

	s.Players.SetName(clientID, msg.Username)
	room, err := s.Rooms.Create(clientID)
	if err != nil {
		log.Printf("[Handle:CreateRoom] %v\n", err)
		s.Coord.PublishTo(clientID, errorReply("Failed to create room"))
		return
	}
	if msg.Category != "" {
		s.Games.SetCategory(room.Code, msg.Category)
	}
	log.Printf("[Handle:CreateRoom] Client %s created room %s\n", clientID, room.Code)

	s.checkpointRoom(room.Code)
	s.checkpointPlayer(clientID)

	s.Coord.PublishTo(clientID, roomCreatedMessage{Type: "room_created", RoomCode: room.Code})
	s.Coord.PublishRoomView(room.Code)
}

func (s *Server) handleJoinRoom(clientID string, msg ClientMessage) {
	if msg.Username == "" || msg.Room == "" {
		s.Coord.PublishTo(clientID, errorReply("Username and room code are required"))
		return
	}
	if cur, found := s.Rooms.RoomOf(clientID); found && cur.Code != msg.Room {
		s.Coord.PublishTo(clientID, errorReply("You are already in a room"))
		return
	}

	room, err := s.Rooms.Join(msg.Room, clientID)
	if err != nil {
		switch {
		case errors.Is(err, rooms.ErrRoomNotFound):
			s.Coord.PublishTo(clientID, errorReply("Room not found"))
		case errors.Is(err, rooms.ErrRoomFull):
			s.Coord.PublishTo(clientID, errorReply("Room is full"))
		default:
			s.Coord.PublishTo(clientID, errorReply("Failed to join room"))
		}
		return
	}
	s.Players.SetName(clientID, msg.Username)
	log.Printf("[Handle:JoinRoom] Client %s joined room %s\n", clientID, room.Code)

	s.checkpointRoom(room.Code)
	s.checkpointPlayer(clientID)

	s.Coord.PublishTo(clientID, roomJoinedMessage{
		Type:     "room_joined",
		RoomCode: room.Code,
		Players:  s.Coord.RoomView(room.Code),
	})
	s.Coord.PublishRoomView(room.Code)
}

func (s *Server) handleToggleReady(clientID string) {
	room, found := s.Rooms.RoomOf(clientID)
	if !found {
		s.Coord.PublishTo(clientID, errorReply("You are not in a room"))
		return
	}
	if room.Creator() == clientID {
		s.Coord.PublishTo(clientID, errorReply("The room creator is always ready"))
		return
	}

	p, err := s.Players.Get(clientID)
	if err != nil {
		s.Coord.PublishTo(clientID, errorReply("Unknown client"))
		return
	}
	ready := !p.Ready
	s.Players.SetReady(clientID, ready)

	s.checkpointPlayer(clientID)

	s.Coord.PublishTo(clientID, readyStateMessage{Type: "ready_state_updated", Ready: ready})
	s.Coord.PublishRoomView(room.Code)
}

func (s *Server) handleStartGame(clientID string) {
	room, found := s.Rooms.RoomOf(clientID)
	if !found {
		s.Coord.PublishTo(clientID, errorReply("You are not in a room"))
		return
	}
	if room.Creator() != clientID {
		s.Coord.PublishTo(clientID, errorReply("Only the room creator can start the game"))
		return
	}

	snap, err := s.Games.Start(room.Code)
	if err != nil {
		switch {
		case errors.Is(err, game.ErrInsufficientPlayers):
			s.Coord.PublishTo(clientID, errorReply("At least 2 players are required to start"))
		case errors.Is(err, game.ErrNotReady):
			s.Coord.PublishTo(clientID, errorReply("Not all players are ready"))
		case errors.Is(err, game.ErrGameAlreadyActive):
			s.Coord.PublishTo(clientID, errorReply("A game is already in progress"))
		default:
			s.Coord.PublishTo(clientID, errorReply("Failed to start game"))
		}
		return
	}
	log.Printf("[Handle:StartGame] Game started in room %s\n", room.Code)

	s.Coord.Publish(room.Code, gameStartedMessage{Type: "game_started", Session: snap})
	s.Coord.PublishRoomView(room.Code)
}

func (s *Server) handleSubmitAnswer(clientID string, msg ClientMessage) {
	if msg.AnswerIdx == nil {
		s.Coord.PublishTo(clientID, errorReply("answer_idx is required"))
		return
	}
	room, found := s.Rooms.RoomOf(clientID)
	if !found {
		s.Coord.PublishTo(clientID, errorReply("You are not in a room"))
		return
	}

	res, err := s.Games.Answer(room.Code, clientID, *msg.AnswerIdx)
	if err != nil {
		switch {
		case errors.Is(err, game.ErrNoActiveGame):
			s.Coord.PublishTo(clientID, errorReply("No active game in this room"))
		case errors.Is(err, game.ErrNoCurrentQuestion):
			s.Coord.PublishTo(clientID, errorReply("No current question"))
		default:
			s.Coord.PublishTo(clientID, errorReply("Failed to submit answer"))
		}
		return
	}

	s.checkpointPlayer(clientID)

	s.Coord.Publish(room.Code, gameStateMessage{
		Type:     "game_state_update",
		Session:  res.Snapshot,
		ClientID: clientID,
		Correct:  res.Correct,
		Score:    res.Score,
	})
	if res.LevelComplete {
		s.Coord.PublishTo(clientID, levelCompleteMessage{
			Type:  "level_complete",
			Level: res.CompletedLevel,
			Score: res.Score,
		})
	}
	s.Coord.PublishRoomView(room.Code)
}

func (s *Server) handleGetQuestion(clientID string) {
	room, found := s.Rooms.RoomOf(clientID)
	if !found {
		s.Coord.PublishTo(clientID, errorReply("You are not in a room"))
		return
	}

	q, err := s.Games.Current(room.Code)
	if err != nil {
		switch {
		case errors.Is(err, game.ErrNoActiveGame):
			s.Coord.PublishTo(clientID, errorReply("No active game in this room"))
		case errors.Is(err, game.ErrNoCurrentQuestion):
			s.Coord.PublishTo(clientID, errorReply("No current question"))
		default:
			s.Coord.PublishTo(clientID, errorReply("Failed to fetch question"))
		}
		return
	}
	s.Coord.PublishTo(clientID, questionMessage{Type: "question", Question: q})
}

// disconnect runs the full cleanup for a dropped client: connection,
// room membership, session ledger, registry entry. Every step is
// independently fault-isolated and safe to repeat.
func (s *Server) disconnect(clientID string) {
	s.Hub.Unregister(clientID)

	if room, found := s.Rooms.RoomOf(clientID); found {
		code := room.Code
		wasCreator := room.Creator() == clientID
		_, alive, err := s.Rooms.Leave(code, clientID)
		if err != nil && !errors.Is(err, rooms.ErrNotAMember) {
			log.Printf("[Disconnect] Leave %s: %v\n", code, err)
		}
		s.Games.Forget(code, clientID)

		if alive {
			if wasCreator {
				// The promoted creator is exempt from ready-gating and
				// can no longer toggle, so a stale ready flag is cleared
				// here.
				if members := s.Rooms.Members(code); len(members) > 0 {
					s.Players.SetReady(members[0], false)
					s.checkpointPlayer(members[0])
				}
			}
			s.checkpointRoom(code)
			s.Coord.Publish(code, playerDisconnectMessage{Type: "player_disconnect", ClientID: clientID})
			s.Coord.PublishRoomView(code)
		} else {
			s.Games.End(code)
			if s.DB != nil {
				if err := s.DB.DeleteRoom(code); err != nil {
					log.Printf("[DB] DeleteRoom error: %v\n", err)
				}
			}
			log.Printf("[Disconnect] Room %s destroyed\n", code)
		}
	}

	s.Players.Remove(clientID)
	if s.DB != nil {
		if err := s.DB.DeletePlayer(clientID); err != nil {
			log.Printf("[DB] DeletePlayer error: %v\n", err)
		}
	}
	log.Printf("[WS] Client %s disconnected\n", clientID)
}

// checkpointRoom persists a room snapshot. Persistence is recovery-only:
// failures are logged and never influence live decisions.
func (s *Server) checkpointRoom(code string) {
	if s.DB == nil {
		return
	}
	room, exists := s.Rooms.Get(code)
	if !exists {
		return
	}
	rec := db.RoomRecord{
		Code:     room.Code,
		Members:  s.Rooms.Members(code),
		Category: s.Games.Category(code),
	}
	if err := s.DB.PutRoom(rec); err != nil {
		log.Printf("[DB] PutRoom error: %v\n", err)
	}
}

func (s *Server) checkpointPlayer(clientID string) {
	if s.DB == nil {
		return
	}
	p, err := s.Players.Get(clientID)
	if err != nil {
		return
	}
	rec := db.PlayerRecord{
		ID:    p.ID,
		Name:  p.Name,
		Score: p.Score,
		Level: p.Level,
		Ready: p.Ready,
	}
	if err := s.DB.PutPlayer(rec); err != nil {
		log.Printf("[DB] PutPlayer error: %v\n", err)
	}
}

// restoreCheckpoints rebuilds room membership and player attributes from
// the checkpoint store after a restart.
func (s *Server) restoreCheckpoints() {
	records, err := s.DB.LoadRooms()
	if err != nil {
		log.Printf("[DB] Recovery failed: %v\n", err)
		return
	}
	restored := make(map[string]bool)
	for _, rec := range records {
		if len(rec.Members) == 0 {
			continue
		}
		s.Rooms.Restore(rec.Code, rec.Members)
		if rec.Category != "" {
			s.Games.SetCategory(rec.Code, rec.Category)
		}
		for _, m := range rec.Members {
			restored[m] = true
		}
		log.Printf("[DB] Recovered room %s (%d members)\n", rec.Code, len(rec.Members))
	}

	playerRecs, err := s.DB.LoadPlayers()
	if err != nil {
		log.Printf("[DB] Recovery failed: %v\n", err)
		return
	}
	for _, rec := range playerRecs {
		if !restored[rec.ID] {
			continue
		}
		if _, err := s.Players.Register(rec.ID); err != nil {
			continue
		}
		s.Players.SetName(rec.ID, rec.Name)
		s.Players.AddScore(rec.ID, rec.Score)
		s.Players.SetLevel(rec.ID, rec.Level)
		s.Players.SetReady(rec.ID, rec.Ready)
	}
}
