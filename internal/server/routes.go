package server

import (
	"fmt"
	"log"
	"net/http"

	"quizroom/internal/broadcast"
	"quizroom/internal/config"
	"quizroom/internal/db"
	"quizroom/internal/game"
	"quizroom/internal/players"
	"quizroom/internal/questions"
	"quizroom/internal/rooms"
	"quizroom/internal/wshub"
)

func Run() error {
	appCfg := config.Load()

	hub := wshub.NewHub()
	playerStore := players.NewStore()
	roomStore := rooms.NewStore(appCfg.RoomCapacity)
	bank := questions.NewBank()
	games := game.NewController(playerStore, roomStore, bank, appCfg.PointsPerCorrect)
	coord := broadcast.NewCoordinator(hub, roomStore, playerStore)

	srv := &Server{
		Hub:     hub,
		Players: playerStore,
		Rooms:   roomStore,
		Games:   games,
		Coord:   coord,
		Bank:    bank,
	}

	// Optional checkpoint store for restart recovery
	if appCfg.DatabaseURL != "" {
		database, err := db.Connect(appCfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Failed to connect: %v (running without database)\n", err)
		} else {
			if err := database.Migrate(); err != nil {
				log.Printf("[DB] Migration failed: %v\n", err)
			}
			srv.DB = database
			srv.restoreCheckpoints()
			log.Println("[DB] Database connected and migrations applied")
		}
	} else {
		log.Println("[DB] DATABASE_URL not set, running without database")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleIndex)
	mux.HandleFunc("/ws/{clientID}", srv.handleWS)
	mux.HandleFunc("/ws", srv.handleWS)
	mux.HandleFunc("/health", srv.handleHealth)

	addr := "0.0.0.0:" + appCfg.Port
	fmt.Printf("Server listening on http://localhost:%s\n", appCfg.Port)
	return http.ListenAndServe(addr, mux)
}
