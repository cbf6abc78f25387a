package main

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tecu23/chess-arbiter/pkg/server"
)

func (app *application) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,

		CheckOrigin: func(r *http.Request) bool {
			if app.Config.FrontendOrigin == "" {
				return true
			}
			return app.Config.FrontendOrigin == r.Header.Get("Origin")
		},
	}
}

// handleWebSocket handles WebSocket connections
func (app *application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := app.upgrader().Upgrade(w, r, nil)
	if err != nil {
		app.Logger.Error("Failed to upgrade to WebSocket", zap.Error(err))
		return
	}

	conn := server.NewConnection(ws, app.Hub, app.Publisher, app.Logger)
	app.Hub.Register(conn)

	app.Logger.Info("WebSocket connection established",
		zap.String("connection_id", conn.ID.String()),
		zap.String("remote_addr", r.RemoteAddr))

	go conn.WritePump()
	go conn.ReadPump()
}
