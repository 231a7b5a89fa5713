package socket

import (
	"log"

	socketio "github.com/googollee/go-socket.io"
)

// NewSocketServer initializes the Socket.IO server that delivers chat
// messages live. Clients join a room named after their connection id and
// receive "newMessage" events as messages are stored.
func NewSocketServer() *socketio.Server {
	server := socketio.NewServer(nil)

	server.OnConnect("/", func(s socketio.Conn) error {
		log.Println("Socket connected:", s.ID())
		return nil
	})

	server.OnEvent("/", "join", func(s socketio.Conn, connectionID string) {
		if connectionID == "" {
			log.Println("Ignoring join with empty connection id")
			return
		}
		log.Printf("Socket %s joined connection %s", s.ID(), connectionID)
		s.Join(connectionID)
	})

	server.OnEvent("/", "leave", func(s socketio.Conn, connectionID string) {
		s.Leave(connectionID)
	})

	server.OnError("/", func(s socketio.Conn, err error) {
		log.Println("Socket error:", err)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Println("Socket disconnected:", reason)
	})

	return server
}
