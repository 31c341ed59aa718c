package gateway

import (
	"net/http"

	"github.com/decred/slog"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vctt94/bisonbotkit/logging"

	"github.com/squeakgame/squeak/pkg/server"
)

// Gateway bridges browser websocket connections to the room registry.
// One Client per connection; events reach it through the server's
// subscriber registry.
type Gateway struct {
	log slog.Logger
	srv *server.Server

	upgrader websocket.Upgrader
}

// New creates a gateway in front of the given server.
func New(srv *server.Server, logBackend *logging.LogBackend) *Gateway {
	return &Gateway{
		log: logBackend.Logger("GATEWAY"),
		srv: srv,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The only clients are the game's own pages; the game has
			// no cross-site surface worth locking down.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Register installs the gateway's routes on the mux.
func (g *Gateway) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ws", g.serveWS)
}

// serveWS upgrades the connection and runs the client pumps. Players
// identify with ?id= and ?name= query params; absent an id the player
// gets a fresh guest identity.
func (g *Gateway) serveWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("id")
	if playerID == "" {
		playerID = uuid.NewString()
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "Guest " + playerID[:8]
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Errorf("Websocket upgrade failed for %s: %v", playerID, err)
		return
	}

	client := newClient(g, conn, playerID, name)
	g.srv.Subscribe(playerID, client)
	g.log.Infof("Player %s (%s) connected", playerID, name)

	go client.writePump()
	client.writeWelcome()
	client.readPump()
}
