package server

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/decred/slog"
	"github.com/google/uuid"
	"github.com/vctt94/bisonbotkit/logging"
)

var ErrRoomNotFound = errors.New("room not found")

// Server owns the room registry and the event fan-out. Game state itself
// lives inside each room's actor; the server only routes.
type Server struct {
	log        slog.Logger
	logBackend *logging.LogBackend
	db         Database

	rooms map[string]*Room
	mu    sync.RWMutex

	// Connected players' event subscribers, registered by the gateway.
	subscribers   map[string]Subscriber
	subscribersMu sync.RWMutex

	eventProcessor *EventProcessor

	// WaitGroup to ensure all async persistence goroutines complete
	// before Stop returns.
	saveWg sync.WaitGroup
}

// NewServer creates a new squeak server
func NewServer(db Database, logBackend *logging.LogBackend) *Server {
	server := &Server{
		log:         logBackend.Logger("SERVER"),
		logBackend:  logBackend,
		db:          db,
		rooms:       make(map[string]*Room),
		subscribers: make(map[string]Subscriber),
	}

	server.eventProcessor = NewEventProcessor(server, 1000, 3) // queue size: 1000, workers: 3
	server.eventProcessor.Start()

	return server
}

// Stop gracefully stops the server
func (s *Server) Stop() {
	s.mu.Lock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.rooms = make(map[string]*Room)
	s.mu.Unlock()

	for _, r := range rooms {
		r.Close()
	}
	if s.eventProcessor != nil {
		s.eventProcessor.Stop()
	}
	// Wait for any in-flight persistence to complete before returning.
	s.saveWg.Wait()
}

// publish hands an event to the processor.
func (s *Server) publish(event *GameEvent) {
	s.eventProcessor.PublishEvent(event)
}

// Subscribe registers a connected player's event sink.
func (s *Server) Subscribe(playerID string, sub Subscriber) {
	s.subscribersMu.Lock()
	s.subscribers[playerID] = sub
	s.subscribersMu.Unlock()
}

// Unsubscribe drops a player's event sink on disconnect.
func (s *Server) Unsubscribe(playerID string) {
	s.subscribersMu.Lock()
	delete(s.subscribers, playerID)
	s.subscribersMu.Unlock()
}

func (s *Server) subscriber(playerID string) Subscriber {
	s.subscribersMu.RLock()
	defer s.subscribersMu.RUnlock()
	return s.subscribers[playerID]
}

// newRoomCode derives a short join code. Collisions are rechecked under
// the registry lock.
func newRoomCode() string {
	return strings.ToUpper(uuid.NewString()[:6])
}

// CreateRoom registers a new room with the given host and settings and
// seats the host in it.
func (s *Server) CreateRoom(hostID, hostName string, settings RoomSettings) (*Room, error) {
	if err := s.db.UpsertPlayer(hostID, hostName); err != nil {
		s.log.Errorf("Failed to upsert player %s: %v", hostID, err)
	}

	s.mu.Lock()
	code := newRoomCode()
	for _, taken := s.rooms[code]; taken; _, taken = s.rooms[code] {
		code = newRoomCode()
	}
	room := NewRoom(code, hostID, settings, s)
	s.rooms[code] = room
	s.mu.Unlock()

	if err := room.Join(hostID, hostName); err != nil {
		return nil, err
	}
	s.log.Infof("Created room %s (host %s)", code, hostID)
	return room, nil
}

// GetRoom returns the room with the given code.
func (s *Server) GetRoom(code string) (*Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[strings.ToUpper(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// JoinRoom seats a player in the room with the given code.
func (s *Server) JoinRoom(code, playerID, name string) (*Room, error) {
	room, err := s.GetRoom(code)
	if err != nil {
		return nil, err
	}
	if err := s.db.UpsertPlayer(playerID, name); err != nil {
		s.log.Errorf("Failed to upsert player %s: %v", playerID, err)
	}
	if err := room.Join(playerID, name); err != nil {
		return nil, err
	}
	return room, nil
}

// CloseRoom stops a room's actor and removes it from the registry.
func (s *Server) CloseRoom(code string) {
	s.mu.Lock()
	room, ok := s.rooms[code]
	delete(s.rooms, code)
	s.mu.Unlock()
	if ok {
		room.Close()
		s.log.Infof("Closed room %s", code)
	}
}

// RoomCodes lists the open rooms.
func (s *Server) RoomCodes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make([]string, 0, len(s.rooms))
	for code := range s.rooms {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// RoomInfo is one line of the public room listing.
type RoomInfo struct {
	Code        string `json:"code"`
	HostID      string `json:"hostId"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	Started     bool   `json:"started"`
	Private     bool   `json:"-"`
}

// ListRooms returns the joinable public rooms.
func (s *Server) ListRooms() []RoomInfo {
	infos := make([]RoomInfo, 0)
	for _, code := range s.RoomCodes() {
		room, err := s.GetRoom(code)
		if err != nil {
			continue // torn down between listing and lookup
		}
		info := room.Info()
		if info.Private || info.Code == "" {
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

// PlayerStats returns a player's persistent scoreboard line.
func (s *Server) PlayerStats(playerID string) (*PlayerStats, error) {
	return s.db.GetPlayerStats(playerID)
}

// Scoreboard returns the global scoreboard, best first.
func (s *Server) Scoreboard(limit int) ([]*PlayerStats, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.db.TopPlayers(limit)
}

// recordRoundAsync persists round results off the room actor.
func (s *Server) recordRoundAsync(roomID string, records []*RoundRecord) {
	s.saveWg.Add(1)
	go func() {
		defer s.saveWg.Done()
		if err := s.db.RecordRound(records); err != nil {
			s.log.Errorf("Failed to record round for room %s: %v", roomID, err)
		} else {
			s.log.Debugf("Recorded round results for room %s", roomID)
		}
	}()
}
