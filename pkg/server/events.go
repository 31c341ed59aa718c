package server

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/decred/slog"
)

// GameEventType represents the type of game event
type GameEventType string

const (
	GameEventTypePlayerJoined     GameEventType = "playerJoined"
	GameEventTypePlayerLeft       GameEventType = "playerLeft"
	GameEventTypeRoomIsFull       GameEventType = "roomIsFull"
	GameEventTypeGameStarted      GameEventType = "gameStarted"
	GameEventTypeRoundStarted     GameEventType = "roundStarted"
	GameEventTypeCardDropApproved GameEventType = "cardDropApproved"
	GameEventTypeCardDropDenied   GameEventType = "cardDropDenied"
	GameEventTypeCardDrawn        GameEventType = "cardDrawn"
	GameEventTypeStackRefilled    GameEventType = "squeakStackRefilled"
	GameEventTypeDecksRotated     GameEventType = "decksWereRotated"
	GameEventTypeVoteUpdated      GameEventType = "voteUpdated"
	GameEventTypeScoreboard       GameEventType = "scoreboardMetadata"
	GameEventTypeGameEnded        GameEventType = "gameEnded"
	GameEventTypeSyncState        GameEventType = "syncClientWithServer"
)

// GameEvent represents an immutable snapshot of a game event
type GameEvent struct {
	Type      GameEventType
	RoomID    string
	PlayerIDs []string // All players who should receive this event
	Payload   interface{}
	Timestamp time.Time

	// Snapshot is attached to events that must let clients rebuild
	// their full view (sync, round boundaries).
	Snapshot *RoomSnapshot
}

// Subscriber receives events for one connected player. Implementations
// must not block; the gateway buffers per-connection.
type Subscriber interface {
	DeliverEvent(event *GameEvent)
}

// EventProcessor fans game events out to subscribers through a worker
// pool, keeping broadcast work off the room actors. Events are sharded
// onto a fixed queue per worker by room, so one worker owns a room's
// whole stream and its broadcasts reach subscribers in commit order.
type EventProcessor struct {
	server   *Server
	log      slog.Logger
	queues   []chan *GameEvent
	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex
}

// NewEventProcessor creates a new event processor
func NewEventProcessor(server *Server, queueSize, workerCount int) *EventProcessor {
	queues := make([]chan *GameEvent, workerCount)
	for i := range queues {
		queues[i] = make(chan *GameEvent, queueSize)
	}
	return &EventProcessor{
		server:   server,
		log:      server.log,
		queues:   queues,
		stopChan: make(chan struct{}),
	}
}

// Start begins processing events
func (ep *EventProcessor) Start() {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	if ep.started {
		return
	}

	ep.started = true
	ep.log.Infof("Starting event processor with %d workers", len(ep.queues))

	for i := range ep.queues {
		ep.wg.Add(1)
		go ep.run(i)
	}
}

// Stop gracefully stops the event processor
func (ep *EventProcessor) Stop() {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	if !ep.started {
		return
	}

	ep.log.Infof("Stopping event processor...")
	close(ep.stopChan)
	ep.wg.Wait()
	ep.started = false
	ep.log.Infof("Event processor stopped")
}

// PublishEvent publishes an event for processing
func (ep *EventProcessor) PublishEvent(event *GameEvent) {
	ep.mu.Lock()
	started := ep.started
	ep.mu.Unlock()

	if !started {
		ep.log.Warnf("Event processor not started, dropping event: %v", event.Type)
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case ep.shard(event.RoomID) <- event:
		ep.log.Tracef("Published event: %s for room %s", event.Type, event.RoomID)
	default:
		ep.log.Errorf("Event queue full, dropping event: %s for room %s", event.Type, event.RoomID)
	}
}

// shard picks the queue owning a room's event stream.
func (ep *EventProcessor) shard(roomID string) chan *GameEvent {
	h := fnv.New32a()
	h.Write([]byte(roomID))
	return ep.queues[int(h.Sum32())%len(ep.queues)]
}

// run executes the worker loop
func (ep *EventProcessor) run(id int) {
	defer ep.wg.Done()
	ep.log.Debugf("Event worker %d started", id)

	for {
		select {
		case <-ep.stopChan:
			ep.log.Debugf("Event worker %d stopping", id)
			return

		case event := <-ep.queues[id]:
			if event != nil {
				ep.deliver(event)
			}
		}
	}
}

// deliver hands the event to every targeted player's subscriber.
func (ep *EventProcessor) deliver(event *GameEvent) {
	for _, playerID := range event.PlayerIDs {
		sub := ep.server.subscriber(playerID)
		if sub == nil {
			continue
		}
		sub.DeliverEvent(event)
	}
}
