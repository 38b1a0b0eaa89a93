package websocket

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// JobProgress is the snapshot pushed to subscribers after each bulk row
// completes. Polling the status endpoint remains the authoritative contract;
// this is a convenience stream for the issuing screen.
type JobProgress struct {
	JobID     string `json:"job_id"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Success   int    `json:"success"`
	Failed    int    `json:"failed"`
	Status    string `json:"status"`
}

type Client struct {
	JobID string
	Conn  *websocket.Conn
}

var subscribers = make(map[string]map[*websocket.Conn]bool)
var subscribersMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var progressCh = make(chan JobProgress, 64)

func init() {
	go RunHub()
}

func RunHub() {
	for {
		select {
		case client := <-Register:
			subscribersMu.Lock()
			if subscribers[client.JobID] == nil {
				subscribers[client.JobID] = make(map[*websocket.Conn]bool)
			}
			subscribers[client.JobID][client.Conn] = true
			subscribersMu.Unlock()
		case client := <-Unregister:
			subscribersMu.Lock()
			if conns, ok := subscribers[client.JobID]; ok {
				delete(conns, client.Conn)
				if len(conns) == 0 {
					delete(subscribers, client.JobID)
				}
			}
			subscribersMu.Unlock()
		case snapshot := <-progressCh:
			subscribersMu.RLock()
			conns := make([]*websocket.Conn, 0, len(subscribers[snapshot.JobID]))
			for conn := range subscribers[snapshot.JobID] {
				conns = append(conns, conn)
			}
			subscribersMu.RUnlock()

			for _, conn := range conns {
				if err := conn.WriteJSON(snapshot); err != nil {
					log.Printf("Error pushing job progress for %s: %v", snapshot.JobID, err)
					conn.Close()
					subscribersMu.Lock()
					if c, ok := subscribers[snapshot.JobID]; ok {
						delete(c, conn)
					}
					subscribersMu.Unlock()
				}
			}
		}
	}
}

// PublishJobProgress hands a snapshot to the hub without ever blocking the
// bulk row loop. A full channel drops the update; the next row publishes a
// fresher one anyway.
func PublishJobProgress(jobID string, snapshot JobProgress) {
	snapshot.JobID = jobID
	select {
	case progressCh <- snapshot:
	default:
	}
}
