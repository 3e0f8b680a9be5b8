package matrix

import "sort"

// SyncResponse holds the fields of a /sync response the bot consumes.
type SyncResponse struct {
	NextBatch string            `json:"next_batch"`
	Rooms     RoomsSyncResponse `json:"rooms"`
}

// RoomsSyncResponse carries the joined-room timelines.
type RoomsSyncResponse struct {
	Join map[string]JoinedRoom `json:"join"`
}

// JoinedRoom is the per-room slice of a sync response.
type JoinedRoom struct {
	Timeline Timeline `json:"timeline"`
}

// Timeline is the ordered list of events for one room.
type Timeline struct {
	Events []Event `json:"events"`
}

// Event is a single room event; only consumed fields are declared.
type Event struct {
	Type           string         `json:"type"`
	StateKey       *string        `json:"state_key,omitempty"`
	Sender         string         `json:"sender"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        map[string]any `json:"content"`
}

// Body returns the message body from the event content, if present.
func (e Event) Body() (string, bool) {
	body, ok := e.Content["body"].(string)
	return body, ok
}

// RoomEvent pairs an event with the room it arrived in.
type RoomEvent struct {
	RoomID string
	Event  Event
}

// Events flattens the response into (room, event) pairs. Per-room order is
// the server's; rooms are visited in sorted id order for determinism.
func (r *SyncResponse) Events() []RoomEvent {
	roomIDs := make([]string, 0, len(r.Rooms.Join))
	for id := range r.Rooms.Join {
		roomIDs = append(roomIDs, id)
	}
	sort.Strings(roomIDs)

	var out []RoomEvent
	for _, id := range roomIDs {
		for _, ev := range r.Rooms.Join[id].Timeline.Events {
			out = append(out, RoomEvent{RoomID: id, Event: ev})
		}
	}
	return out
}
