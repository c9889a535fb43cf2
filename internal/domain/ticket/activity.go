package ticket

import "time"

// Activity types written by the server as side effects of other mutations.
const (
	ActivityCreated       = "created"
	ActivityUpdated       = "updated"
	ActivityStatusChanged = "status_changed"
	ActivityCommentAdded  = "comment_added"
)

// Activity is an append-only log entry. The client only reads it.
type Activity struct {
	ID        ID        `json:"id"`
	TicketID  ID        `json:"ticketId"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
