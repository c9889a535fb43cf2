package ticket

import "time"

// Comment is immutable once created; the board never edits or deletes it.
type Comment struct {
	ID        ID        `json:"id"`
	TicketID  ID        `json:"ticketId"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CommentInput is the body of a new comment.
type CommentInput struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}
