package ticket

import (
	"strings"
	"time"
)

type Attachment struct {
	ID         ID        `json:"id"`
	TicketID   ID        `json:"ticketId"`
	Filename   string    `json:"filename"`
	Filepath   string    `json:"filepath"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// DownloadPath returns the root-relative link to the stored file.
func (a *Attachment) DownloadPath() string {
	p := strings.ReplaceAll(a.Filepath, "\\", "/")
	return "/" + strings.TrimLeft(p, "/")
}
