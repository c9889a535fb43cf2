// Package fakeapi is an in-memory ticket REST server for tests. It mirrors
// the production backend's observable behaviour: numeric ids, TICKET-<id>
// numbers, activity side effects and body-less 204 deletes.
package fakeapi

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/kanban/internal/domain/ticket"
)

// Route keys, as seen by Calls and FailNext.
const (
	RouteListTickets      = "GET /api/tickets"
	RouteGetTicket        = "GET /api/tickets/:id"
	RouteCreateTicket     = "POST /api/tickets"
	RouteUpdateTicket     = "PUT /api/tickets/:id"
	RouteDeleteTicket     = "DELETE /api/tickets/:id"
	RouteListComments     = "GET /api/tickets/:id/comments"
	RouteAddComment       = "POST /api/tickets/:id/comments"
	RouteListActivities   = "GET /api/tickets/:id/activities"
	RouteListAttachments  = "GET /api/tickets/:id/attachments"
	RouteUploadAttachment = "POST /api/tickets/:id/attachments"
	RouteDeleteAttachment = "DELETE /api/attachments/:attachmentId"
)

type Server struct {
	mu sync.Mutex

	lastID      uint64
	tickets     map[uint64]ticket.Ticket
	comments    []ticket.Comment
	activities  []ticket.Activity
	attachments []ticket.Attachment
	contents    map[ticket.ID][]byte

	calls    map[string]int
	failures map[string]int
	holds    map[string]*hold
	headers  []http.Header

	now func() time.Time
	srv *httptest.Server
}

// New starts a fake server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		tickets:  make(map[uint64]ticket.Ticket),
		contents: make(map[ticket.ID][]byte),
		calls:    make(map[string]int),
		failures: make(map[string]int),
		holds:    make(map[string]*hold),
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
	s.srv = httptest.NewServer(s.router())
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the API root, with a trailing slash.
func (s *Server) URL() string {
	return s.srv.URL + "/api/"
}

// SetClock replaces the server clock.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Seed stores a ticket as-is, assigning an id and number when missing.
func (s *Server) Seed(t ticket.Ticket) ticket.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id uint64
	if n, err := strconv.ParseUint(t.ID.String(), 10, 64); err == nil {
		id = n
		if n > s.lastID {
			s.lastID = n
		}
	} else {
		s.lastID++
		id = s.lastID
	}
	t.ID = idOf(id)
	if t.TicketNumber == "" {
		t.TicketNumber = fmt.Sprintf("TICKET-%d", id)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
		t.UpdatedAt = t.CreatedAt
	}
	s.tickets[id] = t
	return t
}

// SeedActivity appends an activity record.
func (s *Server) SeedActivity(a ticket.Activity) ticket.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	a.ID = idOf(s.lastID)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	s.activities = append(s.activities, a)
	return a
}

// Tickets returns the stored tickets in id order.
func (s *Server) Tickets() []ticket.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedTickets()
}

// Activities returns the activities recorded for a ticket.
func (s *Server) Activities(ticketID ticket.ID) []ticket.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ticket.Activity
	for _, a := range s.activities {
		if a.TicketID == ticketID {
			out = append(out, a)
		}
	}
	return out
}

// Content returns the uploaded bytes of an attachment.
func (s *Server) Content(attachmentID ticket.ID) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contents[attachmentID]
}

// Calls returns how many requests hit a route, e.g. Calls(RouteListTickets).
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// FailNext makes the next request to route answer with status.
func (s *Server) FailNext(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = status
}

type hold struct {
	arrived chan struct{}
	release chan struct{}
	once    sync.Once
}

// HoldNext makes the next request to route wait until release is called.
// The response is built before the wait, so it reflects the state at
// arrival. arrived is closed once that response is ready.
func (s *Server) HoldNext(route string) (arrived <-chan struct{}, release func()) {
	h := &hold{arrived: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	s.holds[route] = h
	s.mu.Unlock()
	return h.arrived, func() { h.once.Do(func() { close(h.release) }) }
}

// LastHeaders returns the headers of the most recent request.
func (s *Server) LastHeaders() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.headers) == 0 {
		return nil
	}
	return s.headers[len(s.headers)-1]
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(s.record)

	api := r.Group("/api")
	api.GET("/tickets", s.listTickets)
	api.GET("/tickets/:id", s.getTicket)
	api.POST("/tickets", s.createTicket)
	api.PUT("/tickets/:id", s.updateTicket)
	api.DELETE("/tickets/:id", s.deleteTicket)

	api.GET("/tickets/:id/comments", s.listComments)
	api.POST("/tickets/:id/comments", s.addComment)
	api.GET("/tickets/:id/activities", s.listActivities)

	api.GET("/tickets/:id/attachments", s.listAttachments)
	api.POST("/tickets/:id/attachments", s.uploadAttachment)
	api.DELETE("/attachments/:attachmentId", s.deleteAttachment)
	return r
}

// record counts the call and applies a pending failure or hold.
func (s *Server) record(c *gin.Context) {
	route := c.Request.Method + " " + c.FullPath()

	s.mu.Lock()
	s.calls[route]++
	s.headers = append(s.headers, c.Request.Header.Clone())
	status, fail := s.failures[route]
	delete(s.failures, route)
	h := s.holds[route]
	delete(s.holds, route)
	s.mu.Unlock()

	if fail {
		c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	c.Next()

	if h != nil {
		close(h.arrived)
		<-h.release
	}
}

func (s *Server) listTickets(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.sortedTickets())
}

func (s *Server) getTicket(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, exists := s.tickets[id]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) createTicket(c *gin.Context) {
	var in ticket.TicketInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	now := s.now()
	t := ticket.Ticket{
		ID:           idOf(s.lastID),
		TicketNumber: in.TicketNumber,
		Title:        in.Title,
		Description:  in.Description,
		Status:       in.Status,
		Assignee:     in.Assignee,
		Priority:     in.Priority,
		DueDate:      in.DueDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if t.TicketNumber == "" {
		t.TicketNumber = fmt.Sprintf("TICKET-%d", s.lastID)
	}
	s.tickets[s.lastID] = t
	s.appendActivity(t.ID, ticket.ActivityCreated, "Ticket created: "+t.Title)
	c.JSON(http.StatusCreated, t)
}

func (s *Server) updateTicket(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in ticket.TicketInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, exists := s.tickets[id]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
		return
	}
	if in.TicketNumber != "" {
		t.TicketNumber = in.TicketNumber
	}
	t.Title = in.Title
	t.Description = in.Description
	t.Status = in.Status
	t.Assignee = in.Assignee
	t.Priority = in.Priority
	t.DueDate = in.DueDate
	t.UpdatedAt = s.now()
	s.tickets[id] = t
	s.appendActivity(t.ID, ticket.ActivityUpdated, "Ticket updated: "+t.Title)
	c.JSON(http.StatusOK, t)
}

func (s *Server) deleteTicket(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.tickets, id)
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}

func (s *Server) listComments(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []ticket.Comment{}
	for _, cm := range s.comments {
		if cm.TicketID == idOf(id) {
			out = append(out, cm)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) addComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in ticket.CommentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	now := s.now()
	cm := ticket.Comment{
		ID:        idOf(s.lastID),
		TicketID:  idOf(id),
		Author:    in.Author,
		Text:      in.Text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.comments = append(s.comments, cm)
	s.appendActivity(cm.TicketID, ticket.ActivityCommentAdded, "Comment added")
	c.JSON(http.StatusCreated, cm)
}

func (s *Server) listActivities(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []ticket.Activity{}
	for _, a := range s.activities {
		if a.TicketID == idOf(id) {
			out = append(out, a)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listAttachments(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []ticket.Attachment{}
	for _, a := range s.attachments {
		if a.TicketID == idOf(id) {
			out = append(out, a)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) uploadAttachment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	now := s.now()
	name := path.Base(fh.Filename)
	att := ticket.Attachment{
		ID:         idOf(s.lastID),
		TicketID:   idOf(id),
		Filename:   name,
		Filepath:   path.Join("uploads", now.Format("20060102150405")+"_"+name),
		UploadedAt: now,
	}
	s.attachments = append(s.attachments, att)
	s.contents[att.ID] = data
	c.JSON(http.StatusCreated, att)
}

func (s *Server) deleteAttachment(c *gin.Context) {
	id, ok := paramID(c, "attachmentId")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.attachments[:0]
	for _, a := range s.attachments {
		if a.ID != idOf(id) {
			kept = append(kept, a)
		}
	}
	s.attachments = kept
	delete(s.contents, idOf(id))
	c.Status(http.StatusNoContent)
}

// appendActivity must be called with mu held.
func (s *Server) appendActivity(ticketID ticket.ID, kind, message string) {
	s.lastID++
	s.activities = append(s.activities, ticket.Activity{
		ID:        idOf(s.lastID),
		TicketID:  ticketID,
		Type:      kind,
		Message:   message,
		CreatedAt: s.now(),
	})
}

// sortedTickets must be called with mu held.
func (s *Server) sortedTickets() []ticket.Ticket {
	ids := make([]uint64, 0, len(s.tickets))
	for id := range s.tickets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]ticket.Ticket, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.tickets[id])
	}
	return out
}

func paramID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

func idOf(n uint64) ticket.ID {
	return ticket.ID(strconv.FormatUint(n, 10))
}
