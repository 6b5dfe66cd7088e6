// Package email holds outbound mail messages and their delivery log.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/mail"
	"sort"
	"strings"
	"time"
)

// Status is the delivery outcome of a logged email.
type Status string

// Delivery outcomes.
const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// NoProgram marks emails not tied to a program.
const NoProgram = "N/A"

// DateLayout keys records by UTC calendar day.
const DateLayout = "2006-01-02"

// TopProgramsLimit caps Stats.ByProgram.
const TopProgramsLimit = 10

const maxSubjectLen = 998

// Message is an email ready to hand to a provider.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Receipt is what a provider returns for an accepted message.
type Receipt struct {
	MessageID string
	Mock      bool
}

// Record is one entry in the delivery log.
type Record struct {
	ID        string
	ProgramID string
	To        string
	Subject   string
	Status    Status
	MessageID string
	Timestamp time.Time
}

// NewMessage validates the recipient, subject and body.
func NewMessage(to, subject, html string) (Message, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return Message{}, fmt.Errorf("to is required")
	}
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return Message{}, fmt.Errorf("to is not a valid address")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return Message{}, fmt.Errorf("subject is required")
	}
	if len(subject) > maxSubjectLen || strings.ContainsAny(subject, "\r\n") {
		return Message{}, fmt.Errorf("subject must be a single line under %d bytes", maxSubjectLen)
	}
	if strings.TrimSpace(html) == "" {
		return Message{}, fmt.Errorf("content is required")
	}
	return Message{To: addr.Address, Subject: subject, HTML: html}, nil
}

// NewRecord logs the outcome of sending msg. Empty program and message ids
// become NoProgram.
func NewRecord(id, programID string, msg Message, status Status, messageID string, now time.Time) Record {
	if programID == "" {
		programID = NoProgram
	}
	if messageID == "" {
		messageID = NoProgram
	}
	return Record{
		ID: id, ProgramID: programID, To: msg.To, Subject: msg.Subject,
		Status: status, MessageID: messageID, Timestamp: now,
	}
}

// Date returns the UTC day the record was logged.
func (r Record) Date() string {
	return r.Timestamp.UTC().Format(DateLayout)
}

// DefaultUniversity fills application confirmations that name no university.
const DefaultUniversity = "the university"

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<h2 style="color: #2c3e50;">Application Confirmation</h2>
<p>Thank you for applying to <strong>{{.Program}}</strong> at <strong>{{.University}}</strong>.</p>
<p>Your application has been received and is being processed.</p>
<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
<h3 style="margin-top: 0;">Next Steps</h3>
<ul>
<li>Check your email regularly for updates</li>
<li>Prepare any additional documents that may be requested</li>
<li>Review the program requirements</li>
</ul>
</div>
<p>Best regards,<br>TechRealm Team</p>
</div>
</body>
</html>
`))

var testTmpl = template.Must(template.New("test").Parse(`<html>
<body>
<h1>Test Email</h1>
<p>This is a test email from TechRealm.</p>
<p>Sent at: {{.}}</p>
</body>
</html>
`))

// ApplicationConfirmation builds the confirmation sent after an application.
func ApplicationConfirmation(to, programName, university string) (Message, error) {
	programName = strings.TrimSpace(programName)
	if programName == "" {
		return Message{}, fmt.Errorf("program_name is required")
	}
	if strings.TrimSpace(university) == "" {
		university = DefaultUniversity
	}
	var buf bytes.Buffer
	err := confirmationTmpl.Execute(&buf, struct{ Program, University string }{programName, university})
	if err != nil {
		return Message{}, fmt.Errorf("render confirmation: %w", err)
	}
	return NewMessage(to, "Application Confirmation - "+programName, buf.String())
}

// TestSubject is the subject of the delivery check message.
const TestSubject = "TechRealm - Test Email"

// TestMessage builds the delivery check message.
func TestMessage(to string, now time.Time) (Message, error) {
	var buf bytes.Buffer
	if err := testTmpl.Execute(&buf, now.UTC().Format(time.RFC3339)); err != nil {
		return Message{}, fmt.Errorf("render test email: %w", err)
	}
	return NewMessage(to, TestSubject, buf.String())
}

// Filter selects records. Empty fields match everything.
type Filter struct {
	ProgramID string
}

// Apply returns the records f matches, in order.
func (f Filter) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.ProgramID == "" || r.ProgramID == f.ProgramID {
			out = append(out, r)
		}
	}
	return out
}

// Stats aggregates the delivery log.
type Stats struct {
	Total     int
	ByStatus  map[string]int
	ByProgram map[string]int
	ByDate    map[string]int
}

// Summarize counts records by status, program and day. ByProgram keeps the
// TopProgramsLimit busiest programs, ties broken by program id.
func Summarize(records []Record) Stats {
	st := Stats{
		Total:     len(records),
		ByStatus:  map[string]int{},
		ByProgram: map[string]int{},
		ByDate:    map[string]int{},
	}
	programs := map[string]int{}
	for _, r := range records {
		st.ByStatus[string(r.Status)]++
		programs[r.ProgramID]++
		st.ByDate[r.Date()]++
	}

	ids := make([]string, 0, len(programs))
	for id := range programs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if programs[ids[i]] != programs[ids[j]] {
			return programs[ids[i]] > programs[ids[j]]
		}
		return ids[i] < ids[j]
	})
	for _, id := range ids[:min(len(ids), TopProgramsLimit)] {
		st.ByProgram[id] = programs[id]
	}
	return st
}
