package domain

import "time"

type EnquiryStatus string

const (
	EnquiryNew       EnquiryStatus = "new"
	EnquiryRead      EnquiryStatus = "read"
	EnquiryResponded EnquiryStatus = "responded"
	EnquiryArchived  EnquiryStatus = "archived"
)

var EnquiryStatuses = []string{
	string(EnquiryNew),
	string(EnquiryRead),
	string(EnquiryResponded),
	string(EnquiryArchived),
}

// Enquiry is a contact-form submission.
type Enquiry struct {
	ID           string        `json:"_id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Message      string        `json:"message"`
	Status       EnquiryStatus `json:"status"`
	ReplyMessage string        `json:"replyMessage,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt,omitzero"`
}

func (e Enquiry) ItemID() string       { return e.ID }
func (e Enquiry) ItemStatus() string   { return string(e.Status) }
func (e Enquiry) SearchText() []string { return []string{e.Name, e.Email, e.Message} }

func (e Enquiry) FormValues() map[string]string {
	return map[string]string{
		"name":         e.Name,
		"email":        e.Email,
		"message":      e.Message,
		"status":       string(e.Status),
		"replyMessage": e.ReplyMessage,
	}
}
