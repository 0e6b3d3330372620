package domain

import "time"

// Partner is an organisation shown on the public site with its logo.
type Partner struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Logo        string    `json:"logo"`
	Link        string    `json:"link,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

func (p Partner) ItemID() string       { return p.ID }
func (p Partner) ItemStatus() string   { return "" }
func (p Partner) SearchText() []string { return []string{p.Name, p.Description} }

func (p Partner) FormValues() map[string]string {
	return map[string]string{
		"name":        p.Name,
		"logo":        p.Logo,
		"link":        p.Link,
		"description": p.Description,
	}
}
