package domain

import "time"

type Volunteer struct {
	ID        string    `json:"_id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func (v Volunteer) ItemID() string     { return v.ID }
func (v Volunteer) ItemStatus() string { return "" }

func (v Volunteer) SearchText() []string {
	return []string{v.FirstName, v.LastName, v.FirstName + " " + v.LastName, v.Email}
}

func (v Volunteer) FormValues() map[string]string {
	return map[string]string{
		"firstName": v.FirstName,
		"lastName":  v.LastName,
		"email":     v.Email,
	}
}
