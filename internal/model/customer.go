package model

import (
	"strings"
	"time"
)

// Customer is a VASP client loaded from a travel-rule report.
type Customer struct {
	ID        string    `json:"customer_id"`
	SAID      string    `json:"sa_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	VASPID    string    `json:"vasp_id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source,omitempty"`
}

func (c Customer) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
