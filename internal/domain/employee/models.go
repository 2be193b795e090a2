package employee

import "time"

type Employee struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	PLBalance int       `json:"plBalance"`
	COBalance int       `json:"coBalance"`
	CreatedAt time.Time `json:"createdAt"`
}
