package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents an operator's permission level.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// Operator is a site operator account. Operators manage stream records and the
// platform proxy; viewers never authenticate.
type Operator struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OperatorPublic is Operator without sensitive fields for API responses.
type OperatorPublic struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts Operator to OperatorPublic.
func (o *Operator) ToPublic() OperatorPublic {
	return OperatorPublic{
		ID:        o.ID,
		Email:     o.Email,
		Name:      o.Name,
		Role:      o.Role,
		CreatedAt: o.CreatedAt,
	}
}
