package model

import "time"

type Board struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type List struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"board_id"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

type Card struct {
	ID          string    `json:"id"`
	ListID      string    `json:"list_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"
)

type Member struct {
	ID       string     `json:"id"`
	BoardID  string     `json:"board_id"`
	UserID   string     `json:"user_id"`
	Email    string     `json:"email,omitempty"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}

type Invite struct {
	ID         string     `json:"id"`
	BoardID    string     `json:"board_id"`
	InviteCode string     `json:"invite_code"`
	CreatedBy  string     `json:"created_by"`
	Uses       int        `json:"uses"`
	MaxUses    *int       `json:"max_uses,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Identity is the signed-in user as reported by the identity provider.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// DescriptionText returns the card description or "" when unset.
func (c Card) DescriptionText() string {
	if c.Description == nil {
		return ""
	}
	return *c.Description
}
