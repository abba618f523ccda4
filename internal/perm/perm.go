// Package perm decides what a user may do on a board.
//
// Rules:
//   - The board's creator (boards.user_id) is its owner.
//   - A board_members row grants access; role owner counts as owner.
//   - Owners may invite, remove members and delete the board.
//   - Owners and members may read and edit lists and cards.
package perm

import (
	"context"
	"errors"
	"strings"

	"corkboard-cli/internal/model"
	"corkboard-cli/internal/store"
)

type Access int

const (
	None Access = iota
	Member
	Owner
)

func (a Access) String() string {
	switch a {
	case Owner:
		return "owner"
	case Member:
		return "member"
	default:
		return "none"
	}
}

var (
	ErrNoAccess = errors.New("you are not a member of this board")
	ErrNotOwner = errors.New("only the board owner can do that")
)

// For returns userID's access to boardID. A missing board is store.ErrNotFound.
func For(ctx context.Context, s store.Store, boardID, userID string) (Access, error) {
	userID = strings.TrimSpace(userID)
	b, err := store.BoardByID(ctx, s, boardID)
	if err != nil {
		return None, err
	}
	if userID == "" {
		return None, nil
	}
	if b.UserID == userID {
		return Owner, nil
	}
	rows, err := s.Select(ctx, store.Members, store.Where(store.Eq("board_id", boardID), store.Eq("user_id", userID)))
	if err != nil {
		return None, err
	}
	access := None
	for _, r := range rows {
		m, err := store.MemberFromRow(r)
		if err != nil {
			return None, err
		}
		if m.Role == model.RoleOwner {
			return Owner, nil
		}
		access = Member
	}
	return access, nil
}

func RequireMember(ctx context.Context, s store.Store, boardID, userID string) error {
	a, err := For(ctx, s, boardID, userID)
	if err != nil {
		return err
	}
	if a == None {
		return ErrNoAccess
	}
	return nil
}

func RequireOwner(ctx context.Context, s store.Store, boardID, userID string) error {
	a, err := For(ctx, s, boardID, userID)
	if err != nil {
		return err
	}
	if a != Owner {
		return ErrNotOwner
	}
	return nil
}
