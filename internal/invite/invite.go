// Package invite implements invite-link membership for boards.
package invite

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"corkboard-cli/internal/identity"
	"corkboard-cli/internal/model"
	"corkboard-cli/internal/perm"
	"corkboard-cli/internal/store"
)

// Alphabet omits characters that are easy to misread (0/O, 1/I/l, i, o).
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

const CodeLength = 8

var (
	ErrInvalid   = errors.New("invite code is invalid")
	ErrExpired   = errors.New("invite has expired")
	ErrExhausted = errors.New("invite has reached its maximum uses")
	ErrNotOwner  = perm.ErrNotOwner
	ErrOwnerRow  = errors.New("the board owner cannot be removed")
)

// GenerateCode returns a random CodeLength-character code from Alphabet.
func GenerateCode() (string, error) {
	var b strings.Builder
	b.Grow(CodeLength)
	n := big.NewInt(int64(len(Alphabet)))
	for i := 0; i < CodeLength; i++ {
		idx, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", err
		}
		b.WriteByte(Alphabet[idx.Int64()])
	}
	return b.String(), nil
}

// ValidCode reports whether s could have come from GenerateCode.
func ValidCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(Alphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}

// Info describes an invite before it is redeemed.
type Info struct {
	BoardID       string `json:"board_id"`
	BoardTitle    string `json:"board_title"`
	Code          string `json:"code"`
	AlreadyMember bool   `json:"already_member"`
}

type Service struct {
	store  store.Store
	who    identity.Provider
	now    func() time.Time
	logger log.FieldLogger
}

func New(s store.Store, who identity.Provider, logger log.FieldLogger) *Service {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{store: s, who: who, now: time.Now, logger: logger}
}

// Create persists a new invite for boardID. maxUses <= 0 means unlimited; a
// zero expiresAt means the invite never expires.
func (s *Service) Create(ctx context.Context, boardID string, maxUses int, expiresAt time.Time) (model.Invite, error) {
	me, err := s.who.Current()
	if err != nil {
		return model.Invite{}, err
	}
	if err := s.requireOwner(ctx, boardID, me); err != nil {
		return model.Invite{}, err
	}
	code, err := GenerateCode()
	if err != nil {
		return model.Invite{}, fmt.Errorf("generate invite code: %w", err)
	}
	inv := model.Invite{BoardID: boardID, InviteCode: code, CreatedBy: me.UserID}
	if maxUses > 0 {
		inv.MaxUses = &maxUses
	}
	if !expiresAt.IsZero() {
		exp := expiresAt.UTC()
		inv.ExpiresAt = &exp
	}
	inv, err = store.InsertInvite(ctx, s.store, inv)
	if err != nil {
		return model.Invite{}, fmt.Errorf("create invite: %w", err)
	}
	s.logger.WithFields(log.Fields{"table": string(store.Invites), "row_id": inv.ID, "board_id": boardID}).Debug("invite created")
	return inv, nil
}

// Latest returns the board's most recent invite.
func (s *Service) Latest(ctx context.Context, boardID string) (model.Invite, error) {
	invs, err := store.InvitesForBoard(ctx, s.store, boardID)
	if err != nil {
		return model.Invite{}, err
	}
	if len(invs) == 0 {
		return model.Invite{}, store.NotFoundError{Table: store.Invites, ID: boardID}
	}
	return invs[0], nil
}

// Inspect validates code and describes the board it opens.
//
// Checks run in order: unknown code, expiry, exhausted uses. A caller who is
// already a member gets Info with AlreadyMember set and no error.
func (s *Service) Inspect(ctx context.Context, code string) (Info, error) {
	inv, err := s.lookup(ctx, code)
	if err != nil {
		return Info{}, err
	}
	b, err := store.BoardByID(ctx, s.store, inv.BoardID)
	if errors.Is(err, store.ErrNotFound) {
		return Info{}, ErrInvalid
	}
	if err != nil {
		return Info{}, err
	}
	info := Info{BoardID: b.ID, BoardTitle: b.Title, Code: inv.InviteCode}
	me, err := s.who.Current()
	if err != nil {
		return info, err
	}
	m, err := s.membership(ctx, b.ID, me.UserID)
	if err != nil {
		return info, err
	}
	info.AlreadyMember = m != nil || b.UserID == me.UserID
	return info, nil
}

func (s *Service) lookup(ctx context.Context, code string) (model.Invite, error) {
	code = strings.TrimSpace(code)
	if !ValidCode(code) {
		return model.Invite{}, ErrInvalid
	}
	inv, err := store.InviteByCode(ctx, s.store, code)
	if errors.Is(err, store.ErrNotFound) {
		return model.Invite{}, ErrInvalid
	}
	if err != nil {
		return model.Invite{}, err
	}
	if inv.ExpiresAt != nil && !s.now().Before(*inv.ExpiresAt) {
		return model.Invite{}, ErrExpired
	}
	if inv.MaxUses != nil && inv.Uses >= *inv.MaxUses {
		return model.Invite{}, ErrExhausted
	}
	return inv, nil
}

// Redeem joins the caller to the invite's board as a member. Redeeming a board
// the caller already belongs to changes nothing.
func (s *Service) Redeem(ctx context.Context, code string) (Info, error) {
	info, err := s.Inspect(ctx, code)
	if err != nil || info.AlreadyMember {
		return info, err
	}
	me, err := s.who.Current()
	if err != nil {
		return info, err
	}
	inv, err := store.InviteByCode(ctx, s.store, info.Code)
	if err != nil {
		return info, err
	}
	_, err = store.InsertMember(ctx, s.store, model.Member{
		BoardID: info.BoardID,
		UserID:  me.UserID,
		Email:   me.Email,
		Role:    model.RoleMember,
	})
	if err != nil {
		return info, fmt.Errorf("join board: %w", err)
	}
	if err := store.UpdateByID(ctx, s.store, store.Invites, inv.ID, store.Row{"uses": inv.Uses + 1}); err != nil {
		s.logger.WithFields(log.Fields{
			"table":  string(store.Invites),
			"row_id": inv.ID,
		}).WithError(err).Error("count invite use failed")
	}
	info.AlreadyMember = true
	return info, nil
}

// Members lists the board's members in join order.
func (s *Service) Members(ctx context.Context, boardID string) ([]model.Member, error) {
	return store.MembersForBoard(ctx, s.store, boardID)
}

// RemoveMember deletes a membership row. Only the owner may do this, and the
// owner's own row stays.
func (s *Service) RemoveMember(ctx context.Context, boardID, memberID string) error {
	me, err := s.who.Current()
	if err != nil {
		return err
	}
	if err := s.requireOwner(ctx, boardID, me); err != nil {
		return err
	}
	members, err := s.Members(ctx, boardID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.ID != memberID {
			continue
		}
		if m.Role == model.RoleOwner {
			return ErrOwnerRow
		}
		return s.store.Delete(ctx, store.Members, store.ByID(memberID))
	}
	return store.NotFoundError{Table: store.Members, ID: memberID}
}

func (s *Service) requireOwner(ctx context.Context, boardID string, me model.Identity) error {
	return perm.RequireOwner(ctx, s.store, boardID, me.UserID)
}

func (s *Service) membership(ctx context.Context, boardID, userID string) (*model.Member, error) {
	rows, err := s.store.Select(ctx, store.Members, store.Where(store.Eq("board_id", boardID), store.Eq("user_id", userID)))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	m, err := store.MemberFromRow(rows[0])
	if err != nil {
		return nil, err
	}
	return &m, nil
}
