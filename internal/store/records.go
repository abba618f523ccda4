package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"corkboard-cli/internal/model"
)

// NotFoundError is returned by the single-row helpers. It matches ErrNotFound.
type NotFoundError struct {
	Table Table
	ID    string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", strings.TrimSuffix(string(e.Table), "s"), e.ID)
}

func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Row codecs. Values may arrive as native Go types (SQL backends) or as their
// JSON forms (remote and cached rows), so decoding is lenient.

func BoardRow(b model.Board) Row {
	r := Row{"user_id": b.UserID, "title": b.Title}
	putCommon(r, b.ID, "created_at", b.CreatedAt)
	return r
}

func ListRow(l model.List) Row {
	r := Row{"board_id": l.BoardID, "title": l.Title, "position": l.Position}
	putCommon(r, l.ID, "created_at", l.CreatedAt)
	return r
}

func CardRow(c model.Card) Row {
	r := Row{"list_id": c.ListID, "title": c.Title, "position": c.Position}
	if c.Description != nil {
		r["description"] = *c.Description
	}
	putCommon(r, c.ID, "created_at", c.CreatedAt)
	return r
}

func MemberRow(m model.Member) Row {
	r := Row{"board_id": m.BoardID, "user_id": m.UserID, "role": string(m.Role)}
	if m.Email != "" {
		r["email"] = m.Email
	}
	putCommon(r, m.ID, "joined_at", m.JoinedAt)
	return r
}

func InviteRow(inv model.Invite) Row {
	r := Row{
		"board_id":    inv.BoardID,
		"invite_code": inv.InviteCode,
		"created_by":  inv.CreatedBy,
		"uses":        inv.Uses,
	}
	if inv.MaxUses != nil {
		r["max_uses"] = *inv.MaxUses
	}
	if inv.ExpiresAt != nil {
		r["expires_at"] = inv.ExpiresAt.UTC()
	}
	putCommon(r, inv.ID, "created_at", inv.CreatedAt)
	return r
}

func putCommon(r Row, id, tsCol string, ts time.Time) {
	if id != "" {
		r["id"] = id
	}
	if !ts.IsZero() {
		r[tsCol] = ts.UTC()
	}
}

func BoardFromRow(r Row) (model.Board, error) {
	created, err := TimeValue(r["created_at"])
	if err != nil {
		return model.Board{}, fmt.Errorf("boards.created_at: %w", err)
	}
	return model.Board{
		ID:        StringValue(r["id"]),
		UserID:    StringValue(r["user_id"]),
		Title:     StringValue(r["title"]),
		CreatedAt: created,
	}, nil
}

func ListFromRow(r Row) (model.List, error) {
	created, err := TimeValue(r["created_at"])
	if err != nil {
		return model.List{}, fmt.Errorf("lists.created_at: %w", err)
	}
	pos, err := IntValue(r["position"])
	if err != nil {
		return model.List{}, fmt.Errorf("lists.position: %w", err)
	}
	return model.List{
		ID:        StringValue(r["id"]),
		BoardID:   StringValue(r["board_id"]),
		Title:     StringValue(r["title"]),
		Position:  pos,
		CreatedAt: created,
	}, nil
}

func CardFromRow(r Row) (model.Card, error) {
	created, err := TimeValue(r["created_at"])
	if err != nil {
		return model.Card{}, fmt.Errorf("cards.created_at: %w", err)
	}
	pos, err := IntValue(r["position"])
	if err != nil {
		return model.Card{}, fmt.Errorf("cards.position: %w", err)
	}
	c := model.Card{
		ID:        StringValue(r["id"]),
		ListID:    StringValue(r["list_id"]),
		Title:     StringValue(r["title"]),
		Position:  pos,
		CreatedAt: created,
	}
	if v, ok := r["description"]; ok && v != nil {
		d := StringValue(v)
		c.Description = &d
	}
	return c, nil
}

func MemberFromRow(r Row) (model.Member, error) {
	joined, err := TimeValue(r["joined_at"])
	if err != nil {
		return model.Member{}, fmt.Errorf("board_members.joined_at: %w", err)
	}
	return model.Member{
		ID:       StringValue(r["id"]),
		BoardID:  StringValue(r["board_id"]),
		UserID:   StringValue(r["user_id"]),
		Email:    StringValue(r["email"]),
		Role:     model.MemberRole(StringValue(r["role"])),
		JoinedAt: joined,
	}, nil
}

func InviteFromRow(r Row) (model.Invite, error) {
	created, err := TimeValue(r["created_at"])
	if err != nil {
		return model.Invite{}, fmt.Errorf("board_invites.created_at: %w", err)
	}
	uses, err := IntValue(r["uses"])
	if err != nil {
		return model.Invite{}, fmt.Errorf("board_invites.uses: %w", err)
	}
	inv := model.Invite{
		ID:         StringValue(r["id"]),
		BoardID:    StringValue(r["board_id"]),
		InviteCode: StringValue(r["invite_code"]),
		CreatedBy:  StringValue(r["created_by"]),
		Uses:       uses,
		CreatedAt:  created,
	}
	if v, ok := r["max_uses"]; ok && v != nil {
		n, err := IntValue(v)
		if err != nil {
			return model.Invite{}, fmt.Errorf("board_invites.max_uses: %w", err)
		}
		inv.MaxUses = &n
	}
	if v, ok := r["expires_at"]; ok && v != nil {
		ts, err := TimeValue(v)
		if err != nil {
			return model.Invite{}, fmt.Errorf("board_invites.expires_at: %w", err)
		}
		if !ts.IsZero() {
			inv.ExpiresAt = &ts
		}
	}
	return inv, nil
}

func StringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func IntValue(v any) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		return x, nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case float64:
		return int(x), nil
	case json.Number:
		n, err := x.Int64()
		return int(n), err
	case string:
		return strconv.Atoi(strings.TrimSpace(x))
	case []byte:
		return strconv.Atoi(strings.TrimSpace(string(x)))
	default:
		return 0, fmt.Errorf("unexpected integer value %T", v)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// TimeValue decodes a timestamp column. nil and "" decode to the zero time.
func TimeValue(v any) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return x.UTC(), nil
	case []byte:
		return TimeValue(string(x))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, nil
		}
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
	default:
		return time.Time{}, fmt.Errorf("unexpected timestamp value %T", v)
	}
}

// Typed helpers.

func decodeAll[T any](rows []Row, dec func(Row) (T, error)) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := dec(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func selectOne[T any](ctx context.Context, s Store, t Table, id string, dec func(Row) (T, error)) (T, error) {
	var zero T
	rows, err := s.Select(ctx, t, ByID(id))
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, NotFoundError{Table: t, ID: id}
	}
	return dec(rows[0])
}

// BoardsByIDs returns the given boards, newest first.
func BoardsByIDs(ctx context.Context, s Store, ids []string) ([]model.Board, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.Select(ctx, Boards, Where(In("id", ids...)), Desc("created_at"))
	if err != nil {
		return nil, err
	}
	return decodeAll(rows, BoardFromRow)
}

// BoardsForUser returns every board userID owns or belongs to, newest first.
func BoardsForUser(ctx context.Context, s Store, userID string) ([]model.Board, error) {
	rows, err := s.Select(ctx, Members, Where(Eq("user_id", userID)))
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var ids []string
	for _, r := range rows {
		id := StringValue(r["board_id"])
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	owned, err := s.Select(ctx, Boards, Where(Eq("user_id", userID)))
	if err != nil {
		return nil, err
	}
	for _, r := range owned {
		if id := r.ID(); !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return BoardsByIDs(ctx, s, ids)
}

func BoardByID(ctx context.Context, s Store, id string) (model.Board, error) {
	return selectOne(ctx, s, Boards, id, BoardFromRow)
}

func ListByID(ctx context.Context, s Store, id string) (model.List, error) {
	return selectOne(ctx, s, Lists, id, ListFromRow)
}

func CardByID(ctx context.Context, s Store, id string) (model.Card, error) {
	return selectOne(ctx, s, Cards, id, CardFromRow)
}

// ListsForBoard returns the board's lists ordered by position.
func ListsForBoard(ctx context.Context, s Store, boardID string) ([]model.List, error) {
	rows, err := s.Select(ctx, Lists, Where(Eq("board_id", boardID)), Asc("position"), Asc("created_at"))
	if err != nil {
		return nil, err
	}
	return decodeAll(rows, ListFromRow)
}

// CardsForLists returns the cards of every given list ordered by position.
func CardsForLists(ctx context.Context, s Store, listIDs []string) ([]model.Card, error) {
	if len(listIDs) == 0 {
		return nil, nil
	}
	rows, err := s.Select(ctx, Cards, Where(In("list_id", listIDs...)), Asc("position"), Asc("created_at"))
	if err != nil {
		return nil, err
	}
	return decodeAll(rows, CardFromRow)
}

// MembersForBoard returns the board's members in join order.
func MembersForBoard(ctx context.Context, s Store, boardID string) ([]model.Member, error) {
	rows, err := s.Select(ctx, Members, Where(Eq("board_id", boardID)), Asc("joined_at"))
	if err != nil {
		return nil, err
	}
	return decodeAll(rows, MemberFromRow)
}

// InvitesForBoard returns the board's invites, newest first.
func InvitesForBoard(ctx context.Context, s Store, boardID string) ([]model.Invite, error) {
	rows, err := s.Select(ctx, Invites, Where(Eq("board_id", boardID)), Desc("created_at"))
	if err != nil {
		return nil, err
	}
	return decodeAll(rows, InviteFromRow)
}

func InviteByCode(ctx context.Context, s Store, code string) (model.Invite, error) {
	rows, err := s.Select(ctx, Invites, Where(Eq("invite_code", code)))
	if err != nil {
		return model.Invite{}, err
	}
	if len(rows) == 0 {
		return model.Invite{}, NotFoundError{Table: Invites, ID: code}
	}
	return InviteFromRow(rows[0])
}

func InsertBoard(ctx context.Context, s Store, b model.Board) (model.Board, error) {
	r, err := s.Insert(ctx, Boards, BoardRow(b))
	if err != nil {
		return model.Board{}, err
	}
	return BoardFromRow(r)
}

func InsertList(ctx context.Context, s Store, l model.List) (model.List, error) {
	r, err := s.Insert(ctx, Lists, ListRow(l))
	if err != nil {
		return model.List{}, err
	}
	return ListFromRow(r)
}

func InsertCard(ctx context.Context, s Store, c model.Card) (model.Card, error) {
	r, err := s.Insert(ctx, Cards, CardRow(c))
	if err != nil {
		return model.Card{}, err
	}
	return CardFromRow(r)
}

func InsertMember(ctx context.Context, s Store, m model.Member) (model.Member, error) {
	r, err := s.Insert(ctx, Members, MemberRow(m))
	if err != nil {
		return model.Member{}, err
	}
	return MemberFromRow(r)
}

func InsertInvite(ctx context.Context, s Store, inv model.Invite) (model.Invite, error) {
	r, err := s.Insert(ctx, Invites, InviteRow(inv))
	if err != nil {
		return model.Invite{}, err
	}
	return InviteFromRow(r)
}

// UpdateByID patches a single row.
func UpdateByID(ctx context.Context, s Store, t Table, id string, patch Row) error {
	return s.Update(ctx, t, ByID(id), patch)
}
