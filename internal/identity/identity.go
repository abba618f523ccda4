// Package identity supplies the signed-in user (stable id + email).
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"corkboard-cli/internal/model"
)

const FileName = "identity.json"

var (
	ErrSignedOut    = errors.New("not signed in")
	ErrInvalidEmail = errors.New("invalid email")
)

// Provider reports the current user.
type Provider interface {
	Current() (model.Identity, error)
	SignOut() error
}

// Static is a fixed identity (server-side requests, tests).
type Static model.Identity

func (s Static) Current() (model.Identity, error) {
	if s.UserID == "" {
		return model.Identity{}, ErrSignedOut
	}
	return model.Identity(s), nil
}

func (Static) SignOut() error { return nil }

type fileState struct {
	Current *model.Identity `json:"current,omitempty"`
	// Known maps email to user id so signing in again yields the same id.
	Known map[string]string `json:"known,omitempty"`
}

// FileProvider keeps the signed-in identity in a JSON file.
type FileProvider struct {
	Path string
}

var _ Provider = FileProvider{}

// NewFileProvider stores identity.json inside dir.
func NewFileProvider(dir string) FileProvider {
	return FileProvider{Path: filepath.Join(dir, FileName)}
}

func (p FileProvider) Current() (model.Identity, error) {
	st, err := p.load()
	if err != nil {
		return model.Identity{}, err
	}
	if st.Current == nil || st.Current.UserID == "" {
		return model.Identity{}, ErrSignedOut
	}
	return *st.Current, nil
}

// SignIn makes email the current user. A new email gets a fresh UUID; an
// email seen before keeps its id.
func (p FileProvider) SignIn(email string) (model.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return model.Identity{}, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	st, err := p.load()
	if err != nil {
		return model.Identity{}, err
	}
	if st.Known == nil {
		st.Known = map[string]string{}
	}
	id, ok := st.Known[email]
	if !ok {
		id = uuid.NewString()
		st.Known[email] = id
	}
	who := model.Identity{UserID: id, Email: email}
	st.Current = &who
	if err := p.save(st); err != nil {
		return model.Identity{}, err
	}
	return who, nil
}

func (p FileProvider) SignOut() error {
	st, err := p.load()
	if err != nil {
		return err
	}
	st.Current = nil
	return p.save(st)
}

func (p FileProvider) load() (fileState, error) {
	var st fileState
	b, err := os.ReadFile(p.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return st, err
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return st, fmt.Errorf("parse %s: %w", p.Path, err)
	}
	return st, nil
}

func (p FileProvider) save(st fileState) error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	tmp := p.Path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, p.Path)
}
