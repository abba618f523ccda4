package cli

import (
	"errors"
	"fmt"

	"corkboard-cli/internal/perm"
)

var errSignedOut = errors.New("not signed in; run `corkboard auth login --email <you@example.com>`")

type ownerOnlyError struct {
	userID  string
	boardID string
}

func (e ownerOnlyError) Error() string {
	return fmt.Sprintf("permission denied: %s is not the owner of board %s", e.userID, e.boardID)
}

func (e ownerOnlyError) Unwrap() error { return perm.ErrNotOwner }

func errOwnerOnly(userID, boardID string) error {
	return ownerOnlyError{userID: userID, boardID: boardID}
}

type missingFlagError struct {
	flag string
}

func (e missingFlagError) Error() string {
	return "missing --" + e.flag
}

func errMissing(flag string) error {
	return missingFlagError{flag: flag}
}
