package auth

import (
	"bytes"
	"encoding/json"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// StorageKey is the durable record holding the identity and credential.
const StorageKey = "auth-storage"

const recordVersion = 0

type record struct {
	State   *recordState `json:"state"`
	Version int          `json:"version"`
}

type recordState struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

func encodeRecord(user User, token string) ([]byte, error) {
	data, err := json.Marshal(record{State: &recordState{User: &user, Token: token}, Version: recordVersion})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode auth record")
	}
	return data, nil
}

// decodeRecord rejects anything that is not a complete identity plus credential.
func decodeRecord(data []byte) (User, string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return User{}, "", pkgerrors.New(pkgerrors.CodeStorageCorruption, "auth record is empty")
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return User{}, "", pkgerrors.Wrap(pkgerrors.CodeStorageCorruption, err, "decode auth record")
	}
	if rec.State == nil || rec.Version != recordVersion {
		return User{}, "", pkgerrors.New(pkgerrors.CodeStorageCorruption, "auth record has no usable state")
	}
	if rec.State.User == nil || rec.State.User.ID == 0 || strings.TrimSpace(rec.State.Token) == "" {
		return User{}, "", pkgerrors.New(pkgerrors.CodeStorageCorruption, "auth record is partial")
	}
	return *rec.State.User, rec.State.Token, nil
}
