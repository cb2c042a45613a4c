// Package entity defines the dual-source identity model for projects and
// activities. Records created locally are keyed by UUID; records mirrored
// from Zebra are keyed by the integer id Zebra assigned them. The source tag
// decides which store an operation is routed to.
package entity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
)

// Source identifies the store that owns an entity.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Key identifies a project or activity in either store. The constructors
// keep the id representation consistent with the source tag, so a remote key
// can never carry a UUID and a local key can never carry a Zebra id.
// Keys compare with == and are usable as map keys.
type Key struct {
	source   Source
	localID  uuid.UUID
	remoteID int64
}

// LocalKey returns the key of a locally created entity.
func LocalKey(id uuid.UUID) Key {
	return Key{source: SourceLocal, localID: id}
}

// NewLocalKey returns a local key with a freshly generated UUID.
func NewLocalKey() Key {
	return LocalKey(uuid.New())
}

// RemoteKey returns the key of an entity mirrored from Zebra.
func RemoteKey(id int64) Key {
	return Key{source: SourceRemote, remoteID: id}
}

// Source returns the store that owns the entity.
func (k Key) Source() Source {
	return k.source
}

// IsLocal reports whether the key belongs to the local store.
func (k Key) IsLocal() bool {
	return k.source == SourceLocal
}

// IsRemote reports whether the key belongs to the remote mirror.
func (k Key) IsRemote() bool {
	return k.source == SourceRemote
}

// IsZero reports whether the key is unset.
func (k Key) IsZero() bool {
	return k.source == ""
}

// LocalID returns the UUID of a local key; ok is false for any other source.
func (k Key) LocalID() (uuid.UUID, bool) {
	return k.localID, k.source == SourceLocal
}

// RemoteID returns the Zebra id of a remote key; ok is false for any other source.
func (k Key) RemoteID() (int64, bool) {
	return k.remoteID, k.source == SourceRemote
}

// String returns the canonical textual form: "local:<uuid>" or "remote:<id>".
// The zero key renders as the empty string.
func (k Key) String() string {
	switch k.source {
	case SourceLocal:
		return fmt.Sprintf("local:%s", k.localID)
	case SourceRemote:
		return fmt.Sprintf("remote:%d", k.remoteID)
	default:
		return ""
	}
}

// MarshalText encodes the key in its canonical string form.
func (k Key) MarshalText() ([]byte, error) {
	if k.IsZero() {
		return nil, domainErrors.NewError(domainErrors.CodeValidation, "cannot encode zero entity key", nil)
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a key from its canonical string form.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Parse converts a key string back into a Key. Besides the canonical
// "local:<uuid>" and "remote:<id>" forms it accepts a bare integer as a
// remote id and a bare UUID as a local id, which keeps command arguments
// short.
func Parse(raw string) (Key, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Key{}, domainErrors.NewError(domainErrors.CodeValidation, "entity key is empty", nil)
	}

	if strings.HasPrefix(s, string(SourceLocal)+":") {
		id, err := uuid.Parse(strings.TrimPrefix(s, string(SourceLocal)+":"))
		if err != nil {
			return Key{}, domainErrors.NewError(domainErrors.CodeValidation, fmt.Sprintf("invalid local entity key %q", raw), err)
		}
		return LocalKey(id), nil
	}

	if strings.HasPrefix(s, string(SourceRemote)+":") {
		id, err := strconv.ParseInt(strings.TrimPrefix(s, string(SourceRemote)+":"), 10, 64)
		if err != nil || id <= 0 {
			return Key{}, domainErrors.NewError(domainErrors.CodeValidation, fmt.Sprintf("invalid remote entity key %q", raw), err)
		}
		return RemoteKey(id), nil
	}

	if id, err := strconv.ParseInt(s, 10, 64); err == nil && id > 0 {
		return RemoteKey(id), nil
	}
	if id, err := uuid.Parse(s); err == nil {
		return LocalKey(id), nil
	}

	return Key{}, domainErrors.NewError(domainErrors.CodeValidation, fmt.Sprintf("unrecognized entity key %q", raw), nil)
}
