package protocol

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// AvatarEncoding is the only avatar transfer encoding on the wire.
const AvatarEncoding = "base64"

var (
	ErrAvatarTooLarge    = errors.New("avatar exceeds size limit")
	ErrAvatarEncoding    = errors.New("unsupported avatar encoding")
	ErrNoAvatar          = errors.New("message carries no avatar")
	ErrAvatarCorrupt     = errors.New("avatar data is not valid base64")
	ErrAvatarMissingType = errors.New("avatar has no MIME type")
)

// AttachAvatar adds the avatar fields to a PROFILE message. The decoded
// payload is capped at MaxAvatarBytes so a PROFILE still fits a single
// datagram.
func AttachAvatar(m *Message, mimeType string, data []byte) error {
	if mimeType == "" {
		return ErrAvatarMissingType
	}
	if len(data) > MaxAvatarBytes {
		return fmt.Errorf("%w: %d > %d bytes", ErrAvatarTooLarge, len(data), MaxAvatarBytes)
	}
	m.Set(FieldAvatarType, mimeType)
	m.Set(FieldAvatarEncoding, AvatarEncoding)
	m.Set(FieldAvatarData, base64.StdEncoding.EncodeToString(data))
	return nil
}

// DecodeAvatar extracts and decodes the avatar from a PROFILE message.
// Returns ErrNoAvatar when the message carries none.
func DecodeAvatar(m *Message) (mimeType string, data []byte, err error) {
	if !m.Has(FieldAvatarData) {
		return "", nil, ErrNoAvatar
	}
	if enc := m.Get(FieldAvatarEncoding); enc != AvatarEncoding {
		return "", nil, fmt.Errorf("%w: %q", ErrAvatarEncoding, enc)
	}
	data, err = base64.StdEncoding.DecodeString(m.Get(FieldAvatarData))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrAvatarCorrupt, err)
	}
	if len(data) > MaxAvatarBytes {
		return "", nil, fmt.Errorf("%w: %d > %d bytes", ErrAvatarTooLarge, len(data), MaxAvatarBytes)
	}
	return m.Get(FieldAvatarType), data, nil
}

// HasAvatar reports whether a message carries avatar fields.
func HasAvatar(m *Message) bool {
	return m.Has(FieldAvatarData)
}
