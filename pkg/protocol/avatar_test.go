package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestAttachDecodeAvatar(t *testing.T) {
	data := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 1, 2, 3}

	m := NewMessage(MsgTypeProfile)
	if err := AttachAvatar(m, "image/png", data); err != nil {
		t.Fatalf("AttachAvatar() error = %v", err)
	}

	if !HasAvatar(m) {
		t.Fatal("HasAvatar() = false after AttachAvatar")
	}
	if got := m.Get(FieldAvatarEncoding); got != AvatarEncoding {
		t.Errorf("AVATAR_ENCODING = %q, want %q", got, AvatarEncoding)
	}

	// Survives the wire
	decoded := Decode(m.Encode())

	mime, payload, err := DecodeAvatar(decoded)
	if err != nil {
		t.Fatalf("DecodeAvatar() error = %v", err)
	}
	if mime != "image/png" {
		t.Errorf("mime = %q, want image/png", mime)
	}
	if !bytes.Equal(payload, data) {
		t.Errorf("payload mismatch: got %v, want %v", payload, data)
	}
}

func TestAttachAvatarTooLarge(t *testing.T) {
	big := make([]byte, MaxAvatarBytes+1)

	err := AttachAvatar(NewMessage(MsgTypeProfile), "image/png", big)
	if !errors.Is(err, ErrAvatarTooLarge) {
		t.Errorf("AttachAvatar() error = %v, want ErrAvatarTooLarge", err)
	}
}

func TestDecodeAvatarErrors(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *Message
		wantErr error
	}{
		{
			name:    "no avatar fields",
			build:   func() *Message { return NewMessage(MsgTypeProfile) },
			wantErr: ErrNoAvatar,
		},
		{
			name: "unknown encoding",
			build: func() *Message {
				m := NewMessage(MsgTypeProfile)
				m.Set(FieldAvatarType, "image/png")
				m.Set(FieldAvatarEncoding, "hex")
				m.Set(FieldAvatarData, "00ff")
				return m
			},
			wantErr: ErrAvatarEncoding,
		},
		{
			name: "corrupt base64",
			build: func() *Message {
				m := NewMessage(MsgTypeProfile)
				m.Set(FieldAvatarType, "image/png")
				m.Set(FieldAvatarEncoding, AvatarEncoding)
				m.Set(FieldAvatarData, "!!not base64!!")
				return m
			},
			wantErr: ErrAvatarCorrupt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeAvatar(tt.build())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeAvatar() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
