// Package protocol implements the LSNP wire format and message catalogue.
//
// LSNP (Local Social Networking Protocol) is a plain-text datagram
// protocol for LAN peers. Every message is a set of "KEY:VALUE" lines
// joined by newlines and terminated by a blank line, carried in a single
// UDP datagram on port 50999.
//
// # Wire Format
//
// Encoding rules:
//   - One field per line, "KEY:VALUE", fields in insertion order
//   - Values may contain colons; a decoder splits on the first colon only
//   - Values must not contain newlines; the format has no escaping
//   - Lines without a colon are ignored by decoders, never rejected
//   - A blank line terminates the message
//
// # Message Types
//
// Discovery:
//   - PING: lightweight presence beacon (USER_ID only)
//   - PROFILE: full identity snapshot, optionally with a base64 avatar
//
// Social:
//   - POST: public status broadcast with a content TTL
//   - DM: direct message to one peer
//   - FOLLOW/UNFOLLOW: follow-graph updates
//   - LIKE: like or unlike a post, keyed by the post's timestamp
//
// File transfer:
//   - FILE_OFFER, FILE_CHUNK, FILE_RECEIVED
//
// Groups:
//   - GROUP_CREATE, GROUP_UPDATE, GROUP_MESSAGE
//
// Games:
//   - TICTACTOE_INVITE, TICTACTOE_MOVE, TICTACTOE_RESULT
//
// System:
//   - ACK: receipt for POST and DM
//   - REVOKE: withdraws a previously issued token
//
// # Common Fields
//
// Every message carries TYPE. Most also carry MESSAGE_ID (16 hex
// characters) and TIMESTAMP (unix seconds); PING, ACK, REVOKE and
// FILE_RECEIVED omit MESSAGE_ID, so receivers keep no dedupe state for
// them. Types that require authorization carry TOKEN, a scoped
// capability string issued by the sender.
//
// # Usage Example
//
//	msg := protocol.NewMessage(protocol.MsgTypePost)
//	msg.Set(protocol.FieldUserID, "alice@192.168.1.10")
//	msg.Set(protocol.FieldContent, "hello LAN")
//	msg.SetInt(protocol.FieldTTL, 3600)
//
//	wire := msg.Encode()
//	back := protocol.Decode(wire)
//
// The package carries no network or policy concerns: transport,
// deduplication, token checks and routing live in pkg/network, token
// issuance and validation in pkg/token.
package protocol
