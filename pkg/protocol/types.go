package protocol

// Protocol constants
const (
	// Well-known LSNP port; every peer binds and broadcasts here
	DefaultPort = 50999

	// Decoded avatar payload cap for PROFILE messages
	MaxAvatarBytes = 20 * 1024
)

// Message types
const (
	// Discovery
	MsgTypePing    = "PING"
	MsgTypeProfile = "PROFILE"

	// Social
	MsgTypePost     = "POST"
	MsgTypeDM       = "DM"
	MsgTypeFollow   = "FOLLOW"
	MsgTypeUnfollow = "UNFOLLOW"
	MsgTypeLike     = "LIKE"

	// File transfer
	MsgTypeFileOffer    = "FILE_OFFER"
	MsgTypeFileChunk    = "FILE_CHUNK"
	MsgTypeFileReceived = "FILE_RECEIVED"

	// Groups
	MsgTypeGroupCreate  = "GROUP_CREATE"
	MsgTypeGroupUpdate  = "GROUP_UPDATE"
	MsgTypeGroupMessage = "GROUP_MESSAGE"

	// Games
	MsgTypeTicTacToeInvite = "TICTACTOE_INVITE"
	MsgTypeTicTacToeMove   = "TICTACTOE_MOVE"
	MsgTypeTicTacToeResult = "TICTACTOE_RESULT"

	// System
	MsgTypeAck    = "ACK"
	MsgTypeRevoke = "REVOKE"
)

// Field names
const (
	FieldType      = "TYPE"
	FieldMessageID = "MESSAGE_ID"
	FieldTimestamp = "TIMESTAMP"
	FieldToken     = "TOKEN"

	FieldUserID      = "USER_ID"
	FieldDisplayName = "DISPLAY_NAME"
	FieldStatus      = "STATUS"
	FieldFrom        = "FROM"
	FieldTo          = "TO"
	FieldContent     = "CONTENT"
	FieldTTL         = "TTL"

	FieldAvatarType     = "AVATAR_TYPE"
	FieldAvatarEncoding = "AVATAR_ENCODING"
	FieldAvatarData     = "AVATAR_DATA"

	FieldPostTimestamp = "POST_TIMESTAMP"
	FieldAction        = "ACTION"

	FieldFileID      = "FILE_ID"
	FieldFilename    = "FILENAME"
	FieldFilesize    = "FILESIZE"
	FieldFiletype    = "FILETYPE"
	FieldDescription = "DESCRIPTION"
	FieldChunkIndex  = "CHUNK_INDEX"
	FieldTotalChunks = "TOTAL_CHUNKS"
	FieldData        = "DATA"
	FieldFEC         = "FEC"

	FieldGroupID   = "GROUP_ID"
	FieldGroupName = "GROUP_NAME"
	FieldMembers   = "MEMBERS"
	FieldAdd       = "ADD"
	FieldRemove    = "REMOVE"

	FieldGameID      = "GAMEID"
	FieldSymbol      = "SYMBOL"
	FieldPosition    = "POSITION"
	FieldTurn        = "TURN"
	FieldResult      = "RESULT"
	FieldWinningLine = "WINNING_LINE"
)

// LIKE actions
const (
	ActionLike   = "LIKE"
	ActionUnlike = "UNLIKE"
)

// ACK and FILE_RECEIVED statuses
const (
	StatusReceived = "RECEIVED"
	StatusComplete = "COMPLETE"
)

// ackRequired lists the types a receiver acknowledges after routing.
var ackRequired = map[string]bool{
	MsgTypePost: true,
	MsgTypeDM:   true,
}

// AckRequired reports whether a type expects an ACK from the receiver.
func AckRequired(msgType string) bool {
	return ackRequired[msgType]
}

// carriesTTL lists the content-bearing types whose TIMESTAMP+TTL bounds
// their useful life. Token expiry is separate.
var carriesTTL = map[string]bool{
	MsgTypePost: true,
}

// CarriesTTL reports whether a type's content expires via its TTL field.
func CarriesTTL(msgType string) bool {
	return carriesTTL[msgType]
}
