package network

import (
	"errors"
	"log"
	"net"
	"strconv"
	"strings"

	"github.com/zuraxy/lsnp-node/pkg/game"
	"github.com/zuraxy/lsnp-node/pkg/protocol"
	"github.com/zuraxy/lsnp-node/pkg/store"
	"github.com/zuraxy/lsnp-node/pkg/transfer"
)

func (n *Node) registerHandlers() {
	d := n.dispatcher
	d.RegisterHandler(protocol.MsgTypePing, n.handlePing)
	d.RegisterHandler(protocol.MsgTypeProfile, n.handleProfile)
	d.RegisterHandler(protocol.MsgTypePost, n.handlePost)
	d.RegisterHandler(protocol.MsgTypeDM, n.handleDM)
	d.RegisterHandler(protocol.MsgTypeFollow, n.handleFollow)
	d.RegisterHandler(protocol.MsgTypeUnfollow, n.handleUnfollow)
	d.RegisterHandler(protocol.MsgTypeLike, n.handleLike)
	d.RegisterHandler(protocol.MsgTypeFileOffer, n.handleFileOffer)
	d.RegisterHandler(protocol.MsgTypeFileChunk, n.handleFileChunk)
	d.RegisterHandler(protocol.MsgTypeFileReceived, n.handleFileReceived)
	d.RegisterHandler(protocol.MsgTypeGroupCreate, n.handleGroupCreate)
	d.RegisterHandler(protocol.MsgTypeGroupUpdate, n.handleGroupUpdate)
	d.RegisterHandler(protocol.MsgTypeGroupMessage, n.handleGroupMessage)
	d.RegisterHandler(protocol.MsgTypeTicTacToeInvite, n.handleGameInvite)
	d.RegisterHandler(protocol.MsgTypeTicTacToeMove, n.handleGameMove)
	d.RegisterHandler(protocol.MsgTypeTicTacToeResult, n.handleGameResult)
	d.RegisterHandler(protocol.MsgTypeAck, n.handleAck)
	d.RegisterHandler(protocol.MsgTypeRevoke, n.handleRevoke)
}

// observePeer refreshes the directory from a message's sender and
// returns the sender's user ID. Our own broadcasts loop back, so the
// local ID is never upserted.
func (n *Node) observePeer(msg *protocol.Message, from *net.UDPAddr) string {
	id := msg.Get(protocol.FieldUserID)
	if id == "" {
		id = msg.Get(protocol.FieldFrom)
	}
	if id == "" || id == n.identity.UserID() || from == nil {
		return id
	}
	n.directory.Upsert(id, from.IP.String(), from.Port)
	return id
}

// isSelf filters loopback copies of our own traffic.
func (n *Node) isSelf(id string) bool {
	return id == n.identity.UserID()
}

// ===== DISCOVERY =====

func (n *Node) handlePing(msg *protocol.Message, from *net.UDPAddr) {
	id := n.observePeer(msg, from)
	if n.verbose.Load() && !n.isSelf(id) {
		log.Printf("ping from %s", id)
	}
}

func (n *Node) handleProfile(msg *protocol.Message, from *net.UDPAddr) {
	id := n.observePeer(msg, from)
	if id == "" || n.isSelf(id) {
		return
	}

	n.directory.SetProfile(id, msg.Get(protocol.FieldDisplayName), msg.Get(protocol.FieldStatus))
	if protocol.HasAvatar(msg) {
		mimeType, data, err := protocol.DecodeAvatar(msg)
		if err != nil {
			log.Printf("⚠️ unusable avatar from %s: %v", id, err)
		} else {
			n.directory.SetAvatar(id, mimeType, data)
		}
	}
	if n.verbose.Load() {
		log.Printf("profile from %s (%s)", id, msg.Get(protocol.FieldDisplayName))
	}
}

// ===== SOCIAL =====

func (n *Node) handlePost(msg *protocol.Message, from *net.UDPAddr) {
	id := n.observePeer(msg, from)
	if id == "" || n.isSelf(id) {
		return
	}

	// The timeline only carries peers this node chose to follow
	if !n.directory.IsFollowing(id) {
		if n.verbose.Load() {
			log.Printf("post from unfollowed %s ignored", id)
		}
		return
	}

	n.timeline.Add(id, msg.Get(protocol.FieldContent), msg.Timestamp(), msg.TTL(), msg.ID())
	log.Printf("📬 %s: %s", n.directory.DisplayName(id), msg.Get(protocol.FieldContent))
}

func (n *Node) handleDM(msg *protocol.Message, from *net.UDPAddr) {
	sender := n.observePeer(msg, from)
	if sender == "" || n.isSelf(sender) {
		return
	}
	if msg.Get(protocol.FieldTo) != n.identity.UserID() {
		if n.verbose.Load() {
			log.Printf("DM for %s is not ours", msg.Get(protocol.FieldTo))
		}
		return
	}

	content := msg.Get(protocol.FieldContent)
	n.inbox.Add(sender, content)
	log.Printf("📬 DM from %s: %s", n.directory.DisplayName(sender), content)
}

func (n *Node) handleFollow(msg *protocol.Message, from *net.UDPAddr) {
	sender := n.observePeer(msg, from)
	if sender == "" || n.isSelf(sender) {
		return
	}
	if err := n.directory.AddFollower(sender); err != nil {
		return
	}
	log.Printf("📬 %s now follows you", n.directory.DisplayName(sender))
}

func (n *Node) handleUnfollow(msg *protocol.Message, from *net.UDPAddr) {
	sender := n.observePeer(msg, from)
	if sender == "" || n.isSelf(sender) {
		return
	}
	if err := n.directory.RemoveFollower(sender); err != nil {
		return
	}
	log.Printf("📬 %s unfollowed you", n.directory.DisplayName(sender))
}

func (n *Node) handleLike(msg *protocol.Message, from *net.UDPAddr) {
	sender := n.observePeer(msg, from)
	if sender == "" || n.isSelf(sender) {
		return
	}

	author := msg.Get(protocol.FieldTo)
	postTimestamp := msg.Int(protocol.FieldPostTimestamp)
	if msg.Get(protocol.FieldAction) == protocol.ActionUnlike {
		n.timeline.Unlike(author, postTimestamp, sender)
		log.Printf("📬 %s unliked a post", n.directory.DisplayName(sender))
		return
	}
	n.timeline.Like(author, postTimestamp, sender)
	log.Printf("📬 %s liked a post", n.directory.DisplayName(sender))
}

// ===== FILES =====

func (n *Node) handleFileOffer(msg *protocol.Message, from *net.UDPAddr) {
	sender := n.observePeer(msg, from)
	if sender == "" || n.isSelf(sender) {
		return
	}

	fileID := msg.Get(protocol.FieldFileID)
	if fileID == "" {
		return
	}
	n.transfers.HandleOffer(transfer.Offer{
		FileID:      fileID,
		From:        sender,
		Filename:    msg.Get(protocol.FieldFilename),
		Size:        msg.Int(protocol.FieldFilesize),
		Filetype:    msg.Get(protocol.FieldFiletype),
		Description: msg.Get(protocol.FieldDescription),
		TotalChunks: int(msg.Int(protocol.FieldTotalChunks)),
		FEC:         msg.Get(protocol.FieldFEC),
	})
	log.Printf("📬 %s offers %s (%d bytes). Accept with /accept %s",
		n.directory.DisplayName(sender), msg.Get(protocol.FieldFilename),
		msg.Int(protocol.FieldFilesize), fileID)
}

func (n *Node) handleFileChunk(msg *protocol.Message, from *net.UDPAddr) {
	sender := n.observePeer(msg, from)
	if n.isSelf(sender) {
		return
	}

	fileID := msg.Get(protocol.FieldFileID)
	// A garbled index must not overwrite chunk 0, so parse strictly
	index, err := strconv.Atoi(msg.Get(protocol.FieldChunkIndex))
	if fileID == "" || err != nil {
		return
	}
	n.transfers.HandleChunk(fileID, index, int(msg.Int(protocol.FieldTotalChunks)), msg.Get(protocol.FieldData))

	if n.verbose.Load() {
		if got, total, ok := n.transfers.Progress(fileID); ok {
			log.Printf("chunk %d for %s (%d/%d)", index, fileID, got, total)
		}
	}
}

func (n *Node) handleFileReceived(msg *protocol.Message, from *net.UDPAddr) {
	sender := n.observePeer(msg, from)
	if sender == "" || n.isSelf(sender) {
		return
	}
	log.Printf("✅ %s confirmed file %s (%s)", n.directory.DisplayName(sender),
		msg.Get(protocol.FieldFileID), msg.Get(protocol.FieldStatus))
}

// ===== GROUPS =====

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (n *Node) handleGroupCreate(msg *protocol.Message, from *net.UDPAddr) {
	sender := n.observePeer(msg, from)
	if sender == "" || n.isSelf(sender) {
		return
	}

	groupID := msg.Get(protocol.FieldGroupID)
	err := n.groups.Create(groupID, msg.Get(protocol.FieldGroupName), sender, splitList(msg.Get(protocol.FieldMembers)))
	if err != nil {
		if n.verbose.Load() {
			log.Printf("group create %s ignored: %v", groupID, err)
		}
		return
	}
	log.Printf("📬 %s added you to group %q", n.directory.DisplayName(sender), msg.Get(protocol.FieldGroupName))
}

func (n *Node) handleGroupUpdate(msg *protocol.Message, from *net.UDPAddr) {
	sender := n.observePeer(msg, from)
	if sender == "" || n.isSelf(sender) {
		return
	}

	groupID := msg.Get(protocol.FieldGroupID)
	err := n.groups.Update(groupID, sender, splitList(msg.Get(protocol.FieldAdd)), splitList(msg.Get(protocol.FieldRemove)))
	switch {
	case errors.Is(err, store.ErrNotCreator):
		log.Printf("⚠️ %s tried to change group %s without owning it", sender, groupID)
	case err != nil:
		if n.verbose.Load() {
			log.Printf("group update %s ignored: %v", groupID, err)
		}
	default:
		log.Printf("📬 group %s roster updated", groupID)
	}
}

func (n *Node) handleGroupMessage(msg *protocol.Message, from *net.UDPAddr) {
	sender := n.observePeer(msg, from)
	if sender == "" || n.isSelf(sender) {
		return
	}

	groupID := msg.Get(protocol.FieldGroupID)
	content := msg.Get(protocol.FieldContent)
	if err := n.groups.AddMessage(groupID, sender, content); err != nil {
		if n.verbose.Load() {
			log.Printf("group message for %s ignored: %v", groupID, err)
		}
		return
	}
	log.Printf("📬 [%s] %s: %s", groupID, n.directory.DisplayName(sender), content)
}

// ===== GAMES =====

func (n *Node) handleGameInvite(msg *protocol.Message, from *net.UDPAddr) {
	sender := n.observePeer(msg, from)
	if sender == "" || n.isSelf(sender) {
		return
	}

	gameID := msg.Get(protocol.FieldGameID)
	if gameID == "" {
		return
	}
	inviterSymbol := game.SymbolX
	if s := msg.Get(protocol.FieldSymbol); s != "" {
		inviterSymbol = s[0]
	}
	g := n.games.HandleInvite(gameID, sender, inviterSymbol)
	log.Printf("🎮 %s invites you to Tic-Tac-Toe (%s), you play %c:\n%s",
		n.directory.DisplayName(sender), gameID, g.LocalSymbol, g.Board)
}

func (n *Node) handleGameMove(msg *protocol.Message, from *net.UDPAddr) {
	sender := n.observePeer(msg, from)
	if sender == "" || n.isSelf(sender) {
		return
	}

	gameID := msg.Get(protocol.FieldGameID)
	position, err := strconv.Atoi(msg.Get(protocol.FieldPosition))
	if gameID == "" || err != nil {
		return
	}
	symbol := game.SymbolX
	if s := msg.Get(protocol.FieldSymbol); s != "" {
		symbol = s[0]
	}

	g, err := n.games.ApplyRemote(gameID, position, symbol)
	if err != nil {
		if n.verbose.Load() {
			log.Printf("move in %s rejected: %v", gameID, err)
		}
		return
	}
	log.Printf("🎮 %s played %d in %s:\n%s", n.directory.DisplayName(sender), position, gameID, g.Board)

	if g.Finished {
		n.broadcastResult(g)
	}
}

func (n *Node) handleGameResult(msg *protocol.Message, from *net.UDPAddr) {
	sender := n.observePeer(msg, from)
	if sender == "" || n.isSelf(sender) {
		return
	}

	gameID := msg.Get(protocol.FieldGameID)
	if _, ok := n.games.Get(gameID); !ok {
		return
	}
	n.games.HandleResult(gameID)
	log.Printf("🎮 game %s over: %s reports %s", gameID,
		n.directory.DisplayName(sender), msg.Get(protocol.FieldResult))
}

// ===== SYSTEM =====

func (n *Node) handleAck(msg *protocol.Message, from *net.UDPAddr) {
	if n.verbose.Load() {
		log.Printf("ack for %s (%s)", msg.ID(), msg.Get(protocol.FieldStatus))
	}
}

func (n *Node) handleRevoke(msg *protocol.Message, from *net.UDPAddr) {
	tok := msg.Get(protocol.FieldToken)
	if tok == "" {
		return
	}
	n.authority.Revoke(tok)
	log.Printf("⚠️ token revoked by %s", from)
}
