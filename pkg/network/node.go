package network

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/zuraxy/lsnp-node/pkg/game"
	"github.com/zuraxy/lsnp-node/pkg/peer"
	"github.com/zuraxy/lsnp-node/pkg/protocol"
	"github.com/zuraxy/lsnp-node/pkg/store"
	"github.com/zuraxy/lsnp-node/pkg/token"
	"github.com/zuraxy/lsnp-node/pkg/transfer"
)

// DefaultPostTTL is the content lifetime stamped on a post when the
// caller does not choose one.
const DefaultPostTTL = 3600

// Config holds node configuration.
type Config struct {
	Name             string
	Port             int
	BroadcastAddrs   []string
	AnnounceInterval time.Duration
	CleanupInterval  time.Duration
	PeerTimeout      time.Duration
	Verbose          bool
}

// DefaultConfig returns the standard node setup.
func DefaultConfig() *Config {
	sched := DefaultSchedulerConfig()
	tcfg := DefaultTransportConfig()
	return &Config{
		Name:             "peer",
		Port:             tcfg.Port,
		BroadcastAddrs:   tcfg.BroadcastAddrs,
		AnnounceInterval: sched.AnnounceInterval,
		CleanupInterval:  sched.CleanupInterval,
		PeerTimeout:      sched.PeerTimeout,
	}
}

// Node wires the whole peer together: identity, directory, token
// authority, transport, dispatcher, scheduler and the social stores.
// It owns the user-level operations the consoles call.
type Node struct {
	config    *Config
	identity  *peer.Identity
	directory *peer.Directory
	authority *token.Authority
	transport *UDPTransport

	dispatcher *Dispatcher
	scheduler  *Scheduler

	timeline  *store.Timeline
	inbox     *store.Inbox
	groups    *store.Groups
	transfers *transfer.Manager
	games     *game.Manager

	startedAt time.Time
	running   atomic.Bool
	verbose   atomic.Bool
}

// NewNode binds the UDP socket and assembles a node around it. The
// bind is the only fatal step.
func NewNode(config *Config) (*Node, error) {
	if config == nil {
		config = DefaultConfig()
	}

	tcfg := DefaultTransportConfig()
	tcfg.Port = config.Port
	if len(config.BroadcastAddrs) > 0 {
		tcfg.BroadcastAddrs = config.BroadcastAddrs
	}
	tr, err := NewUDPTransport(tcfg)
	if err != nil {
		return nil, err
	}

	n := newNode(config, tr)
	n.transport = tr
	return n, nil
}

// newNode assembles a node over any Sender. Tests use it to run the
// full pipeline without sockets.
func newNode(config *Config, sender Sender) *Node {
	if config == nil {
		config = DefaultConfig()
	}
	n := &Node{
		config:    config,
		identity:  peer.NewIdentity(config.Name, peer.DetectLocalIP()),
		directory: peer.NewDirectory(),
		authority: token.NewAuthority(),
		timeline:  store.NewTimeline(),
		inbox:     store.NewInbox(),
		groups:    store.NewGroups(),
		transfers: transfer.NewManager(),
		games:     game.NewManager(),
	}

	scfg := DefaultSchedulerConfig()
	if config.AnnounceInterval > 0 {
		scfg.AnnounceInterval = config.AnnounceInterval
	}
	if config.CleanupInterval > 0 {
		scfg.CleanupInterval = config.CleanupInterval
	}
	if config.PeerTimeout > 0 {
		scfg.PeerTimeout = config.PeerTimeout
	}

	n.dispatcher = NewDispatcher(n.identity, n.authority, sender, config.Verbose)
	n.scheduler = NewScheduler(scfg, n.identity, n.directory, n)
	n.verbose.Store(config.Verbose)

	n.transfers.OnComplete(n.fileReceived)
	n.dispatcher.OnSweep(func() { n.transfers.Sweep() })
	n.registerHandlers()
	return n
}

// Start brings up the receive loop, the sweeper and discovery. The
// scheduler's first tick broadcasts our PROFILE right away.
func (n *Node) Start() error {
	if !n.running.CompareAndSwap(false, true) {
		log.Println("⚠️ node already running")
		return nil
	}
	n.startedAt = time.Now()

	if n.transport != nil {
		n.transport.Start(n.dispatcher.HandleDatagram)
	}
	n.dispatcher.Start()
	n.scheduler.Start()

	log.Printf("✅ LSNP node up as %s", n.identity.UserID())
	return nil
}

// Stop tears the node down in reverse order.
func (n *Node) Stop() {
	if !n.running.CompareAndSwap(true, false) {
		return
	}

	n.scheduler.Stop()
	n.dispatcher.Stop()
	if n.transport != nil {
		n.transport.Close()
	}
	log.Println("Node stopped")
}

// ===== ACCESSORS =====

func (n *Node) Identity() *peer.Identity      { return n.identity }
func (n *Node) Directory() *peer.Directory    { return n.directory }
func (n *Node) Authority() *token.Authority   { return n.authority }
func (n *Node) Timeline() *store.Timeline     { return n.timeline }
func (n *Node) Inbox() *store.Inbox           { return n.inbox }
func (n *Node) Groups() *store.Groups         { return n.groups }
func (n *Node) Transfers() *transfer.Manager  { return n.transfers }
func (n *Node) Games() *game.Manager          { return n.games }
func (n *Node) PipelineStats() StatsSnapshot  { return n.dispatcher.Stats() }

// SetVerbose toggles chatty logging across the node and its pipeline.
func (n *Node) SetVerbose(v bool) {
	n.verbose.Store(v)
	n.dispatcher.SetVerbose(v)
}

// Verbose reports the current logging mode.
func (n *Node) Verbose() bool {
	return n.verbose.Load()
}

// Uptime reports how long the node has been started.
func (n *Node) Uptime() time.Duration {
	if n.startedAt.IsZero() {
		return 0
	}
	return time.Since(n.startedAt)
}

// GetStats summarizes the node for consoles.
func (n *Node) GetStats() map[string]interface{} {
	pipeline := n.dispatcher.Stats()
	return map[string]interface{}{
		"user_id":        n.identity.UserID(),
		"uptime_seconds": int64(n.Uptime().Seconds()),
		"peers":          n.directory.Count(),
		"following":      len(n.directory.Following()),
		"followers":      len(n.directory.Followers()),
		"posts":          n.timeline.Len(),
		"messages":       n.inbox.Len(),
		"groups":         n.groups.Len(),
		"dedupe_entries": n.dispatcher.DedupeSize(),
		"revoked_tokens": n.authority.RevokedCount(),
		"received":       pipeline.Received,
		"routed":         pipeline.Routed,
		"dropped":        pipeline.Dropped(),
	}
}

// ===== ANNOUNCEMENTS =====

// BroadcastProfile sends the full identity announcement. The caller
// (scheduler or Announce) stamps last_profile_at; a failed broadcast
// therefore retries as a PROFILE on the next tick.
func (n *Node) BroadcastProfile() error {
	m := n.dispatcher.Build(protocol.MsgTypeProfile)
	m.Set(protocol.FieldUserID, n.identity.UserID())
	displayName, status := n.identity.Profile()
	m.Set(protocol.FieldDisplayName, displayName)
	m.Set(protocol.FieldStatus, status)
	if mimeType, data := n.identity.Avatar(); len(data) > 0 {
		if err := protocol.AttachAvatar(m, mimeType, data); err != nil {
			log.Printf("⚠️ avatar left off profile: %v", err)
		}
	}
	return n.dispatcher.Broadcast(m)
}

// BroadcastPing sends the minimal liveness beacon. PINGs carry no
// MESSAGE_ID so receivers never spend dedupe memory on them.
func (n *Node) BroadcastPing() error {
	m := protocol.NewMessage(protocol.MsgTypePing)
	m.Set(protocol.FieldUserID, n.identity.UserID())
	return n.dispatcher.Broadcast(m)
}

// Announce pushes a PROFILE out immediately, outside the schedule,
// and refreshes the profile timestamp so the next tick stays cheap.
func (n *Node) Announce() error {
	if err := n.BroadcastProfile(); err != nil {
		return err
	}
	n.identity.RecordProfile(time.Now())
	return nil
}

// ===== PROFILE =====

// SetProfile updates the local display name and status. Callers
// announce separately.
func (n *Node) SetProfile(displayName, status string) {
	n.identity.SetProfile(displayName, status)
}

// SetAvatar attaches an avatar to the local identity.
func (n *Node) SetAvatar(mimeType string, data []byte) error {
	if len(data) > protocol.MaxAvatarBytes {
		return protocol.ErrAvatarTooLarge
	}
	n.identity.SetAvatar(mimeType, data)
	return nil
}

// ===== SOCIAL =====

// SendPost broadcasts a post with the given content lifetime.
func (n *Node) SendPost(content string, ttl int64) error {
	if ttl <= 0 {
		ttl = DefaultPostTTL
	}

	m := n.dispatcher.Build(protocol.MsgTypePost)
	m.Set(protocol.FieldUserID, n.identity.UserID())
	m.Set(protocol.FieldContent, content)
	m.SetInt(protocol.FieldTTL, ttl)
	return n.dispatcher.Broadcast(m)
}

// SendDM sends a direct message to a known peer.
func (n *Node) SendDM(to, content string) error {
	rec, ok := n.directory.Get(to)
	if !ok {
		return fmt.Errorf("cannot DM %s: %w", to, peer.ErrUnknownPeer)
	}

	m := n.dispatcher.Build(protocol.MsgTypeDM)
	m.Set(protocol.FieldFrom, n.identity.UserID())
	m.Set(protocol.FieldTo, to)
	m.Set(protocol.FieldContent, content)
	return n.dispatcher.SendTo(m, rec.Addr())
}

// Follow records the follow locally and tells the peer.
func (n *Node) Follow(userID string) error {
	rec, ok := n.directory.Get(userID)
	if !ok {
		return fmt.Errorf("cannot follow %s: %w", userID, peer.ErrUnknownPeer)
	}
	if err := n.directory.Follow(userID); err != nil {
		return err
	}

	m := n.dispatcher.Build(protocol.MsgTypeFollow)
	m.Set(protocol.FieldFrom, n.identity.UserID())
	m.Set(protocol.FieldTo, userID)
	return n.dispatcher.SendTo(m, rec.Addr())
}

// Unfollow removes the follow locally and tells the peer.
func (n *Node) Unfollow(userID string) error {
	rec, ok := n.directory.Get(userID)
	if !ok {
		return fmt.Errorf("cannot unfollow %s: %w", userID, peer.ErrUnknownPeer)
	}
	if err := n.directory.Unfollow(userID); err != nil {
		return err
	}

	m := n.dispatcher.Build(protocol.MsgTypeUnfollow)
	m.Set(protocol.FieldFrom, n.identity.UserID())
	m.Set(protocol.FieldTo, userID)
	return n.dispatcher.SendTo(m, rec.Addr())
}

// SendLike reacts to a peer's post, identified by its author and
// POST_TIMESTAMP. With unlike set the reaction is withdrawn.
func (n *Node) SendLike(author string, postTimestamp int64, unlike bool) error {
	rec, ok := n.directory.Get(author)
	if !ok {
		return fmt.Errorf("cannot like post by %s: %w", author, peer.ErrUnknownPeer)
	}

	action := protocol.ActionLike
	if unlike {
		action = protocol.ActionUnlike
	}

	m := n.dispatcher.Build(protocol.MsgTypeLike)
	m.Set(protocol.FieldFrom, n.identity.UserID())
	m.Set(protocol.FieldTo, author)
	m.SetInt(protocol.FieldPostTimestamp, postTimestamp)
	m.Set(protocol.FieldAction, action)
	return n.dispatcher.SendTo(m, rec.Addr())
}

// ===== GROUPS =====

// CreateGroup registers the group locally and notifies every member.
func (n *Node) CreateGroup(groupID, name string, members []string) error {
	self := n.identity.UserID()
	if err := n.groups.Create(groupID, name, self, members); err != nil {
		return err
	}

	m := n.dispatcher.Build(protocol.MsgTypeGroupCreate)
	m.Set(protocol.FieldFrom, self)
	m.Set(protocol.FieldGroupID, groupID)
	m.Set(protocol.FieldGroupName, name)
	m.Set(protocol.FieldMembers, strings.Join(members, ","))
	n.fanOut(m, members)
	return nil
}

// UpdateGroup changes the roster and notifies the union of old and
// new members, so removed peers learn they are out.
func (n *Node) UpdateGroup(groupID string, add, remove []string) error {
	before, ok := n.groups.Get(groupID)
	if !ok {
		return store.ErrUnknownGroup
	}
	if err := n.groups.Update(groupID, n.identity.UserID(), add, remove); err != nil {
		return err
	}
	after, _ := n.groups.Get(groupID)

	m := n.dispatcher.Build(protocol.MsgTypeGroupUpdate)
	m.Set(protocol.FieldFrom, n.identity.UserID())
	m.Set(protocol.FieldGroupID, groupID)
	m.Set(protocol.FieldAdd, strings.Join(add, ","))
	m.Set(protocol.FieldRemove, strings.Join(remove, ","))
	n.fanOut(m, union(before.Members, after.Members))
	return nil
}

// SendGroupMessage posts into a group this node belongs to.
func (n *Node) SendGroupMessage(groupID, content string) error {
	self := n.identity.UserID()
	if err := n.groups.AddMessage(groupID, self, content); err != nil {
		return err
	}
	grp, _ := n.groups.Get(groupID)

	m := n.dispatcher.Build(protocol.MsgTypeGroupMessage)
	m.Set(protocol.FieldFrom, self)
	m.Set(protocol.FieldGroupID, groupID)
	m.Set(protocol.FieldContent, content)
	n.fanOut(m, grp.Members)
	return nil
}

// fanOut unicasts one message to every listed peer except ourselves,
// skipping members the directory cannot address.
func (n *Node) fanOut(m *protocol.Message, members []string) {
	self := n.identity.UserID()
	for _, id := range members {
		if id == "" || id == self {
			continue
		}
		rec, ok := n.directory.Get(id)
		if !ok {
			log.Printf("⚠️ no address for group member %s", id)
			continue
		}
		n.dispatcher.SendTo(m, rec.Addr())
	}
}

// ===== FILES =====

// OfferFile prepares a transfer and pushes the offer plus every chunk
// to the receiver. With fec set the payload survives the loss of up
// to 5 of its 15 shards.
func (n *Node) OfferFile(to, filename string, data []byte, description string, fec bool) (string, error) {
	rec, ok := n.directory.Get(to)
	if !ok {
		return "", fmt.Errorf("cannot offer file to %s: %w", to, peer.ErrUnknownPeer)
	}

	out, err := transfer.Prepare(filename, data, description, fec)
	if err != nil {
		return "", err
	}

	self := n.identity.UserID()
	offer := n.dispatcher.Build(protocol.MsgTypeFileOffer)
	offer.Set(protocol.FieldFrom, self)
	offer.Set(protocol.FieldTo, to)
	offer.Set(protocol.FieldFileID, out.FileID)
	offer.Set(protocol.FieldFilename, out.Filename)
	offer.SetInt(protocol.FieldFilesize, out.Size)
	offer.Set(protocol.FieldFiletype, out.Filetype)
	offer.Set(protocol.FieldDescription, out.Description)
	offer.SetInt(protocol.FieldTotalChunks, int64(len(out.Chunks)))
	if out.FEC != "" {
		offer.Set(protocol.FieldFEC, out.FEC)
	}
	if err := n.dispatcher.SendTo(offer, rec.Addr()); err != nil {
		return "", err
	}

	for _, c := range out.Chunks {
		chunk := n.dispatcher.Build(protocol.MsgTypeFileChunk)
		chunk.Set(protocol.FieldFrom, self)
		chunk.Set(protocol.FieldTo, to)
		chunk.Set(protocol.FieldFileID, out.FileID)
		chunk.SetInt(protocol.FieldChunkIndex, int64(c.Index))
		chunk.SetInt(protocol.FieldTotalChunks, int64(c.Total))
		chunk.Set(protocol.FieldData, c.Data)
		n.dispatcher.SendTo(chunk, rec.Addr())
	}

	log.Printf("✅ offered %s (%d bytes, %d chunks) to %s", out.Filename, out.Size, len(out.Chunks), to)
	return out.FileID, nil
}

// AcceptFile releases a pending inbound transfer for assembly.
func (n *Node) AcceptFile(fileID string) error {
	return n.transfers.Accept(fileID)
}

// fileReceived answers an assembled transfer with FILE_RECEIVED.
func (n *Node) fileReceived(r *transfer.Received) {
	log.Printf("📬 file %s complete: %s (%d bytes, %s)", r.FileID, r.Filename, len(r.Data), r.Checksum[:16])

	rec, ok := n.directory.Get(r.From)
	if !ok {
		return
	}
	m := protocol.NewMessage(protocol.MsgTypeFileReceived)
	m.Set(protocol.FieldFrom, n.identity.UserID())
	m.Set(protocol.FieldTo, r.From)
	m.Set(protocol.FieldFileID, r.FileID)
	m.Set(protocol.FieldStatus, protocol.StatusComplete)
	n.dispatcher.SendTo(m, rec.Addr())
}

// ===== GAMES =====

// InviteGame opens a Tic-Tac-Toe session; the inviter plays X.
func (n *Node) InviteGame(opponent string) (game.Game, error) {
	rec, ok := n.directory.Get(opponent)
	if !ok {
		return game.Game{}, fmt.Errorf("cannot invite %s: %w", opponent, peer.ErrUnknownPeer)
	}

	g := n.games.Invite(opponent)
	m := n.dispatcher.Build(protocol.MsgTypeTicTacToeInvite)
	m.Set(protocol.FieldFrom, n.identity.UserID())
	m.Set(protocol.FieldTo, opponent)
	m.Set(protocol.FieldGameID, g.ID)
	m.Set(protocol.FieldSymbol, string(g.LocalSymbol))
	if err := n.dispatcher.SendTo(m, rec.Addr()); err != nil {
		return g, err
	}
	return g, nil
}

// PlayMove plays our move and sends it to the opponent. A finishing
// move also broadcasts the result.
func (n *Node) PlayMove(gameID string, position int) (game.Game, error) {
	g, err := n.games.ApplyLocal(gameID, position)
	if err != nil {
		return g, err
	}

	rec, ok := n.directory.Get(g.Opponent)
	if !ok {
		return g, fmt.Errorf("opponent %s gone: %w", g.Opponent, peer.ErrUnknownPeer)
	}

	m := n.dispatcher.Build(protocol.MsgTypeTicTacToeMove)
	m.Set(protocol.FieldFrom, n.identity.UserID())
	m.Set(protocol.FieldTo, g.Opponent)
	m.Set(protocol.FieldGameID, gameID)
	m.SetInt(protocol.FieldPosition, int64(position))
	m.Set(protocol.FieldSymbol, string(g.LocalSymbol))
	m.SetInt(protocol.FieldTurn, int64(g.Turn))
	if err := n.dispatcher.SendTo(m, rec.Addr()); err != nil {
		return g, err
	}

	if g.Finished {
		n.broadcastResult(g)
	}
	return g, nil
}

// broadcastResult announces a finished game from our point of view.
func (n *Node) broadcastResult(g game.Game) {
	m := n.dispatcher.Build(protocol.MsgTypeTicTacToeResult)
	m.Set(protocol.FieldFrom, n.identity.UserID())
	m.Set(protocol.FieldTo, g.Opponent)
	m.Set(protocol.FieldGameID, g.ID)
	m.Set(protocol.FieldResult, g.Outcome())
	m.Set(protocol.FieldSymbol, string(g.LocalSymbol))
	if g.Winner != 0 {
		m.Set(protocol.FieldWinningLine, game.FormatLine(g.Line))
	}
	n.dispatcher.Broadcast(m)
}

// ===== TOKENS =====

// RevokeToken invalidates a token locally and tells the LAN. The
// REVOKE message itself is unscoped and carries no MESSAGE_ID.
func (n *Node) RevokeToken(tok string) error {
	n.authority.Revoke(tok)

	m := protocol.NewMessage(protocol.MsgTypeRevoke)
	m.Set(protocol.FieldToken, tok)
	return n.dispatcher.Broadcast(m)
}

func union(a, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, s := range a {
		set[s] = true
	}
	out := append([]string(nil), a...)
	for _, s := range b {
		if !set[s] {
			out = append(out, s)
		}
	}
	return out
}
