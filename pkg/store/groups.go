package store

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrGroupExists  = errors.New("group already exists")
	ErrUnknownGroup = errors.New("unknown group")
	ErrNotCreator   = errors.New("only the group creator can update it")
	ErrNotMember    = errors.New("sender is not a group member")
)

// GroupMessage is one message posted into a group.
type GroupMessage struct {
	From       string
	Content    string
	ReceivedAt time.Time
}

// Group is a read-only copy of one group's state.
type Group struct {
	ID       string
	Name     string
	Creator  string
	Members  []string
	Messages []GroupMessage
}

type group struct {
	name     string
	creator  string
	members  map[string]bool
	messages []GroupMessage
}

// Groups is the membership registry. The creator of a group is the
// only peer allowed to change its roster, and only current members
// may post into it.
type Groups struct {
	mu     sync.Mutex
	groups map[string]*group
	now    func() time.Time
}

func NewGroups() *Groups {
	return &Groups{
		groups: make(map[string]*group),
		now:    time.Now,
	}
}

// Create registers a group. The first creation of an ID wins; later
// attempts return ErrGroupExists. The creator is always a member.
func (g *Groups) Create(id, name, creator string, members []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.groups[id]; ok {
		return ErrGroupExists
	}

	grp := &group{
		name:    name,
		creator: creator,
		members: map[string]bool{creator: true},
	}
	for _, m := range members {
		if m != "" {
			grp.members[m] = true
		}
	}
	g.groups[id] = grp
	return nil
}

// Update changes the roster. Only the recorded creator may do so.
// Additions are applied before removals.
func (g *Groups) Update(id, actor string, add, remove []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	grp, ok := g.groups[id]
	if !ok {
		return ErrUnknownGroup
	}
	if actor != grp.creator {
		return ErrNotCreator
	}

	for _, m := range add {
		if m != "" {
			grp.members[m] = true
		}
	}
	for _, m := range remove {
		delete(grp.members, m)
	}
	return nil
}

// AddMessage appends a message from a current member.
func (g *Groups) AddMessage(id, from, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	grp, ok := g.groups[id]
	if !ok {
		return ErrUnknownGroup
	}
	if !grp.members[from] {
		return ErrNotMember
	}

	grp.messages = append(grp.messages, GroupMessage{
		From:       from,
		Content:    content,
		ReceivedAt: g.now(),
	})
	return nil
}

// IsMember reports whether userID currently belongs to the group.
func (g *Groups) IsMember(id, userID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	grp, ok := g.groups[id]
	return ok && grp.members[userID]
}

// Get returns a copy of one group.
func (g *Groups) Get(id string) (Group, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	grp, ok := g.groups[id]
	if !ok {
		return Group{}, false
	}
	return copyGroup(id, grp), true
}

// List returns copies of every group, sorted by ID.
func (g *Groups) List() []Group {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Group, 0, len(g.groups))
	for id, grp := range g.groups {
		out = append(out, copyGroup(id, grp))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (g *Groups) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.groups)
}

func copyGroup(id string, grp *group) Group {
	messages := make([]GroupMessage, len(grp.messages))
	copy(messages, grp.messages)
	return Group{
		ID:       id,
		Name:     grp.name,
		Creator:  grp.creator,
		Members:  sortedSet(grp.members),
		Messages: messages,
	}
}
