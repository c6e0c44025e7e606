// Package store holds the node's in-memory social state: the post
// timeline, the direct-message inbox, and the group registry. Nothing
// here touches disk; state lives and dies with the process.
package store

import (
	"sort"
	"sync"
)

// Post is one broadcast post as seen by this node. Timestamp is the
// author's POST_TIMESTAMP, which together with Author identifies the
// post for likes.
type Post struct {
	Author    string
	Content   string
	Timestamp int64
	TTL       int64
	MessageID string
	Likes     []string
}

type likeKey struct {
	author    string
	timestamp int64
}

// Timeline collects accepted posts and their likes. Likes are keyed
// independently of posts, so a like for a post this node never stored
// is still remembered and attaches if the post is known.
type Timeline struct {
	mu    sync.Mutex
	posts []Post
	likes map[likeKey]map[string]bool
}

func NewTimeline() *Timeline {
	return &Timeline{
		likes: make(map[likeKey]map[string]bool),
	}
}

// Add appends a post to the timeline.
func (t *Timeline) Add(author, content string, timestamp, ttl int64, messageID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.posts = append(t.posts, Post{
		Author:    author,
		Content:   content,
		Timestamp: timestamp,
		TTL:       ttl,
		MessageID: messageID,
	})
}

// Like records that liker liked the post identified by author and
// postTimestamp.
func (t *Timeline) Like(author string, postTimestamp int64, liker string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := likeKey{author, postTimestamp}
	if t.likes[key] == nil {
		t.likes[key] = make(map[string]bool)
	}
	t.likes[key][liker] = true
}

// Unlike removes liker's like. Unliking something never liked is a
// no-op.
func (t *Timeline) Unlike(author string, postTimestamp int64, liker string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.likes[likeKey{author, postTimestamp}], liker)
}

// Likes returns the sorted likers of one post.
func (t *Timeline) Likes(author string, postTimestamp int64) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sortedSet(t.likes[likeKey{author, postTimestamp}])
}

// Posts returns copies of all posts, newest first, with their current
// likes attached.
func (t *Timeline) Posts() []Post {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Post, len(t.posts))
	copy(out, t.posts)
	for i := range out {
		out[i].Likes = sortedSet(t.likes[likeKey{out[i].Author, out[i].Timestamp}])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.posts)
}

func sortedSet(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for member := range set {
		out = append(out, member)
	}
	sort.Strings(out)
	return out
}
