package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zuraxy/lsnp-node/pkg/peer"
)

// PostInfo is one timeline entry.
type PostInfo struct {
	Author      string   `json:"author"`
	DisplayName string   `json:"display_name,omitempty"`
	Content     string   `json:"content"`
	Timestamp   int64    `json:"timestamp"`
	TTL         int64    `json:"ttl"`
	Likes       []string `json:"likes,omitempty"`
}

// PostsResponse lists the timeline, newest first.
type PostsResponse struct {
	Success bool       `json:"success"`
	Count   int        `json:"count"`
	Posts   []PostInfo `json:"posts"`
}

// handlePosts handles GET /api/v1/posts
func (s *Server) handlePosts(c *gin.Context) {
	stored := s.node.Timeline().Posts()
	posts := make([]PostInfo, 0, len(stored))
	for _, p := range stored {
		posts = append(posts, PostInfo{
			Author:      p.Author,
			DisplayName: s.node.Directory().DisplayName(p.Author),
			Content:     p.Content,
			Timestamp:   p.Timestamp,
			TTL:         p.TTL,
			Likes:       p.Likes,
		})
	}

	c.JSON(http.StatusOK, PostsResponse{
		Success: true,
		Count:   len(posts),
		Posts:   posts,
	})
}

// CreatePostRequest is the body of POST /api/v1/posts.
type CreatePostRequest struct {
	Content string `json:"content" binding:"required"`
	TTL     int64  `json:"ttl"` // seconds, 0 means the default
}

// handleCreatePost handles POST /api/v1/posts
func (s *Server) handleCreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	if err := s.node.SendPost(req.Content, req.TTL); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Broadcast failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Post broadcast",
	})
}

// MessageInfo is one inbox entry.
type MessageInfo struct {
	From        string    `json:"from"`
	DisplayName string    `json:"display_name,omitempty"`
	Content     string    `json:"content"`
	ReceivedAt  time.Time `json:"received_at"`
}

// MessagesResponse lists the inbox in arrival order.
type MessagesResponse struct {
	Success  bool          `json:"success"`
	Count    int           `json:"count"`
	Messages []MessageInfo `json:"messages"`
}

// handleMessages handles GET /api/v1/messages
func (s *Server) handleMessages(c *gin.Context) {
	stored := s.node.Inbox().Messages()
	messages := make([]MessageInfo, 0, len(stored))
	for _, m := range stored {
		messages = append(messages, MessageInfo{
			From:        m.From,
			DisplayName: s.node.Directory().DisplayName(m.From),
			Content:     m.Content,
			ReceivedAt:  m.ReceivedAt,
		})
	}

	c.JSON(http.StatusOK, MessagesResponse{
		Success:  true,
		Count:    len(messages),
		Messages: messages,
	})
}

// SendMessageRequest is the body of POST /api/v1/messages.
type SendMessageRequest struct {
	To      string `json:"to" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// handleSendMessage handles POST /api/v1/messages
func (s *Server) handleSendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	if err := s.node.SendDM(req.To, req.Content); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, peer.ErrUnknownPeer) {
			status = http.StatusNotFound
		}
		c.JSON(status, ErrorResponse{
			Error:   "Send failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: fmt.Sprintf("DM sent to %s", req.To),
	})
}

// GroupInfo is one group as the console shows it.
type GroupInfo struct {
	GroupID      string   `json:"group_id"`
	Name         string   `json:"name"`
	Creator      string   `json:"creator"`
	Members      []string `json:"members"`
	MessageCount int      `json:"message_count"`
}

// GroupsResponse lists every group this node belongs to.
type GroupsResponse struct {
	Success bool        `json:"success"`
	Count   int         `json:"count"`
	Groups  []GroupInfo `json:"groups"`
}

// handleGroups handles GET /api/v1/groups
func (s *Server) handleGroups(c *gin.Context) {
	stored := s.node.Groups().List()
	groups := make([]GroupInfo, 0, len(stored))
	for _, g := range stored {
		groups = append(groups, GroupInfo{
			GroupID:      g.ID,
			Name:         g.Name,
			Creator:      g.Creator,
			Members:      g.Members,
			MessageCount: len(g.Messages),
		})
	}

	c.JSON(http.StatusOK, GroupsResponse{
		Success: true,
		Count:   len(groups),
		Groups:  groups,
	})
}

// FollowRequest is the body of POST /api/v1/follow.
type FollowRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// handleFollow handles POST /api/v1/follow
func (s *Server) handleFollow(c *gin.Context) {
	var req FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	if err := s.node.Follow(req.UserID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, peer.ErrUnknownPeer) {
			status = http.StatusNotFound
		}
		c.JSON(status, ErrorResponse{
			Error:   "Follow failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: fmt.Sprintf("Now following %s", req.UserID),
	})
}

// handleUnfollow handles DELETE /api/v1/follow/:id
func (s *Server) handleUnfollow(c *gin.Context) {
	id := c.Param("id")

	if err := s.node.Unfollow(id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, peer.ErrUnknownPeer) {
			status = http.StatusNotFound
		}
		c.JSON(status, ErrorResponse{
			Error:   "Unfollow failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: fmt.Sprintf("Unfollowed %s", id),
	})
}

// ProfileRequest is the body of PUT /api/v1/profile.
type ProfileRequest struct {
	DisplayName string `json:"display_name"`
	Status      string `json:"status"`
}

// handleProfile handles PUT /api/v1/profile. The change is announced
// to the LAN right away.
func (s *Server) handleProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	s.node.SetProfile(req.DisplayName, req.Status)
	if err := s.node.Announce(); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Announce failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Profile updated and announced",
	})
}
