package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zuraxy/lsnp-node/pkg/peer"
)

// PeerInfo is one directory record as the console shows it.
type PeerInfo struct {
	UserID      string    `json:"user_id"`
	IP          string    `json:"ip"`
	Port        int       `json:"port"`
	DisplayName string    `json:"display_name,omitempty"`
	Status      string    `json:"status,omitempty"`
	HasAvatar   bool      `json:"has_avatar"`
	LastSeen    time.Time `json:"last_seen"`
	Following   bool      `json:"following"`
	FollowsUs   bool      `json:"follows_us"`
}

// PeersResponse lists the directory.
type PeersResponse struct {
	Success bool       `json:"success"`
	Count   int        `json:"count"`
	Peers   []PeerInfo `json:"peers"`
}

func (s *Server) peerInfo(r peer.Record) PeerInfo {
	return PeerInfo{
		UserID:      r.UserID,
		IP:          r.IP,
		Port:        r.Port,
		DisplayName: r.DisplayName,
		Status:      r.Status,
		HasAvatar:   r.HasAvatar,
		LastSeen:    r.LastSeen,
		Following:   s.node.Directory().IsFollowing(r.UserID),
		FollowsUs:   s.node.Directory().HasFollower(r.UserID),
	}
}

// handlePeers handles GET /api/v1/peers
func (s *Server) handlePeers(c *gin.Context) {
	records := s.node.Directory().List()
	peers := make([]PeerInfo, 0, len(records))
	for _, r := range records {
		peers = append(peers, s.peerInfo(r))
	}

	c.JSON(http.StatusOK, PeersResponse{
		Success: true,
		Count:   len(peers),
		Peers:   peers,
	})
}

// handlePeer handles GET /api/v1/peers/:id
func (s *Server) handlePeer(c *gin.Context) {
	id := c.Param("id")
	r, ok := s.node.Directory().Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Unknown peer",
			Message: fmt.Sprintf("No peer %s in the directory", id),
		})
		return
	}
	c.JSON(http.StatusOK, s.peerInfo(r))
}
