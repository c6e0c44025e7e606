package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zuraxy/lsnp-node/pkg/network"
)

// StatusResponse summarizes the node for dashboards.
type StatusResponse struct {
	Success       bool                  `json:"success"`
	UserID        string                `json:"user_id"`
	DisplayName   string                `json:"display_name,omitempty"`
	Status        string                `json:"status,omitempty"`
	UptimeSeconds int64                 `json:"uptime_seconds"`
	Peers         int                   `json:"peers"`
	Following     int                   `json:"following"`
	Followers     int                   `json:"followers"`
	Posts         int                   `json:"posts"`
	Messages      int                   `json:"messages"`
	Groups        int                   `json:"groups"`
	Pipeline      network.StatsSnapshot `json:"pipeline"`
	CheckedAt     time.Time             `json:"checked_at"`
}

// handleStatus handles GET /api/v1/status
func (s *Server) handleStatus(c *gin.Context) {
	displayName, status := s.node.Identity().Profile()

	c.JSON(http.StatusOK, StatusResponse{
		Success:       true,
		UserID:        s.node.Identity().UserID(),
		DisplayName:   displayName,
		Status:        status,
		UptimeSeconds: int64(s.node.Uptime().Seconds()),
		Peers:         s.node.Directory().Count(),
		Following:     len(s.node.Directory().Following()),
		Followers:     len(s.node.Directory().Followers()),
		Posts:         s.node.Timeline().Len(),
		Messages:      s.node.Inbox().Len(),
		Groups:        s.node.Groups().Len(),
		Pipeline:      s.node.PipelineStats(),
		CheckedAt:     time.Now(),
	})
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	UserID  string `json:"user_id"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Success: true,
		Status:  "healthy",
		UserID:  s.node.Identity().UserID(),
	})
}
