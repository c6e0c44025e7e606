package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zuraxy/lsnp-node/pkg/network"
)

// newTestServer runs a console over a live node on an ephemeral port.
// The node's broadcasts stay on loopback.
func newTestServer(t *testing.T) (*Server, *network.Node) {
	t.Helper()

	cfg := network.DefaultConfig()
	cfg.Name = "apitest"
	cfg.Port = 0
	cfg.BroadcastAddrs = []string{"127.0.0.1"}

	node, err := network.NewNode(cfg)
	assert.NoError(t, err)
	assert.NoError(t, node.Start())
	t.Cleanup(node.Stop)

	return NewServer(node, DefaultConfig()), node
}

func TestStatusEndpoint(t *testing.T) {
	server, node := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response StatusResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, node.Identity().UserID(), response.UserID)
	assert.Equal(t, 0, response.Peers)
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, "healthy", response.Status)
}

func TestPeersEndpoints(t *testing.T) {
	server, node := newTestServer(t)

	node.Directory().Upsert("bob@192.168.1.11", "192.168.1.11", 50999)
	node.Directory().SetProfile("bob@192.168.1.11", "Bobby", "around")
	node.Directory().Upsert("carol@192.168.1.12", "192.168.1.12", 50999)

	t.Run("List", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/peers", nil)
		w := httptest.NewRecorder()
		server.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response PeersResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.Success)
		assert.Equal(t, 2, response.Count)
	})

	t.Run("Single", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/peers/bob@192.168.1.11", nil)
		w := httptest.NewRecorder()
		server.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response PeerInfo
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Bobby", response.DisplayName)
		assert.Equal(t, "192.168.1.11", response.IP)
	})

	t.Run("Missing", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/peers/nobody@10.0.0.1", nil)
		w := httptest.NewRecorder()
		server.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPostEndpoints(t *testing.T) {
	server, node := newTestServer(t)

	t.Run("Create", func(t *testing.T) {
		reqBody, _ := json.Marshal(CreatePostRequest{Content: "hello LAN", TTL: 60})
		req := httptest.NewRequest("POST", "/api/v1/posts", bytes.NewReader(reqBody))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		server.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("CreateEmpty", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/posts", bytes.NewReader([]byte(`{"ttl":60}`)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		server.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("List", func(t *testing.T) {
		node.Timeline().Add("bob@192.168.1.11", "from bob", time.Now().Unix(), 3600, "aaaa000011112222")

		req := httptest.NewRequest("GET", "/api/v1/posts", nil)
		w := httptest.NewRecorder()
		server.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response PostsResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 1, response.Count)
		assert.Equal(t, "bob@192.168.1.11", response.Posts[0].Author)
		assert.Equal(t, "from bob", response.Posts[0].Content)
	})
}

func TestMessageEndpoints(t *testing.T) {
	server, node := newTestServer(t)

	t.Run("SendToStranger", func(t *testing.T) {
		reqBody, _ := json.Marshal(SendMessageRequest{To: "nobody@10.9.9.9", Content: "hi"})
		req := httptest.NewRequest("POST", "/api/v1/messages", bytes.NewReader(reqBody))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		server.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Send", func(t *testing.T) {
		node.Directory().Upsert("bob@192.168.1.11", "127.0.0.1", 51000)

		reqBody, _ := json.Marshal(SendMessageRequest{To: "bob@192.168.1.11", Content: "hi bob"})
		req := httptest.NewRequest("POST", "/api/v1/messages", bytes.NewReader(reqBody))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		server.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("List", func(t *testing.T) {
		node.Inbox().Add("bob@192.168.1.11", "yo")

		req := httptest.NewRequest("GET", "/api/v1/messages", nil)
		w := httptest.NewRecorder()
		server.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response MessagesResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 1, response.Count)
		assert.Equal(t, "yo", response.Messages[0].Content)
	})
}

func TestFollowEndpoints(t *testing.T) {
	server, node := newTestServer(t)
	node.Directory().Upsert("bob@192.168.1.11", "127.0.0.1", 51000)

	t.Run("Follow", func(t *testing.T) {
		reqBody, _ := json.Marshal(FollowRequest{UserID: "bob@192.168.1.11"})
		req := httptest.NewRequest("POST", "/api/v1/follow", bytes.NewReader(reqBody))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		server.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, node.Directory().IsFollowing("bob@192.168.1.11"))
	})

	t.Run("FollowStranger", func(t *testing.T) {
		reqBody, _ := json.Marshal(FollowRequest{UserID: "nobody@10.9.9.9"})
		req := httptest.NewRequest("POST", "/api/v1/follow", bytes.NewReader(reqBody))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		server.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Unfollow", func(t *testing.T) {
		req := httptest.NewRequest("DELETE", "/api/v1/follow/bob@192.168.1.11", nil)
		w := httptest.NewRecorder()
		server.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, node.Directory().IsFollowing("bob@192.168.1.11"))
	})
}

func TestProfileEndpoint(t *testing.T) {
	server, node := newTestServer(t)

	reqBody, _ := json.Marshal(ProfileRequest{DisplayName: "Console", Status: "here"})
	req := httptest.NewRequest("PUT", "/api/v1/profile", bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	displayName, status := node.Identity().Profile()
	assert.Equal(t, "Console", displayName)
	assert.Equal(t, "here", status)
}

func TestGroupsEndpoint(t *testing.T) {
	server, node := newTestServer(t)

	self := node.Identity().UserID()
	assert.NoError(t, node.Groups().Create("g1", "Friends", self, []string{"bob@192.168.1.11"}))

	req := httptest.NewRequest("GET", "/api/v1/groups", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response GroupsResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Count)
	assert.Equal(t, "Friends", response.Groups[0].Name)
	assert.Contains(t, response.Groups[0].Members, self)
	assert.Equal(t, "g1", response.Groups[0].GroupID)
}

func TestRateLimiting(t *testing.T) {
	_, node := newTestServer(t)

	server := NewServer(node, &Config{
		Addr:       "127.0.0.1:0",
		EnableCORS: true,
		RateLimit:  3, // Very low limit for testing
	})

	limitExceeded := false
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		server.router.ServeHTTP(w, req)

		if w.Code == http.StatusTooManyRequests {
			limitExceeded = true
			break
		}
	}

	assert.True(t, limitExceeded, "no 429 after 6 requests with limit 3")
}
