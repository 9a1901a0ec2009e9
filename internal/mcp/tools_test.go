package mcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/json-iterator/go"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/tourscout/internal/config"
	"github.com/xkilldash9x/tourscout/internal/service"
)

func newToolServer(t *testing.T) *mcpserver.MCPServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	svc := service.New(service.MockBackend{}, logger, service.WithMockBackend(), service.WithBatch(config.BatchConfig{Concurrency: 2}))
	s := NewToolServer(svc, logger, "test")

	initialize := `{"jsonrpc":"2.0","id":0,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"tourscout-test","version":"1"}}}`
	reply := rpc(t, s, initialize)
	require.Nil(t, reply["error"], reply)
	return s
}

// rpc sends one JSON-RPC message and decodes the reply generically.
func rpc(t *testing.T, s *mcpserver.MCPServer, message string) map[string]interface{} {
	t.Helper()
	resp := s.HandleMessage(context.Background(), []byte(message))
	require.NotNil(t, resp)
	b, err := json.Marshal(resp)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out), string(b))
	return out
}

// callTool returns the text content of a tools/call reply and its error flag.
func callTool(t *testing.T, s *mcpserver.MCPServer, tool string, args string) (string, bool) {
	t.Helper()
	reply := rpc(t, s, fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":%q,"arguments":%s}}`, tool, args))
	require.Nil(t, reply["error"], reply)
	result, ok := reply["result"].(map[string]interface{})
	require.True(t, ok, reply)
	content, ok := result["content"].([]interface{})
	require.True(t, ok, result)
	require.NotEmpty(t, content)
	first := content[0].(map[string]interface{})
	assert.Equal(t, "text", first["type"])
	isError, _ := result["isError"].(bool)
	return first["text"].(string), isError
}

func TestToolServer(t *testing.T) {
	s := newToolServer(t)

	t.Run("should list the four tools", func(t *testing.T) {
		reply := rpc(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
		result := reply["result"].(map[string]interface{})
		var names []string
		for _, tool := range result["tools"].([]interface{}) {
			names = append(names, tool.(map[string]interface{})["name"].(string))
		}
		assert.ElementsMatch(t, []string{"search_tours", "get_countries", "get_departures", "quick_search"}, names)
	})

	t.Run("should search tours and return listings as json text", func(t *testing.T) {
		text, isError := callTool(t, s, "search_tours", `{"country":"Турция","departure":"Москва","stars":5}`)
		require.False(t, isError, text)

		var resp ToursResponse
		require.NoError(t, json.Unmarshal([]byte(text), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, 2, resp.Count)
		require.Len(t, resp.Tours, 2)
		assert.Equal(t, "Турция", resp.Tours[0].Country)
		assert.Contains(t, text, "Турция", "cyrillic must not be escaped")
	})

	t.Run("should report an unknown country as a tool error", func(t *testing.T) {
		text, isError := callTool(t, s, "search_tours", `{"country":"Атлантида","departure":"Москва"}`)
		assert.True(t, isError)
		assert.Contains(t, text, "Атлантида")
	})

	t.Run("should require a departure", func(t *testing.T) {
		text, isError := callTool(t, s, "search_tours", `{"country":"Египет"}`)
		assert.True(t, isError)
		assert.Contains(t, text, "departure")
	})

	t.Run("should list the vocabularies", func(t *testing.T) {
		text, isError := callTool(t, s, "get_countries", `{}`)
		require.False(t, isError, text)
		var countries struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal([]byte(text), &countries))
		assert.Equal(t, 9, countries.Count)

		text, isError = callTool(t, s, "get_departures", `{}`)
		require.False(t, isError, text)
		var departures struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal([]byte(text), &departures))
		assert.Equal(t, 20, departures.Count)
	})

	t.Run("should translate a free-text query", func(t *testing.T) {
		text, isError := callTool(t, s, "quick_search", `{"query":"Египет, вылет Казань, 10 ночей"}`)
		require.False(t, isError, text)

		var resp ToursResponse
		require.NoError(t, json.Unmarshal([]byte(text), &resp))
		require.NotNil(t, resp.ParsedParams)
		assert.Equal(t, "Египет", resp.ParsedParams.Country.String())
		assert.Equal(t, "Казань", resp.ParsedParams.Departure.String())
		assert.Equal(t, 3, resp.Count)
	})

	t.Run("should reject an empty query", func(t *testing.T) {
		_, isError := callTool(t, s, "quick_search", `{"query":"  "}`)
		assert.True(t, isError)
	})
}

func TestServeStdio(t *testing.T) {
	t.Run("should answer newline-delimited requests on the given streams", func(t *testing.T) {
		logger := zaptest.NewLogger(t)
		svc := service.New(service.MockBackend{}, logger, service.WithMockBackend())
		s := NewToolServer(svc, logger, "test")

		in, feed := io.Pipe()
		var out syncBuffer
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = ServeStdio(ctx, s, in, &out, logger)
		}()
		defer func() {
			cancel()
			_ = feed.Close()
			<-done
		}()

		_, err := io.WriteString(feed, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"t","version":"1"}}}`+"\n")
		require.NoError(t, err)
		_, err = io.WriteString(feed, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_countries","arguments":{}}}`+"\n")
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return strings.Contains(out.String(), `"id":2`)
		}, 2*time.Second, 10*time.Millisecond)
		assert.Contains(t, out.String(), ToolServerName)
		assert.Contains(t, out.String(), "Турция")
	})
}

// syncBuffer guards a bytes.Buffer written from the stdio server goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
