package agent_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kiranshivaraju/bizlens/internal/agent"
	"github.com/kiranshivaraju/bizlens/internal/config"
	"github.com/kiranshivaraju/bizlens/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dropMessage makes the test server hang up on the sender.
const dropMessage = "__drop__"

// agentServer runs a websocket endpoint that hands every send_message to reply.
// A nil result from reply means "stay silent".
type agentServer struct {
	*httptest.Server
	connections atomic.Int32
}

func newAgentServer(t *testing.T, reply func(models.AgentMessage) *models.AgentReply) *agentServer {
	t.Helper()
	s := &agentServer{}
	upgrader := websocket.Upgrader{}

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		s.connections.Add(1)

		for {
			var f agent.Frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			if f.Event != agent.EventSendMessage {
				continue
			}
			var msg models.AgentMessage
			if err := json.Unmarshal(f.Data, &msg); err != nil {
				return
			}
			if msg.Message == dropMessage {
				return
			}
			out := reply(msg)
			if out == nil {
				continue
			}
			data, _ := json.Marshal(out)
			if err := conn.WriteJSON(agent.Frame{Event: agent.EventReceiveMessage, Data: data}); err != nil {
				return
			}
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *agentServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func echo(msg models.AgentMessage) *models.AgentReply {
	return &models.AgentReply{
		ID:           msg.ID,
		Type:         models.AgentReplyResponse,
		Content:      "echo: " + msg.Message + " via " + msg.Agent,
		AnalysisType: msg.AnalysisType,
	}
}

func connect(t *testing.T, opts agent.Options) *agent.Client {
	t.Helper()
	c := agent.New(opts)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSend_ReceivesMatchingReply(t *testing.T) {
	srv := newAgentServer(t, echo)
	c := connect(t, agent.Options{URL: srv.wsURL(), Agent: "business-analyst", ResponseTimeout: time.Second})

	reply, err := c.Send(context.Background(), models.AgentMessage{
		Message:      "Assess the EV charging market",
		AnalysisType: "marketAssessment",
	})
	require.NoError(t, err)
	assert.Equal(t, "echo: Assess the EV charging market via business-analyst", reply.Content)
	assert.Equal(t, "marketAssessment", reply.AnalysisType)
}

func TestSend_MatchesByAnalysisTypeWithoutID(t *testing.T) {
	srv := newAgentServer(t, func(msg models.AgentMessage) *models.AgentReply {
		r := echo(msg)
		r.ID = ""
		return r
	})
	c := connect(t, agent.Options{URL: srv.wsURL(), ResponseTimeout: time.Second})

	reply, err := c.Send(context.Background(), models.AgentMessage{Message: "hi", AnalysisType: "icpCreation"})
	require.NoError(t, err)
	assert.Equal(t, "icpCreation", reply.AnalysisType)
}

func TestSend_ErrorReply(t *testing.T) {
	srv := newAgentServer(t, func(msg models.AgentMessage) *models.AgentReply {
		return &models.AgentReply{ID: msg.ID, Type: models.AgentReplyError, Content: "quota exceeded", AnalysisType: msg.AnalysisType}
	})
	c := connect(t, agent.Options{URL: srv.wsURL(), ResponseTimeout: time.Second})

	_, err := c.Send(context.Background(), models.AgentMessage{Message: "hi", AnalysisType: "swot"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, agent.ErrAgentError))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestSend_TimeoutReinitialisesConnection(t *testing.T) {
	srv := newAgentServer(t, func(models.AgentMessage) *models.AgentReply { return nil })

	var connects atomic.Int32
	c := connect(t, agent.Options{
		URL:             srv.wsURL(),
		ResponseTimeout: 50 * time.Millisecond,
		MaxReconnects:   3,
		ReconnectDelay:  10 * time.Millisecond,
		Hooks:           agent.Hooks{OnConnect: func() { connects.Add(1) }},
	})

	_, err := c.Send(context.Background(), models.AgentMessage{Message: "hi", AnalysisType: "swot"})
	assert.True(t, errors.Is(err, agent.ErrResponseTimeout))

	assert.Eventually(t, func() bool { return connects.Load() >= 2 && c.Connected() },
		2*time.Second, 10*time.Millisecond, "client should reconnect after a timeout")
	assert.GreaterOrEqual(t, srv.connections.Load(), int32(2))
}

func TestSend_ContextCanceled(t *testing.T) {
	srv := newAgentServer(t, func(models.AgentMessage) *models.AgentReply { return nil })
	c := connect(t, agent.Options{URL: srv.wsURL(), ResponseTimeout: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.Send(ctx, models.AgentMessage{Message: "hi", AnalysisType: "swot"})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSend_NotConnected(t *testing.T) {
	c := agent.New(agent.Options{URL: "ws://127.0.0.1:1"})
	_, err := c.Send(context.Background(), models.AgentMessage{Message: "hi"})
	assert.True(t, errors.Is(err, agent.ErrNotConnected))
}

func TestSend_AfterClose(t *testing.T) {
	srv := newAgentServer(t, echo)
	c := agent.New(agent.Options{URL: srv.wsURL()})
	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Close())

	_, err := c.Send(context.Background(), models.AgentMessage{Message: "hi"})
	assert.True(t, errors.Is(err, agent.ErrClosed))
	assert.False(t, c.Connected())
}

func TestConnect_RetriesThenFails(t *testing.T) {
	var attempts []int
	c := agent.New(agent.Options{
		URL:            "ws://127.0.0.1:1",
		MaxReconnects:  2,
		ReconnectDelay: time.Millisecond,
		Hooks: agent.Hooks{OnConnectError: func(_ error, attempt int) {
			attempts = append(attempts, attempt)
		}},
	})

	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, agent.ErrConnectFailed))
	assert.Equal(t, []int{0, 1, 2}, attempts)
}

func TestDisconnect_HookAndReconnect(t *testing.T) {
	srv := newAgentServer(t, echo)

	disconnected := make(chan struct{}, 1)
	c := connect(t, agent.Options{
		URL:            srv.wsURL(),
		MaxReconnects:  5,
		ReconnectDelay: 10 * time.Millisecond,
		Hooks: agent.Hooks{OnDisconnect: func(error) {
			select {
			case disconnected <- struct{}{}:
			default:
			}
		}},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, _ = c.Send(ctx, models.AgentMessage{Message: dropMessage, AnalysisType: "swot"})

	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("expected disconnect hook to fire")
	}

	require.Eventually(t, c.Connected, 2*time.Second, 10*time.Millisecond)
	reply, err := c.Send(context.Background(), models.AgentMessage{Message: "back", AnalysisType: "swot"})
	require.NoError(t, err)
	assert.Contains(t, reply.Content, "back")
}

func TestBackoff_IsLinear(t *testing.T) {
	base := 500 * time.Millisecond
	assert.Equal(t, 500*time.Millisecond, agent.Backoff(1, base))
	assert.Equal(t, 1500*time.Millisecond, agent.Backoff(3, base))
	assert.Equal(t, 500*time.Millisecond, agent.Backoff(0, base))
}

func TestOptionsFromConfig(t *testing.T) {
	opts := agent.OptionsFromConfig(config.AgentConfig{
		URL:             "ws://agent:5000/socket",
		Name:            "business-analyst",
		ResponseTimeout: time.Minute,
		MaxReconnects:   5,
		ReconnectDelay:  time.Second,
		PingInterval:    25 * time.Second,
	})
	assert.Equal(t, "ws://agent:5000/socket", opts.URL)
	assert.Equal(t, "business-analyst", opts.Agent)
	assert.Equal(t, time.Minute, opts.ResponseTimeout)
	assert.Equal(t, 5, opts.MaxReconnects)
}
