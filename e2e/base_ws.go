package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

// Frame mirrors the wire envelope in both directions; unused fields
// stay empty.
type Frame struct {
	Action    string `json:"action,omitempty"`
	User      string `json:"user,omitempty"`
	Group     string `json:"group,omitempty"`
	To        string `json:"to,omitempty"`
	Team      string `json:"team,omitempty"`
	Content   string `json:"content,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Sender    string `json:"sender,omitempty"`
	Type      string `json:"type,omitempty"`
	Attempted int    `json:"attempted,omitempty"`
	Delivered int    `json:"delivered,omitempty"`
	Error     string `json:"error,omitempty"`
}

type BaseWsSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
// and skips the suite when no server address is configured.
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("SERVER_ADDR not set, skipping e2e suite")
	}
}

// Connect opens a websocket session and registers the given user.
func (s *BaseWsSuite) Connect(name, user string) *websocket.Conn {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	wsURL := url.URL{Scheme: "ws", Host: s.Config.ServerAddr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	s.Require().NoError(err, "Failed to connect to server at "+s.Config.ServerAddr)

	s.Send(conn, Frame{Action: "register", User: user})
	return conn
}

// Send marshals and writes one frame.
func (s *BaseWsSuite) Send(conn *websocket.Conn, frame Frame) {
	b, err := json.Marshal(frame)
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, b))
}

// CreateTeam registers a team through the REST surface and returns
// its id.
func (s *BaseWsSuite) CreateTeam(name, owner string) string {
	body, err := json.Marshal(map[string]any{"name": name, "owner": owner})
	s.Require().NoError(err)

	resp, err := http.Post(
		fmt.Sprintf("http://%s/api/teams", s.Config.ServerAddr),
		"application/json", bytes.NewReader(body))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var payload struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&payload))
	return payload.ID
}

// Recv reads frames until one matches the predicate or the timeout
// elapses; unrelated frames (presence noise, typing) are logged and
// skipped.
func (s *BaseWsSuite) Recv(conn *websocket.Conn, timeout time.Duration, match func(Frame) bool) Frame {
	deadline := time.Now().Add(timeout)
	s.Require().NoError(conn.SetReadDeadline(deadline))

	for {
		_, data, err := conn.ReadMessage()
		s.Require().NoError(err, "No matching frame before deadline")

		var frame Frame
		s.Require().NoError(json.Unmarshal(data, &frame))
		if match(frame) {
			return frame
		}
		s.T().Logf("Skipping frame kind=%s type=%s", frame.Kind, frame.Type)
	}
}
