package e2e

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type testDeliverySuite struct {
	BaseWsSuite
}

func TestDeliverySuite(t *testing.T) {
	suite.Run(t, &testDeliverySuite{})
}

func (s *testDeliverySuite) TestPrivateDeliveryAndReplay() {
	// Unique usernames so reruns against the same server stay clean.
	alice := "alice-" + uuid.NewString()[:8]
	bob := "bob-" + uuid.NewString()[:8]
	content := "ping " + uuid.NewString()[:8]

	// --- STEP 1: OFFLINE SEND ---
	// Alice messages bob before he ever connected; the ack must report
	// zero delivery attempts.
	s.Run("Step 1: Send to an offline recipient", func() {
		conn := s.Connect("Alice connects", alice)
		defer conn.Close()

		s.Send(conn, Frame{Action: "private", To: bob, Content: content})
		ack := s.Recv(conn, 10*time.Second, func(f Frame) bool { return f.Kind == "ack" || f.Kind == "error" })
		s.Require().Equal("ack", ack.Kind, "send failed: %s", ack.Error)
		s.Require().Zero(ack.Attempted)
		s.Require().Zero(ack.Delivered)
	})

	// --- STEP 2: BACKLOG REPLAY ---
	// Bob connects for the first time and must receive the pending
	// message during registration.
	s.Run("Step 2: Reconnect replays the backlog", func() {
		conn := s.Connect("Bob connects", bob)
		defer conn.Close()

		msg := s.Recv(conn, 10*time.Second, func(f Frame) bool { return f.Kind == "message" })
		s.Require().Equal(alice, msg.Sender)
		s.Require().Equal(content, msg.Content)
	})

	// --- STEP 3: EXACTLY ONCE ---
	// A second reconnect with no new traffic must replay nothing; the
	// live delivery of a fresh message proves the socket works.
	s.Run("Step 3: Second reconnect replays nothing", func() {
		bobConn := s.Connect("Bob reconnects", bob)
		defer bobConn.Close()
		aliceConn := s.Connect("Alice reconnects", alice)
		defer aliceConn.Close()

		marker := "marker " + uuid.NewString()[:8]
		s.Send(aliceConn, Frame{Action: "private", To: bob, Content: marker})

		msg := s.Recv(bobConn, 10*time.Second, func(f Frame) bool { return f.Kind == "message" })
		s.Require().Equal(marker, msg.Content, "expected the fresh marker, got a replayed duplicate")
	})
}

func (s *testDeliverySuite) TestLiveTeamDelivery() {
	alice := "alice-" + uuid.NewString()[:8]
	bob := "bob-" + uuid.NewString()[:8]

	aliceConn := s.Connect("Alice connects", alice)
	defer aliceConn.Close()
	bobConn := s.Connect("Bob connects", bob)
	defer bobConn.Close()

	team := s.CreateTeam("standup-"+uuid.NewString()[:8], alice)
	s.Send(aliceConn, Frame{Action: "join", Team: team})
	s.Send(bobConn, Frame{Action: "join", Team: team})

	// Bob sees the join notice for himself or alice before chat flows.
	s.Recv(bobConn, 10*time.Second, func(f Frame) bool { return f.Kind == "message" && f.Type == "JOIN" })

	content := "standup " + uuid.NewString()[:8]
	s.Send(aliceConn, Frame{Action: "send", Group: "team:" + team, Content: content})

	msg := s.Recv(bobConn, 10*time.Second, func(f Frame) bool {
		return f.Kind == "message" && f.Type == "CHAT" && f.Content == content
	})
	s.Require().Equal(alice, msg.Sender)
}
