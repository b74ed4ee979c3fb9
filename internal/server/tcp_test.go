package server

import (
	"bufio"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tcpSession drives one line-protocol connection over an in-memory pipe.
type tcpSession struct {
	conn   net.Conn
	reader *bufio.Reader
}

func newTCPSession(t *testing.T, srv *Server) *tcpSession {
	t.Helper()

	clientSide, serverSide := net.Pipe()
	done := make(chan struct{})
	go func() {
		srv.handleConnection(serverSide)
		close(done)
	}()
	t.Cleanup(func() {
		clientSide.Close()
		<-done
	})

	return &tcpSession{conn: clientSide, reader: bufio.NewReader(clientSide)}
}

func (s *tcpSession) send(t *testing.T, line string) string {
	t.Helper()
	if _, err := s.conn.Write([]byte(line + "\r\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	reply, err := s.reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return strings.TrimRight(reply, "\r\n")
}

func (s *tcpSession) readLine(t *testing.T) string {
	t.Helper()
	reply, err := s.reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return strings.TrimRight(reply, "\r\n")
}

func TestTCPProtocol(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	session := newTCPSession(t, srv)

	assert.Equal(t, "+PONG", session.send(t, "PING"))

	assert.Equal(t, ":1", session.send(t, "ASSERT <ex:alice> <ex:knows> <ex:bob>"))
	assert.Equal(t, ":0", session.send(t, "ASSERT <ex:alice> <ex:knows> <ex:bob>"))
	assert.Equal(t, ":1", session.send(t, `ASSERT <ex:alice> <ex:name> "Alice Smith"@en`))

	reply := session.send(t, "MATCH <ex:alice> ? ?")
	require.Equal(t, "*2", reply)
	lines := []string{session.readLine(t), session.readLine(t)}
	found := false
	for _, l := range lines {
		if l == `<ex:alice> <ex:name> "Alice Smith"@en` {
			found = true
		}
	}
	assert.True(t, found, "quoted literal with attached language tag should round-trip, got %v", lines)

	assert.Equal(t, ":2", session.send(t, "COUNT"))
	assert.Equal(t, ":1", session.send(t, "COUNT ? <ex:knows> ?"))

	assert.Equal(t, ":1", session.send(t, "RETRACT <ex:alice> <ex:knows> <ex:bob>"))
	assert.Equal(t, ":0", session.send(t, "RETRACT <ex:alice> <ex:knows> <ex:bob>"))

	assert.Equal(t, "+OK", session.send(t, "SAVE"))
}

func TestTCPProtocolErrors(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	session := newTCPSession(t, srv)

	cases := []string{
		"BOGUS",
		"ASSERT <ex:a> <ex:b>",
		"ASSERT <ex:a> <ex:b> not-a-term",
		`ASSERT <ex:a> <ex:b> "unterminated`,
		"MATCH ? ?",
	}
	for _, line := range cases {
		reply := session.send(t, line)
		assert.True(t, strings.HasPrefix(reply, "-ERR"), "command %q should error, got %q", line, reply)
	}

	// The connection survives errors.
	assert.Equal(t, "+PONG", session.send(t, "PING"))
}

func TestTCPQuit(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	session := newTCPSession(t, srv)

	assert.Equal(t, "+OK", session.send(t, "QUIT"))
	if _, err := session.reader.ReadString('\n'); err == nil {
		t.Error("expected the connection to close after QUIT")
	}
}
