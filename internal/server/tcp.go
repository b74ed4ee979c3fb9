package server

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/sanonone/terndb/internal/protocol"
	"github.com/sanonone/terndb/pkg/core"
)

// acceptLoop serves the line protocol until the listener is closed.
func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			slog.Warn("TCP accept error", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	writer := bufio.NewWriter(conn)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		name, args, err := protocol.ParseLine(line)
		if err != nil {
			writeLineError(writer, err.Error())
			continue
		}

		if quit := s.dispatchCommand(writer, name, args); quit {
			return
		}
	}
}

// dispatchCommand executes one protocol command and writes the reply. It
// returns true when the connection should be closed.
func (s *Server) dispatchCommand(w *bufio.Writer, name string, args []string) bool {
	switch name {
	case "PING":
		writeLine(w, "+PONG")
	case "QUIT":
		writeLine(w, "+OK")
		w.Flush()
		return true
	case "ASSERT":
		s.tcpAssert(w, args)
	case "RETRACT":
		s.tcpRetract(w, args)
	case "MATCH":
		s.tcpMatch(w, args)
	case "COUNT":
		s.tcpCount(w, args)
	case "SAVE":
		if err := s.Engine.SaveSnapshot(); err != nil {
			writeLineError(w, "snapshot failed: "+err.Error())
		} else {
			writeLine(w, "+OK")
		}
	default:
		writeLineError(w, "unknown command '"+name+"'")
	}
	w.Flush()
	return false
}

func (s *Server) tcpAssert(w *bufio.Writer, args []string) {
	t, err := tripleFromTokens(args)
	if err != nil {
		writeLineError(w, err.Error())
		return
	}
	added, err := s.Engine.Assert(t)
	if err != nil {
		writeLineError(w, err.Error())
		return
	}
	writeLine(w, fmt.Sprintf(":%d", boolToInt(added)))
}

func (s *Server) tcpRetract(w *bufio.Writer, args []string) {
	t, err := tripleFromTokens(args)
	if err != nil {
		writeLineError(w, err.Error())
		return
	}
	existed, err := s.Engine.Retract(t)
	if err != nil {
		writeLineError(w, err.Error())
		return
	}
	writeLine(w, fmt.Sprintf(":%d", boolToInt(existed)))
}

func (s *Server) tcpMatch(w *bufio.Writer, args []string) {
	pattern, err := patternFromTokens(args)
	if err != nil {
		writeLineError(w, err.Error())
		return
	}

	limit := s.cfg.clampLimit(0)
	lines := make([]string, 0, 16)
	for t, err := range s.Engine.Match(pattern[0], pattern[1], pattern[2]) {
		if err != nil {
			writeLineError(w, err.Error())
			return
		}
		lines = append(lines, t.String())
		if len(lines) >= limit {
			break
		}
	}

	writeLine(w, fmt.Sprintf("*%d", len(lines)))
	for _, l := range lines {
		writeLine(w, l)
	}
}

func (s *Server) tcpCount(w *bufio.Writer, args []string) {
	if len(args) == 0 {
		writeLine(w, fmt.Sprintf(":%d", s.Engine.Len()))
		return
	}

	pattern, err := patternFromTokens(args)
	if err != nil {
		writeLineError(w, err.Error())
		return
	}

	count := 0
	for _, err := range s.Engine.Match(pattern[0], pattern[1], pattern[2]) {
		if err != nil {
			writeLineError(w, err.Error())
			return
		}
		count++
	}
	writeLine(w, fmt.Sprintf(":%d", count))
}

// tripleFromTokens parses exactly three N-Triples terms.
func tripleFromTokens(args []string) (core.Triple, error) {
	if len(args) != 3 {
		return core.Triple{}, fmt.Errorf("expected 3 terms, got %d", len(args))
	}

	var terms [3]core.Term
	for i, raw := range args {
		t, err := core.ParseTerm(raw)
		if err != nil {
			return core.Triple{}, fmt.Errorf("term %d: %w", i+1, err)
		}
		terms[i] = t
	}
	return core.Triple{Subject: terms[0], Predicate: terms[1], Object: terms[2]}, nil
}

// patternFromTokens parses three terms where "?" means wildcard.
func patternFromTokens(args []string) ([3]*core.Term, error) {
	var pattern [3]*core.Term
	if len(args) != 3 {
		return pattern, fmt.Errorf("expected 3 terms or wildcards, got %d", len(args))
	}

	for i, raw := range args {
		if raw == "?" {
			continue
		}
		t, err := core.ParseTerm(raw)
		if err != nil {
			return pattern, fmt.Errorf("term %d: %w", i+1, err)
		}
		pattern[i] = &t
	}
	return pattern, nil
}

func writeLine(w *bufio.Writer, line string) {
	w.WriteString(line)
	w.WriteString("\r\n")
}

func writeLineError(w *bufio.Writer, message string) {
	writeLine(w, "-ERR "+message)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
