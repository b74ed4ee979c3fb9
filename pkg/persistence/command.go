// Package persistence implements the on-disk durability layer: an
// append-only log of framed RESP commands plus helpers to replay it.
//
// The log format is two layers. Each record is a binary frame carrying a
// magic byte, a length and a CRC32 checksum, so torn writes and corruption
// are detected on replay. The frame payload is a RESP-encoded command
// (the same encoding the TCP interface speaks), which keeps the log
// binary-safe for any term content.
package persistence

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Command is a single logged operation: a name such as "ASSERT" plus its
// arguments. Arguments are byte slices so literal values containing any
// byte sequence round-trip through the log unchanged.
type Command struct {
	Name string
	Args [][]byte
}

// FormatCommand encodes a command name and its arguments as a RESP array
// of bulk strings. A nil argument becomes a RESP null bulk string.
func FormatCommand(name string, args ...[]byte) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "*%d\r\n", 1+len(args))
	fmt.Fprintf(&b, "$%d\r\n%s\r\n", len(name), name)

	for _, arg := range args {
		if arg == nil {
			b.WriteString("$-1\r\n")
			continue
		}
		fmt.Fprintf(&b, "$%d\r\n", len(arg))
		b.Write(arg)
		b.WriteString("\r\n")
	}

	return b.Bytes()
}

// ParseCommand reads one RESP-encoded command from the reader. The command
// name is upper-cased; a null bulk string argument comes back as nil.
func ParseCommand(reader *bufio.Reader) (*Command, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		return nil, err
	}

	line = strings.TrimSpace(line)
	if len(line) == 0 || line[0] != '*' {
		return nil, fmt.Errorf("invalid command header %q, expected '*'", line)
	}

	numArgs, err := strconv.Atoi(line[1:])
	if err != nil || numArgs <= 0 {
		return nil, fmt.Errorf("invalid command arity %q", line)
	}

	args := make([][]byte, numArgs)
	for i := 0; i < numArgs; i++ {
		line, err = reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if len(line) == 0 || line[0] != '$' {
			return nil, fmt.Errorf("invalid bulk string header %q, expected '$'", line)
		}

		argLen, err := strconv.Atoi(line[1:])
		if err != nil {
			return nil, fmt.Errorf("invalid bulk string length %q", line)
		}
		if argLen < 0 {
			args[i] = nil
			continue
		}

		argData := make([]byte, argLen)
		if _, err := io.ReadFull(reader, argData); err != nil {
			return nil, err
		}

		// Consume the trailing \r\n.
		crlf := make([]byte, 2)
		if _, err := io.ReadFull(reader, crlf); err != nil {
			return nil, err
		}

		args[i] = argData
	}

	return &Command{
		Name: strings.ToUpper(string(args[0])),
		Args: args[1:],
	}, nil
}

// Replay reads framed commands from r and invokes fn for each. Replay is
// tolerant of a torn tail: an incomplete final frame ends the replay
// cleanly, since it means the process died mid-append. Any other frame
// corruption is reported as an error.
func Replay(r io.Reader, fn func(*Command) error) error {
	br := bufio.NewReader(r)
	for {
		payload, _, err := ReadFrame(br)
		if err == io.EOF {
			return nil
		}
		if err == ErrIncompleteFrame {
			return nil
		}
		if err != nil {
			return fmt.Errorf("corrupt log record: %w", err)
		}

		cmd, err := ParseCommand(bufio.NewReader(bytes.NewReader(payload)))
		if err != nil {
			return fmt.Errorf("corrupt log payload: %w", err)
		}
		if err := fn(cmd); err != nil {
			return err
		}
	}
}
