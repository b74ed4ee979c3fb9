package persistence

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
)

const (
	// MagicByte marks the start of a valid frame. It lets a recovery scan
	// resynchronize inside a damaged file.
	MagicByte = 0xA7

	// HeaderSize is the fixed frame metadata size:
	// 1 byte (Magic) + 1 byte (OpCode) + 4 bytes (Length) + 4 bytes (CRC32).
	HeaderSize = 10

	// OpCodeCommand marks a frame whose payload is a RESP command.
	OpCodeCommand = 0x01
)

var (
	// ErrInvalidMagic indicates the stream lost synchronization or is not a
	// valid log file.
	ErrInvalidMagic = errors.New("invalid magic byte")
	// ErrChecksumMismatch indicates corruption within the frame payload.
	ErrChecksumMismatch = errors.New("crc32 checksum mismatch")
	// ErrIncompleteFrame indicates the file ended mid-frame, typically a
	// write interrupted by a crash.
	ErrIncompleteFrame = errors.New("incomplete frame")
)

// FrameWriter writes binary frames to an underlying io.Writer.
// Wrap the writer in a bufio.Writer so header and payload land in one
// syscall.
type FrameWriter struct {
	w io.Writer
}

func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame writes one frame:
// [Magic(1)][OpCode(1)][Length(4)][CRC(4)][Payload(N)]
func (fw *FrameWriter) WriteFrame(payload []byte) error {
	header := make([]byte, HeaderSize)
	header[0] = MagicByte
	header[1] = OpCodeCommand
	binary.LittleEndian.PutUint32(header[2:6], uint32(len(payload)))
	binary.LittleEndian.PutUint32(header[6:10], crc32.ChecksumIEEE(payload))

	if _, err := fw.w.Write(header); err != nil {
		return err
	}
	_, err := fw.w.Write(payload)
	return err
}

// ReadFrame reads and validates the next frame, returning the payload and
// the total bytes consumed. A clean EOF at a frame boundary is io.EOF; a
// partial header or payload is ErrIncompleteFrame.
func ReadFrame(r io.Reader) ([]byte, int, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return nil, 0, io.EOF
		}
		return nil, 0, ErrIncompleteFrame
	}

	if header[0] != MagicByte {
		return nil, HeaderSize, ErrInvalidMagic
	}

	length := binary.LittleEndian.Uint32(header[2:6])
	expectedCRC := binary.LittleEndian.Uint32(header[6:10])

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, HeaderSize, ErrIncompleteFrame
	}

	if crc32.ChecksumIEEE(payload) != expectedCRC {
		return nil, HeaderSize + int(length), ErrChecksumMismatch
	}

	return payload, HeaderSize + int(length), nil
}
