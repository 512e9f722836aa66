package auth

import (
	"bytes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

// Frame layout: length[4] | counter[8] | ciphertext. The AEAD nonce is
// four zero bytes followed by the counter, which must strictly increase.
const (
	headerSize = 4
	ctrSize    = 8
	maxPayload = 64 * 1024
	maxFrame   = ctrSize + maxPayload + chacha20poly1305.Overhead
)

var (
	ErrFrameTooLarge = errors.New("encrypted frame too large")
	ErrReplay        = errors.New("encrypted frame counter did not increase")
	ErrSameKey       = errors.New("send and receive keys must differ")
)

// Conn encrypts every Write as one or more frames and decrypts frames on Read.
type Conn struct {
	net.Conn
	seal cipher.AEAD
	open cipher.AEAD

	wmu     sync.Mutex
	sendCtr uint64

	rmu     sync.Mutex
	recvCtr uint64
	started bool
	pending bytes.Buffer
}

// WrapConn returns conn encrypting writes with sendKey and decrypting reads
// with recvKey. The two keys must differ.
func WrapConn(conn net.Conn, sendKey, recvKey []byte) (net.Conn, error) {
	if bytes.Equal(sendKey, recvKey) {
		return nil, ErrSameKey
	}
	seal, err := chacha20poly1305.New(sendKey)
	if err != nil {
		return nil, err
	}
	open, err := chacha20poly1305.New(recvKey)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn, seal: seal, open: open}, nil
}

func nonceFor(ctr uint64) []byte {
	n := make([]byte, chacha20poly1305.NonceSize)
	binary.BigEndian.PutUint64(n[4:], ctr)
	return n
}

func (c *Conn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	written := 0
	for len(p) > 0 {
		chunk := p[:min(len(p), maxPayload)]
		ctr := c.sendCtr
		c.sendCtr++

		frame := make([]byte, headerSize+ctrSize, headerSize+ctrSize+len(chunk)+c.seal.Overhead())
		binary.BigEndian.PutUint64(frame[headerSize:], ctr)
		frame = c.seal.Seal(frame, nonceFor(ctr), chunk, nil)
		binary.BigEndian.PutUint32(frame[:headerSize], uint32(len(frame)-headerSize))

		if _, err := c.Conn.Write(frame); err != nil {
			return written, err
		}
		written += len(chunk)
		p = p[len(chunk):]
	}
	return written, nil
}

func (c *Conn) Read(p []byte) (int, error) {
	c.rmu.Lock()
	defer c.rmu.Unlock()

	if c.pending.Len() == 0 {
		if err := c.readFrame(); err != nil {
			return 0, err
		}
	}
	return c.pending.Read(p)
}

func (c *Conn) readFrame() error {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(c.Conn, hdr[:]); err != nil {
		return err
	}
	length := binary.BigEndian.Uint32(hdr[:])
	if length > maxFrame || length < ctrSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}
	frame := make([]byte, length)
	if _, err := io.ReadFull(c.Conn, frame); err != nil {
		return err
	}
	ctr := binary.BigEndian.Uint64(frame[:ctrSize])
	if c.started && ctr <= c.recvCtr {
		return ErrReplay
	}
	pt, err := c.open.Open(nil, nonceFor(ctr), frame[ctrSize:], nil)
	if err != nil {
		return err
	}
	c.started, c.recvCtr = true, ctr
	c.pending.Write(pt)
	return nil
}
