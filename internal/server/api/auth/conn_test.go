package auth_test

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/Alia5/vkbd/internal/server/api/auth"
)

func tcpPair(t *testing.T) (client, server net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	client, err = net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	server, err = ln.Accept()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return client, server
}

func sessionKeys(t *testing.T, password string) (c2s, s2c []byte) {
	t.Helper()
	key, err := auth.DeriveKey(password)
	require.NoError(t, err)
	serverNonce := bytes.Repeat([]byte{1}, auth.NonceSize)
	clientNonce := bytes.Repeat([]byte{2}, auth.NonceSize)
	return auth.DeriveSessionKeys(key, serverNonce, clientNonce)
}

func TestConnRoundTrip(t *testing.T) {
	c2s, s2c := sessionKeys(t, "test123")

	tests := []struct {
		name string
		size int
	}{
		{name: "small", size: 13},
		{name: "exactly one frame", size: 64 * 1024},
		{name: "multiple frames", size: 200 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, s := tcpPair(t)
			wc, err := auth.WrapConn(c, c2s, s2c)
			require.NoError(t, err)
			ws, err := auth.WrapConn(s, s2c, c2s)
			require.NoError(t, err)

			payload := make([]byte, tt.size)
			_, _ = rand.Read(payload)

			errCh := make(chan error, 1)
			go func() {
				n, err := wc.Write(payload)
				if err == nil && n != len(payload) {
					err = io.ErrShortWrite
				}
				errCh <- err
			}()

			got := make([]byte, tt.size)
			_, err = io.ReadFull(ws, got)
			require.NoError(t, err)
			require.NoError(t, <-errCh)
			assert.True(t, bytes.Equal(payload, got))
		})
	}
}

func TestConnErrors(t *testing.T) {
	c2s, s2c := sessionKeys(t, "test123")
	otherC2S, _ := sessionKeys(t, "123test")

	t.Run("bad key length", func(t *testing.T) {
		c, _ := tcpPair(t)
		_, err := auth.WrapConn(c, []byte{1, 2, 3}, s2c)
		assert.ErrorContains(t, err, "chacha20poly1305: bad key length")
	})

	t.Run("same key both ways", func(t *testing.T) {
		c, _ := tcpPair(t)
		_, err := auth.WrapConn(c, c2s, c2s)
		assert.ErrorIs(t, err, auth.ErrSameKey)
	})

	t.Run("differing keys", func(t *testing.T) {
		c, s := tcpPair(t)
		wc, err := auth.WrapConn(c, c2s, s2c)
		require.NoError(t, err)
		ws, err := auth.WrapConn(s, s2c, otherC2S)
		require.NoError(t, err)

		_, err = wc.Write([]byte("x"))
		require.NoError(t, err)
		_, err = ws.Read(make([]byte, 1))
		assert.ErrorContains(t, err, "message authentication failed")
	})

	t.Run("replayed frame", func(t *testing.T) {
		c, s := tcpPair(t)
		ws, err := auth.WrapConn(s, s2c, c2s)
		require.NoError(t, err)

		aead, err := chacha20poly1305.New(c2s)
		require.NoError(t, err)
		frame := func(ctr uint64, msg string) []byte {
			nonce := make([]byte, chacha20poly1305.NonceSize)
			binary.BigEndian.PutUint64(nonce[4:], ctr)
			body := binary.BigEndian.AppendUint64(nil, ctr)
			body = aead.Seal(body, nonce, []byte(msg), nil)
			return append(binary.BigEndian.AppendUint32(nil, uint32(len(body))), body...)
		}

		go func() {
			_, _ = c.Write(append(frame(5, "a"), frame(5, "b")...))
		}()
		buf := make([]byte, 1)
		_, err = ws.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, "a", string(buf))
		_, err = ws.Read(buf)
		assert.ErrorIs(t, err, auth.ErrReplay)
	})

	t.Run("oversized frame", func(t *testing.T) {
		c, s := tcpPair(t)
		ws, err := auth.WrapConn(s, s2c, c2s)
		require.NoError(t, err)
		go func() { _, _ = c.Write([]byte{0xff, 0xff, 0xff, 0xff}) }()
		_, err = ws.Read(make([]byte, 1))
		assert.ErrorIs(t, err, auth.ErrFrameTooLarge)
	})
}

// readFrame reads one raw frame off conn, header included.
func readFrame(t *testing.T, conn net.Conn) []byte {
	t.Helper()
	hdr := make([]byte, 4)
	_, err := io.ReadFull(conn, hdr)
	require.NoError(t, err)
	body := make([]byte, binary.BigEndian.Uint32(hdr))
	_, err = io.ReadFull(conn, body)
	require.NoError(t, err)
	return append(hdr, body...)
}

func TestConnDirections(t *testing.T) {
	c2s, s2c := sessionKeys(t, "test123")

	t.Run("reflected frame is rejected", func(t *testing.T) {
		c, s := tcpPair(t)
		ws, err := auth.WrapConn(s, s2c, c2s)
		require.NoError(t, err)

		_, err = ws.Write([]byte("reflected\n"))
		require.NoError(t, err)
		frame := readFrame(t, c)
		_, err = c.Write(frame)
		require.NoError(t, err)

		_, err = ws.Read(make([]byte, 16))
		assert.ErrorContains(t, err, "message authentication failed")
	})

	t.Run("first frames use distinct keystreams", func(t *testing.T) {
		c, s := tcpPair(t)
		wc, err := auth.WrapConn(c, c2s, s2c)
		require.NoError(t, err)
		ws, err := auth.WrapConn(s, s2c, c2s)
		require.NoError(t, err)

		msg := []byte(`{"layout":"Deutsch"}`)
		_, err = wc.Write(msg)
		require.NoError(t, err)
		fromClient := readFrame(t, s)
		_, err = ws.Write(msg)
		require.NoError(t, err)
		fromServer := readFrame(t, c)

		require.Equal(t, len(fromClient), len(fromServer))
		// Same counter and plaintext, so only the key can tell them apart.
		assert.Equal(t, fromClient[:12], fromServer[:12])
		assert.NotEqual(t, fromClient[12:], fromServer[12:])
	})
}
