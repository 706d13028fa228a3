package scanner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClamd accepts a single connection, collects the streamed payload and
// answers with reply.
func fakeClamd(t *testing.T, reply string) (addr string, got <-chan []byte) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	ch := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		cmd, err := r.ReadString(0)
		if err != nil {
			return
		}

		var payload bytes.Buffer
		if cmd == "zINSTREAM\x00" {
			var size [4]byte
			for {
				if _, err := io.ReadFull(r, size[:]); err != nil {
					return
				}
				n := binary.BigEndian.Uint32(size[:])
				if n == 0 {
					break
				}
				if _, err := io.CopyN(&payload, r, int64(n)); err != nil {
					return
				}
			}
		}
		ch <- payload.Bytes()
		_, _ = conn.Write([]byte(reply + "\x00"))
	}()

	return ln.Addr().String(), ch
}

func TestClamdScanner_Scan(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		status Status
		virus  string
	}{
		{name: "clean", reply: "stream: OK", status: StatusClean},
		{name: "infected", reply: "stream: Eicar-Signature FOUND", status: StatusVirusDetected, virus: "Eicar-Signature"},
		{name: "error", reply: "INSTREAM size limit exceeded. ERROR", status: StatusError},
		{name: "garbage", reply: "what?", status: StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, got := fakeClamd(t, tt.reply)
			s := NewClamdScanner(addr, 2*time.Second)
			s.chunkSize = 3

			data := []byte("some image bytes")
			res, err := s.Scan(context.Background(), data)
			require.NoError(t, err)

			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.virus, res.Virus)
			assert.Equal(t, tt.reply, res.Raw)
			assert.Equal(t, data, <-got)
		})
	}
}

func TestClamdScanner_Scan_DialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = NewClamdScanner(addr, time.Second).Scan(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clamd dial")
}

func TestClamdScanner_Ping(t *testing.T) {
	addr, _ := fakeClamd(t, "PONG")
	require.NoError(t, NewClamdScanner(addr, time.Second).Ping(context.Background()))

	addr, _ = fakeClamd(t, "NOPE")
	require.Error(t, NewClamdScanner(addr, time.Second).Ping(context.Background()))
}

func TestNewClamdScanner_UnixAddress(t *testing.T) {
	s := NewClamdScanner("unix:/var/run/clamd.sock", 0)
	assert.Equal(t, "unix", s.network)
	assert.Equal(t, "/var/run/clamd.sock", s.address)
}

func TestParseReply(t *testing.T) {
	res := ParseReply("stream: Win.Test.EICAR_HDB-1 FOUND")
	assert.Equal(t, StatusVirusDetected, res.Status)
	assert.Equal(t, "Win.Test.EICAR_HDB-1", res.Virus)
	assert.False(t, res.Clean())

	assert.True(t, ParseReply("stream: OK").Clean())
}
