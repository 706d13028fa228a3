package scanner

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

const defaultChunkSize = 64 << 10

// ClamdScanner talks the clamd INSTREAM protocol over TCP ("host:port") or
// a unix socket ("unix:/path/clamd.sock"). Each scan uses its own connection.
type ClamdScanner struct {
	network   string
	address   string
	timeout   time.Duration
	chunkSize int
	dialer    net.Dialer
}

func NewClamdScanner(addr string, timeout time.Duration) *ClamdScanner {
	network, address := "tcp", addr
	if path, ok := strings.CutPrefix(addr, "unix:"); ok {
		network, address = "unix", path
	}
	return &ClamdScanner{network: network, address: address, timeout: timeout, chunkSize: defaultChunkSize}
}

func (s *ClamdScanner) connect(ctx context.Context) (net.Conn, context.CancelFunc, error) {
	cancel := context.CancelFunc(func() {})
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	}

	conn, err := s.dialer.DialContext(ctx, s.network, s.address)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("clamd dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	return conn, cancel, nil
}

// Scan streams data to clamd and parses the verdict.
func (s *ClamdScanner) Scan(ctx context.Context, data []byte) (*Result, error) {
	conn, cancel, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer conn.Close()

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString("zINSTREAM\x00"); err != nil {
		return nil, fmt.Errorf("clamd write: %w", err)
	}

	var size [4]byte
	for start := 0; start < len(data); start += s.chunkSize {
		chunk := data[start:min(start+s.chunkSize, len(data))]
		binary.BigEndian.PutUint32(size[:], uint32(len(chunk)))
		if _, err := w.Write(size[:]); err != nil {
			return nil, fmt.Errorf("clamd write: %w", err)
		}
		if _, err := w.Write(chunk); err != nil {
			return nil, fmt.Errorf("clamd write: %w", err)
		}
	}
	binary.BigEndian.PutUint32(size[:], 0)
	if _, err := w.Write(size[:]); err != nil {
		return nil, fmt.Errorf("clamd write: %w", err)
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("clamd write: %w", err)
	}

	reply, err := readReply(conn)
	if err != nil {
		return nil, err
	}
	return ParseReply(reply), nil
}

// Ping sends PING and expects PONG.
func (s *ClamdScanner) Ping(ctx context.Context) error {
	conn, cancel, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	defer conn.Close()

	if _, err := conn.Write([]byte("zPING\x00")); err != nil {
		return fmt.Errorf("clamd write: %w", err)
	}
	reply, err := readReply(conn)
	if err != nil {
		return err
	}
	if reply != "PONG" {
		return fmt.Errorf("clamd ping: unexpected reply %q", reply)
	}
	return nil
}

func readReply(r io.Reader) (string, error) {
	reply, err := bufio.NewReader(r).ReadString(0)
	if err != nil && !(errors.Is(err, io.EOF) && reply != "") {
		return "", fmt.Errorf("clamd read: %w", err)
	}
	return strings.TrimSpace(strings.TrimRight(reply, "\x00")), nil
}

// ParseReply maps a clamd INSTREAM reply onto a Result:
//
//	stream: OK
//	stream: Eicar-Signature FOUND
//	INSTREAM size limit exceeded. ERROR
func ParseReply(reply string) *Result {
	res := &Result{Status: StatusUnknown, Raw: reply}

	body := reply
	if i := strings.Index(reply, ": "); i >= 0 {
		body = reply[i+2:]
	}

	switch {
	case body == "OK":
		res.Status = StatusClean
	case strings.HasSuffix(body, " FOUND"):
		res.Status = StatusVirusDetected
		res.Virus = strings.TrimSuffix(body, " FOUND")
	case strings.HasSuffix(body, "ERROR"):
		res.Status = StatusError
	}
	return res
}
