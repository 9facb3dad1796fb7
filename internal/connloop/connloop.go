// Package connloop implements the per-connection handling loop described
// by the wire protocol's connection contract: decode frames off the
// socket, parse and execute each as a command against the shared store,
// and write replies back in request order, closing the connection only
// on I/O errors or unrecoverable protocol errors.
package connloop

import (
	"bufio"
	"errors"
	"io"
	"net"

	"github.com/google/uuid"

	"github.com/wirekv/wirekv/internal/command"
	"github.com/wirekv/wirekv/internal/frame"
	"github.com/wirekv/wirekv/internal/kvlog"
	"github.com/wirekv/wirekv/internal/metrics"
	"github.com/wirekv/wirekv/internal/store"
)

const readChunkSize = 4096

// Handle drives one accepted connection to completion: it blocks until
// the peer disconnects, an I/O error occurs, or a malformed frame forces
// the connection closed. Handle never panics on malformed client input;
// command-level errors are translated into a SimpleError reply and the
// loop continues, per the taxonomy in the wire protocol's error handling
// design.
func Handle(conn net.Conn, st *store.Store, m *metrics.Registry) {
	id := uuid.NewString()
	defer conn.Close()

	if m != nil {
		m.ConnectionsTotal.Inc()
		m.ActiveConns.Inc()
		defer m.ActiveConns.Dec()
	}

	kvlog.Debugf("connloop[%s]: accepted %s", id, conn.RemoteAddr())

	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	buf := make([]byte, 0, readChunkSize)

	for {
		f, consumed, err := frame.Decode(buf)
		if errors.Is(err, frame.ErrIncomplete) {
			n, rerr := fillMore(r, &buf)
			if n > 0 && m != nil {
				m.BytesRead.Add(float64(n))
			}
			if rerr != nil {
				if !errors.Is(rerr, io.EOF) {
					kvlog.Warnf("connloop[%s]: read error: %v", id, rerr)
				}
				return
			}
			if n == 0 {
				return
			}
			continue
		}
		if err != nil {
			if m != nil {
				m.DecodeErrors.Inc()
			}
			kvlog.Warnf("connloop[%s]: protocol error: %v", id, err)
			return
		}

		buf = buf[consumed:]

		reply := dispatch(f, st, m)
		encoded := frame.Encode(nil, reply)
		w.Write(encoded)
		if m != nil {
			m.BytesWritten.Add(float64(len(encoded)))
		}
		if err := w.Flush(); err != nil {
			kvlog.Warnf("connloop[%s]: write error: %v", id, err)
			return
		}
	}
}

// dispatch parses and executes a single frame, translating any parse
// error into the appropriate SimpleError reply rather than propagating
// it — these are per-request errors that keep the connection open.
func dispatch(f frame.Frame, st *store.Store, m *metrics.Registry) frame.Frame {
	cmd, err := command.Parse(f)
	if err != nil {
		return frame.SimpleError(err.Error())
	}
	if m != nil {
		m.CommandsTotal.WithLabelValues(commandLabel(f)).Inc()
	}
	return cmd.Execute(st)
}

func commandLabel(f frame.Frame) string {
	items := f.Items()
	if len(items) == 0 || items[0].Kind != frame.KindBulkString {
		return "unknown"
	}
	return string(items[0].Bytes())
}

// fillMore reads one chunk from r and appends it to *buf, growing the
// buffer as needed. Returns the number of bytes appended.
func fillMore(r *bufio.Reader, buf *[]byte) (int, error) {
	chunk := make([]byte, readChunkSize)
	n, err := r.Read(chunk)
	if n > 0 {
		*buf = append(*buf, chunk[:n]...)
	}
	if err != nil {
		return n, err
	}
	return n, nil
}
