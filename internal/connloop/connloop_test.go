package connloop

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wirekv/wirekv/internal/store"
)

func startLoop(t *testing.T) (net.Conn, *store.Store) {
	t.Helper()
	server, client := net.Pipe()
	st := store.New()
	go Handle(server, st, nil)
	t.Cleanup(func() { client.Close() })
	return client, st
}

func readLine(t *testing.T, r *bufio.Reader, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	_, err := readFull(r, buf)
	require.NoError(t, err)
	return buf
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func TestPipelineOrderPreserved(t *testing.T) {
	client, _ := startLoop(t)
	client.SetDeadline(time.Now().Add(5 * time.Second))
	r := bufio.NewReader(client)

	req := "*3\r\n$3\r\nSET\r\n$4\r\nname\r\n$7\r\nvictory\r\n" +
		"*2\r\n$3\r\nGET\r\n$4\r\nname\r\n"
	_, err := client.Write([]byte(req))
	require.NoError(t, err)

	assert.Equal(t, "+OK\r\n", string(readLine(t, r, len("+OK\r\n"))))
	assert.Equal(t, "$7\r\nvictory\r\n", string(readLine(t, r, len("$7\r\nvictory\r\n"))))
}

func TestGetMissingReturnsNull(t *testing.T) {
	client, _ := startLoop(t)
	client.SetDeadline(time.Now().Add(5 * time.Second))
	r := bufio.NewReader(client)

	_, err := client.Write([]byte("*2\r\n$3\r\nGET\r\n$7\r\nmissing\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "_\r\n", string(readLine(t, r, len("_\r\n"))))
}

func TestPartialFeedAcrossWrites(t *testing.T) {
	client, _ := startLoop(t)
	client.SetDeadline(time.Now().Add(5 * time.Second))
	r := bufio.NewReader(client)

	full := "*3\r\n$3\r\nSET\r\n$4\r\nname\r\n$7\r\nvictory\r\n"
	_, err := client.Write([]byte(full[:10]))
	require.NoError(t, err)
	_, err = client.Write([]byte(full[10:]))
	require.NoError(t, err)

	assert.Equal(t, "+OK\r\n", string(readLine(t, r, len("+OK\r\n"))))
}

func TestUnknownCommandKeepsConnectionOpen(t *testing.T) {
	client, _ := startLoop(t)
	client.SetDeadline(time.Now().Add(5 * time.Second))
	r := bufio.NewReader(client)

	_, err := client.Write([]byte("*1\r\n$4\r\nnope\r\n"))
	require.NoError(t, err)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "unknown command")

	_, err = client.Write([]byte("*2\r\n$4\r\nECHO\r\n$2\r\nhi\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "$2\r\nhi\r\n", string(readLine(t, r, len("$2\r\nhi\r\n"))))
}
