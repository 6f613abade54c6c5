package capture

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveRTLTCP imitates an rtl_tcp server: it sends the dongle header,
// consumes n tuning commands and then streams samples.
func serveRTLTCP(t *testing.T, commands int, samples []byte) (string, <-chan []byte) {
	return serveStalling(t, commands, samples, nil)
}

// serveStalling is serveRTLTCP, but after sending samples it holds the
// connection open until release is closed. A nil release closes at once.
func serveStalling(t *testing.T, commands int, samples []byte, release <-chan struct{}) (string, <-chan []byte) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	received := make(chan []byte, 1)

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		header := []byte{'R', 'T', 'L', '0'}
		header = binary.BigEndian.AppendUint32(header, 5)
		header = binary.BigEndian.AppendUint32(header, 29)
		conn.Write(header)

		cmds := make([]byte, commands*5)
		if _, err := io.ReadFull(conn, cmds); err != nil {
			return
		}
		received <- cmds

		conn.Write(samples)
		if release != nil {
			<-release
		}
	}()

	return ln.Addr().String(), received
}

func TestReceiverRecord(t *testing.T) {
	addr, received := serveRTLTCP(t, 3, []byte{0, 255, 127, 128, 255, 0})

	r, err := Dial(addr, 433920000, 2000000, nil)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, uint32(29), r.Info.GainCount)

	c, err := r.Record(3)
	require.NoError(t, err)

	require.Len(t, c.Samples, 3)
	assert.Equal(t, 2e6, c.SampleRate)
	assert.Equal(t, complex(-1, 1), c.Samples[0])
	assert.InDelta(t, -0.5/127.5, real(c.Samples[1]), 1e-12)
	assert.InDelta(t, 0.5/127.5, imag(c.Samples[1]), 1e-12)
	assert.Equal(t, complex(1, -1), c.Samples[2])

	cmds := <-received
	assert.Equal(t, byte(1), cmds[0])
	assert.Equal(t, uint32(433920000), binary.BigEndian.Uint32(cmds[1:5]))
	assert.Equal(t, byte(2), cmds[5])
	assert.Equal(t, uint32(2000000), binary.BigEndian.Uint32(cmds[6:10]))
	assert.Equal(t, byte(3), cmds[10])
}

func TestReceiverShortRead(t *testing.T) {
	addr, _ := serveRTLTCP(t, 3, []byte{0, 255})

	r, err := Dial(addr, 433920000, 2000000, nil)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Record(4)
	assert.Error(t, err)
}

func TestReceiverStalled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	addr, _ := serveStalling(t, 3, []byte{0, 255}, release)

	r, err := Dial(addr, 433920000, 2000000, nil)
	require.NoError(t, err)
	defer r.Close()

	r.ReadTimeout = 50 * time.Millisecond

	start := time.Now()
	_, err = r.Record(4)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	netErr, ok := errors.Cause(err).(net.Error)
	require.True(t, ok, "%T", errors.Cause(err))
	assert.True(t, netErr.Timeout())
}
