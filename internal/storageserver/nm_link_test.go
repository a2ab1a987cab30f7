package storageserver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolverine07/langos/internal/wire"
)

func TestNotifyNMSendsInfoUpdate(t *testing.T) {
	serverRaw, peerRaw := net.Pipe()
	defer serverRaw.Close()
	defer peerRaw.Close()

	notify := NotifyNM(context.Background(), wire.NewConn(serverRaw))

	done := make(chan struct{})
	go func() {
		notify("story.txt", 12, 2, 12)
		close(done)
	}()

	peer := wire.NewConn(peerRaw)
	peer.SetDeadline(time.Now().Add(2 * time.Second))
	msg, err := peer.Recv()
	require.NoError(t, err)
	assert.Equal(t, "INFO_UPDATE story.txt 12 2 12", msg)
	<-done
}

func TestListenNMHandlesCreateDeleteAndGetContent(t *testing.T) {
	s := newTestServer(t)
	serverRaw, peerRaw := net.Pipe()
	peer := wire.NewConn(peerRaw)
	peer.SetDeadline(time.Now().Add(2 * time.Second))

	go s.ListenNM(context.Background(), wire.NewConn(serverRaw))

	require.NoError(t, peer.Send("CREATE story.txt"))
	resp, err := peer.Recv()
	require.NoError(t, err)
	assert.Equal(t, "ACK_CREATE OK", resp)

	require.NoError(t, peer.Send("DELETE story.txt"))
	resp, err = peer.Recv()
	require.NoError(t, err)
	assert.Equal(t, "ACK_DELETE OK", resp)

	require.NoError(t, peerRaw.Close())
}
