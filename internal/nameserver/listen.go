package nameserver

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/wolverine07/langos/internal/logger"
	"github.com/wolverine07/langos/internal/wire"
)

// Serve accepts connections on listenAddr until ctx is cancelled, dispatching
// each to HandleConnection in its own goroutine. Grounded on the teacher's
// pkg/adapter.BaseAdapter.ServeWithFactory accept loop: listener closed from
// a context-watching goroutine, in-flight connections drained before
// returning. Trimmed to this protocol's single connection type and no
// connection-limiting semaphore — spec.md names no connection cap.
func (s *Server) Serve(ctx context.Context, listenAddr string) error {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("nameserver: listen on %s: %w", listenAddr, err)
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	logger.Info("name server listening", "addr", listenAddr)

	var wg sync.WaitGroup
	for {
		nc, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				wg.Wait()
				return nil
			default:
				logger.Warn("accept error", logger.Err(err))
				continue
			}
		}

		remoteIP, _, _ := net.SplitHostPort(nc.RemoteAddr().String())
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.HandleConnection(ctx, wire.NewConn(nc), remoteIP)
		}()
	}
}
