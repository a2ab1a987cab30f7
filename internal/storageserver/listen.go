package storageserver

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/wolverine07/langos/internal/logger"
	"github.com/wolverine07/langos/internal/wire"
)

// Serve accepts client connections on listenAddr until ctx is cancelled,
// dispatching each to HandleConnection with notify shared across every
// connection (the Storage Server has exactly one control channel to the
// Name Server, so every client connection's INFO_UPDATE relays over the
// same notify). Grounded on the same BaseAdapter.ServeWithFactory accept
// loop as the Name Server's Serve, trimmed the same way.
func (s *Server) Serve(ctx context.Context, listenAddr string, notify NotifyFunc) error {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("storageserver: listen on %s: %w", listenAddr, err)
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	logger.Info("storage server listening", "addr", listenAddr)

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

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.HandleConnection(ctx, wire.NewConnSize(nc, s.connSize()), notify)
		}()
	}
}
