// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package coordinator

import (
	"context"
	"net"
	"net/rpc"

	"github.com/octobuild/octobuild/internal/o11y/clog"
)

// serviceName is the net/rpc dotted prefix clients call through, e.g.
// "Coordinator.Ping".
const serviceName = "Coordinator"

// Server accepts connections and serves RPC calls against one Service.
type Server struct {
	rpc *rpc.Server
}

// NewServer registers svc under serviceName and returns a Server ready to
// accept connections.
func NewServer(svc *Service) (*Server, error) {
	s := rpc.NewServer()
	if err := s.RegisterName(serviceName, svc); err != nil {
		return nil, err
	}
	return &Server{rpc: s}, nil
}

// Serve accepts connections on l until it errors or ctx is canceled, and
// runs each one on net/rpc's default gob-encoded wire format.
func (srv *Server) Serve(ctx context.Context, l net.Listener) error {
	go func() {
		<-ctx.Done()
		l.Close()
	}()
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		go func() {
			defer conn.Close()
			srv.rpc.ServeConn(conn)
		}()
	}
}

// ListenAndServe is a convenience wrapper for the common case of a single
// TCP listener. No binary in this repository calls it.
func ListenAndServe(ctx context.Context, network, address string, svc *Service) error {
	l, err := net.Listen(network, address)
	if err != nil {
		return err
	}
	clog.Infof(ctx, "coordinator: listening on %s %s", network, address)
	srv, err := NewServer(svc)
	if err != nil {
		l.Close()
		return err
	}
	return srv.Serve(ctx, l)
}
