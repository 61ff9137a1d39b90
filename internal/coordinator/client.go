// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package coordinator

import (
	"errors"
	"net/rpc"
)

// Client calls a remote Service over net/rpc.
type Client struct {
	rpc *rpc.Client
}

// Dial connects to a coordinator listening at address on network (e.g.
// "tcp").
func Dial(network, address string) (*Client, error) {
	c, err := rpc.Dial(network, address)
	if err != nil {
		return nil, err
	}
	return &Client{rpc: c}, nil
}

func (c *Client) Close() error {
	return c.rpc.Close()
}

// Ping probes the remote agent's liveness and reports its version.
func (c *Client) Ping() (*PingReply, error) {
	var reply PingReply
	if err := c.rpc.Call(serviceName+".Ping", &PingArgs{}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Compile dispatches a remote compile and returns its output, or the
// remote's reported error.
func (c *Client) Compile(args *CompileArgs) (*OutputInfo, error) {
	var reply CompileReply
	if err := c.rpc.Call(serviceName+".Compile", args, &reply); err != nil {
		return nil, err
	}
	if reply.Err != "" {
		return nil, errors.New(reply.Err)
	}
	return reply.Output, nil
}
