// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package coordinator implements the ancillary agent/coordinator RPC
// schema from spec.md §6: a ping method and a Compile method, carried over
// net/rpc's default gob codec. Nothing on octobuild's hot local path
// starts this service; it exists so a cluster of octobuild agents can be
// wired up the way the original's cluster/ subsystem allowed, without
// pulling a gRPC/protobuf stack into the core (DESIGN.md).
package coordinator

// PingArgs carries no data; its presence lets callers probe liveness
// without guessing at an RPC method's zero-value argument requirements.
type PingArgs struct{}

// PingReply reports the responding agent's version string.
type PingReply struct {
	Version string
}

// ToolchainInfo identifies the compiler a CompileArgs invocation targets,
// mirroring command.Toolchain's exported identity.
type ToolchainInfo struct {
	Path     string
	Identity string
}

// PrecompiledHeader is the optional PCH payload a Compile call may attach,
// matching spec.md §6's "optional precompiled{hash,data}".
type PrecompiledHeader struct {
	Hash string
	Data []byte
}

// CompileArgs is a remote compile request: a toolchain, the already
// canonicalized compiler argv, and the preprocessed source text.
type CompileArgs struct {
	Toolchain        ToolchainInfo
	Argv             []string
	PreprocessedData []byte
	Precompiled      *PrecompiledHeader
}

// OutputInfo is a remote compile's result: the compiler's exit status, its
// captured stdio, and the produced object file content.
type OutputInfo struct {
	Status  int
	Stdout  []byte
	Stderr  []byte
	Content []byte
}

// CompileReply wraps OutputInfo with a string error, since net/rpc must
// gob-encode the reply and the error interface itself isn't registerable.
type CompileReply struct {
	Output *OutputInfo
	Err    string
}

// CompileHandler performs the actual remote compile; Service.Compile is a
// thin net/rpc adapter over one of these.
type CompileHandler func(args *CompileArgs) (*OutputInfo, error)

// Service is the net/rpc receiver registered by Server. Ping always
// succeeds; if Handler is nil (the default for a coordinator that only
// advertises liveness), Compile does nothing but report an error message in
// CompileReply.Err, returning a nil RPC error.
type Service struct {
	Version string
	Handler CompileHandler
}

func (s *Service) Ping(args *PingArgs, reply *PingReply) error {
	reply.Version = s.Version
	return nil
}

func (s *Service) Compile(args *CompileArgs, reply *CompileReply) error {
	if s.Handler == nil {
		reply.Err = "coordinator: no compile handler registered"
		return nil
	}
	out, err := s.Handler(args)
	if err != nil {
		reply.Err = err.Error()
		return nil
	}
	reply.Output = out
	return nil
}
