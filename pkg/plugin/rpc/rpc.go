// Package rpc implements the plugin wire protocol: info/run_pass/call/
// callback exposed as net/rpc services over JSON-RPC, with the error-code
// convention fixed by this tree's plugin protocol (-1 transient, a
// reserved positive constant fatal). No protobuf/gRPC codegen is involved;
// this is the hand-written house style this tree's HTTP surfaces already
// use, extended to a JSON-RPC service instead of REST since the protocol
// is symmetric (the router calls the plugin, the plugin calls back).
package rpc

import (
	"context"
	"encoding/json"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"

	"github.com/unionlabs/voyager/pkg/opqueue"
	"github.com/unionlabs/voyager/pkg/plugin"
)

// CodeTransient is returned by a plugin method to tell the router this
// failure should be retried rather than treated as fatal.
const CodeTransient = -1

// CodeFatal is returned by a plugin method for an unrecoverable failure;
// reserved so callers can distinguish it from an arbitrary positive
// application error code.
const CodeFatal = 1

// Error is the JSON-RPC error shape a plugin method returns.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// InfoArgs/InfoReply, CallArgs/CallReply, RunPassArgs/RunPassReply,
// CallbackArgs/CallbackReply are the four RPC method signatures every
// plugin server exposes.
type InfoArgs struct{}
type InfoReply struct {
	Name           string        `json:"name"`
	InterestFilter plugin.Filter `json:"interest_filter"`
}

type CallArgs struct {
	Call opqueue.CallOp `json:"call"`
}
type CallReply struct {
	Op opqueue.Op `json:"op"`
}

type RunPassArgs struct {
	Ops []opqueue.Op `json:"ops"`
}
type RunPassReply struct {
	Ops []opqueue.Op `json:"ops"`
}

type CallbackArgs struct {
	Name   string           `json:"name"`
	Effect opqueue.EffectOp `json:"effect"`
}
type CallbackReply struct {
	Op opqueue.Op `json:"op"`
}

// Server adapts a plugin.Plugin to the net/rpc method-set convention
// (exported methods taking (args, *reply) error) so it can be served over
// jsonrpc.
type Server struct {
	impl plugin.Plugin
}

// NewServer wraps impl for RPC serving.
func NewServer(impl plugin.Plugin) *Server { return &Server{impl: impl} }

func (s *Server) Info(_ InfoArgs, reply *InfoReply) error {
	info := s.impl.Info()
	reply.Name = info.Name
	reply.InterestFilter = info.InterestFilter
	return nil
}

func (s *Server) Call(args CallArgs, reply *CallReply) error {
	op, err := s.impl.Call(context.Background(), args.Call)
	if err != nil {
		return wrapError(err)
	}
	reply.Op = op
	return nil
}

func (s *Server) RunPass(args RunPassArgs, reply *RunPassReply) error {
	ops, err := s.impl.RunPass(context.Background(), args.Ops)
	if err != nil {
		return wrapError(err)
	}
	reply.Ops = ops
	return nil
}

func (s *Server) Callback(args CallbackArgs, reply *CallbackReply) error {
	op, err := s.impl.Callback(context.Background(), args.Name, args.Effect)
	if err != nil {
		return wrapError(err)
	}
	reply.Op = op
	return nil
}

// Serve registers impl under the conventional "Plugin" service name and
// accepts JSON-RPC connections on lis until it is closed.
func Serve(lis net.Listener, impl plugin.Plugin) error {
	server := rpc.NewServer()
	if err := server.RegisterName("Plugin", NewServer(impl)); err != nil {
		return err
	}
	for {
		conn, err := lis.Accept()
		if err != nil {
			return err
		}
		go server.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}

func wrapError(err error) error {
	if marshalable, ok := err.(interface{ TransientRPC() bool }); ok && marshalable.TransientRPC() {
		b, _ := json.Marshal(Error{Code: CodeTransient, Message: err.Error()})
		return rpc.ServerError(string(b))
	}
	b, _ := json.Marshal(Error{Code: CodeFatal, Message: err.Error()})
	return rpc.ServerError(string(b))
}
