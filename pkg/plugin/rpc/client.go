package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"

	"github.com/unionlabs/voyager/pkg/opqueue"
	"github.com/unionlabs/voyager/pkg/plugin"
)

// Client adapts a remote plugin server back into the plugin.Plugin
// interface, so the Router never distinguishes an in-process plugin from
// an out-of-process one reached over JSON-RPC.
type Client struct {
	conn *rpc.Client
	info plugin.Info
}

// Dial connects to addr over network, both passed unchanged to net.Dial
// (e.g. "tcp" with host:port, or "unix" with a socket path), and fetches
// the remote plugin's Info once up front.
func Dial(network, addr string) (*Client, error) {
	conn, err := net.Dial(network, addr)
	if err != nil {
		return nil, fmt.Errorf("rpc: dial plugin at %s: %w", addr, err)
	}
	client := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	c := &Client{conn: client}

	var reply InfoReply
	if err := client.Call("Plugin.Info", InfoArgs{}, &reply); err != nil {
		client.Close()
		return nil, fmt.Errorf("rpc: fetch info from %s: %w", addr, err)
	}
	c.info = plugin.Info{Name: reply.Name, InterestFilter: reply.InterestFilter}
	return c, nil
}

func (c *Client) Info() plugin.Info { return c.info }

func (c *Client) Call(_ context.Context, call opqueue.CallOp) (opqueue.Op, error) {
	var reply CallReply
	if err := c.conn.Call("Plugin.Call", CallArgs{Call: call}, &reply); err != nil {
		return opqueue.Op{}, translateError(err)
	}
	return reply.Op, nil
}

func (c *Client) RunPass(_ context.Context, ops []opqueue.Op) ([]opqueue.Op, error) {
	var reply RunPassReply
	if err := c.conn.Call("Plugin.RunPass", RunPassArgs{Ops: ops}, &reply); err != nil {
		return nil, translateError(err)
	}
	return reply.Ops, nil
}

func (c *Client) Callback(_ context.Context, name string, effect opqueue.EffectOp) (opqueue.Op, error) {
	var reply CallbackReply
	if err := c.conn.Call("Plugin.Callback", CallbackArgs{Name: name, Effect: effect}, &reply); err != nil {
		return opqueue.Op{}, translateError(err)
	}
	return reply.Op, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// translateError turns the JSON-encoded Error a Server method returned
// back into either an *opqueue.TransientError (Code == CodeTransient, so
// the Worker's isTransient check retries it) or a plain error.
func translateError(err error) error {
	var rpcErr Error
	if jsonErr := json.Unmarshal([]byte(err.Error()), &rpcErr); jsonErr == nil {
		if rpcErr.Code == CodeTransient {
			return &opqueue.TransientError{Err: fmt.Errorf("%s", rpcErr.Message)}
		}
		return fmt.Errorf("%s", rpcErr.Message)
	}
	return err
}

var _ plugin.Plugin = (*Client)(nil)
