package rpc

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

// maxRetries describes how many attempts are made for a request before its error is reported.
const maxRetries = 3

// retryDelay describes the base delay between attempts. The n-th retry waits n times this value.
const retryDelay = 100 * time.Millisecond

// ClientPool dispatches JSON-RPC requests round-robin over a fixed set of clients. Identical requests which are in
// flight at the same time are only sent once, and every caller receives the shared result. Shared requests run under
// the pool's own context, so one caller giving up never fails the others. Closing the pool aborts them.
type ClientPool struct {
	rpcClients       []*rpc.Client
	currentClientIdx int
	clientLock       sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	inflightRequests map[requestKey]*inflightRequest
	inflightLock     sync.Mutex

	endpoint   string
	maxRetries int
}

// NewClientPool dials poolSize clients to the provided endpoint.
func NewClientPool(endpoint string, poolSize uint) (*ClientPool, error) {
	if poolSize == 0 {
		return nil, errors.New("rpc pool size must be a positive number")
	}

	clients := make([]*rpc.Client, poolSize)
	for i := range clients {
		client, err := rpc.Dial(endpoint)
		if err != nil {
			for _, dialed := range clients[:i] {
				dialed.Close()
			}
			return nil, errors.Wrapf(err, "could not dial rpc endpoint %s", endpoint)
		}
		clients[i] = client
	}
	return NewClientPoolFromClients(endpoint, clients...), nil
}

// NewClientPoolFromClients creates a ClientPool over already connected clients. At least one client must be provided.
func NewClientPoolFromClients(endpoint string, clients ...*rpc.Client) *ClientPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &ClientPool{
		rpcClients:       clients,
		ctx:              ctx,
		cancel:           cancel,
		inflightRequests: make(map[requestKey]*inflightRequest),
		endpoint:         endpoint,
		maxRetries:       maxRetries,
	}
}

// Endpoint returns the endpoint the pool's clients are connected to.
func (c *ClientPool) Endpoint() string {
	return c.endpoint
}

// ExecuteRequestBlocking sends a request and waits for its result, decoding it into result.
func (c *ClientPool) ExecuteRequestBlocking(ctx context.Context, result any, method string, args ...any) error {
	pending, err := c.ExecuteRequestAsync(ctx, method, args...)
	if err != nil {
		return err
	}
	return pending.GetResultBlocking(ctx, result)
}

// ExecuteRequestAsync sends a request, or joins an identical request already in flight, and returns a PendingResult
// for it. The provided context only gates whether the request is made: the request itself is not bound to it, and
// each caller observes its own cancellation through PendingResult.GetResultBlocking.
func (c *ClientPool) ExecuteRequestAsync(ctx context.Context, method string, args ...any) (*PendingResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	key, err := makeRequestKey(method, args...)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	c.inflightLock.Lock()
	defer c.inflightLock.Unlock()
	if inflight, exists := c.inflightRequests[key]; exists {
		return newPendingResult(inflight), nil
	}

	inflight := &inflightRequest{
		Done: make(chan struct{}),
	}
	c.inflightRequests[key] = inflight
	go c.launchRequest(c.getClient(), key, inflight, method, args...)
	return newPendingResult(inflight), nil
}

func (c *ClientPool) getClient() *rpc.Client {
	c.clientLock.Lock()
	defer c.clientLock.Unlock()

	client := c.rpcClients[c.currentClientIdx]
	c.currentClientIdx = (c.currentClientIdx + 1) % len(c.rpcClients)
	return client
}

func (c *ClientPool) launchRequest(client *rpc.Client, key requestKey, request *inflightRequest, method string, args ...any) {
	defer func() {
		// Completed requests leave the in-flight set so later calls observe fresh chain data
		c.inflightLock.Lock()
		delete(c.inflightRequests, key)
		c.inflightLock.Unlock()
		close(request.Done)
	}()

	var err error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		var result json.RawMessage
		err = client.CallContext(c.ctx, &result, method, args...)
		if err == nil {
			request.Result = result
			return
		}

		// Do not retry once the pool is closed
		select {
		case <-c.ctx.Done():
			request.Error = errors.WithStack(c.ctx.Err())
			return
		case <-time.After(time.Duration(attempt+1) * retryDelay):
		}
	}
	request.Error = errors.Wrapf(err, "%s failed after %d attempts", method, c.maxRetries)
}

// Close aborts every request in flight and closes every client in the pool.
func (c *ClientPool) Close() {
	c.cancel()
	for _, client := range c.rpcClients {
		client.Close()
	}
}
