package rpc

import (
	"context"
	"encoding/json"
)

/*
PendingResult defines an object that can be returned when calling the RPC asynchronously. It's kind of like a promise as
seen in other languages.
*/
type PendingResult struct {
	request *inflightRequest
}

func newPendingResult(request *inflightRequest) *PendingResult {
	return &PendingResult{
		request: request,
	}
}

/*
GetResultBlocking obtains the result from the client, blocking until the result or an error is available. Callers must
pass a pointer to their data through result. If the provided context is cancelled first, its error is returned, while
the request itself keeps running for any other waiters.
*/
func (p *PendingResult) GetResultBlocking(ctx context.Context, result any) error {
	select {
	case <-p.request.Done:
		if p.request.Error != nil {
			return p.request.Error
		}
		return json.Unmarshal(p.request.Result, result)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// requestKey defines a struct that can uniquely identify an Ethereum RPC request for request deduplication purposes.
type requestKey struct {
	Method string
	Args   string
}

func makeRequestKey(method string, args ...any) (requestKey, error) {
	serialized, err := json.Marshal(args)
	if err != nil {
		return requestKey{}, err
	}
	return requestKey{Method: method, Args: string(serialized)}, nil
}

// inflightRequest represents an HTTP-JSON request that is currently traversing the network.
type inflightRequest struct {
	// Done is used to signal to each interested caller that the request is completed (possibly with error).
	Done   chan struct{}
	Error  error
	Result json.RawMessage
}
