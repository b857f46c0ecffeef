package chain

import (
	"context"
	"errors"

	"github.com/crytic/codetwin/chain/rpc"
	"github.com/crytic/codetwin/logging"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// latestBlockTag describes the block tag used when reads are not pinned to a height.
const latestBlockTag = "latest"

/*
RPCBackend defines a Backend fetching contract data from a remote JSON-RPC server. Reads are made either at the latest
block, in which case nothing is cached, or at a pinned block height, in which case reads are cached with no expiry,
optionally persisted to disk.
*/
type RPCBackend struct {
	clientPool *rpc.ClientPool
	blockTag   string

	// cache is nil when reading at the latest block.
	cache readCache

	logger *logging.Logger
}

// NewRPCBackend dials poolSize clients to url and returns an RPCBackend reading at the provided height. A zero height
// reads at the latest block. When persist is set and the height is pinned, reads are persisted in a database under
// cacheDir.
func NewRPCBackend(url string, height uint64, poolSize uint, cacheDir string, persist bool) (*RPCBackend, error) {
	clientPool, err := rpc.NewClientPool(url, poolSize)
	if err != nil {
		return nil, err
	}

	var cache readCache
	if height > 0 {
		if persist {
			cache, err = newPersistentReadCache(cacheDir, url, height)
			if err != nil {
				clientPool.Close()
				return nil, err
			}
		} else {
			cache = newMemoryReadCache()
		}
	}
	return newRPCBackend(clientPool, height, cache), nil
}

func newRPCBackend(clientPool *rpc.ClientPool, height uint64, cache readCache) *RPCBackend {
	blockTag := latestBlockTag
	if height > 0 {
		blockTag = hexutil.Uint64(height).String()
	}

	logger := logging.GlobalLogger.NewSubLogger("module", logging.CHAIN_SERVICE)
	logger.Debug("Reading chain data from ", clientPool.Endpoint(), " at block ", blockTag)
	return &RPCBackend{
		clientPool: clientPool,
		blockTag:   blockTag,
		cache:      cache,
		logger:     logger,
	}
}

// BlockTag returns the block tag reads are made at.
func (q *RPCBackend) BlockTag() string {
	return q.blockTag
}

/*
GetCode returns the runtime bytecode at the provided address using eth_getCode.
Note that the Ethereum RPC will return empty code for accounts that do not exist.
Errors may be network errors or a context cancelled error.
*/
func (q *RPCBackend) GetCode(ctx context.Context, addr common.Address) ([]byte, error) {
	if q.cache != nil {
		code, err := q.cache.GetCode(addr)
		if !errors.Is(err, ErrCacheMiss) {
			return code, err
		}
	}

	var code hexutil.Bytes
	if err := q.clientPool.ExecuteRequestBlocking(ctx, &code, "eth_getCode", addr, q.blockTag); err != nil {
		return nil, err
	}

	if q.cache != nil {
		if err := q.cache.WriteCode(addr, code); err != nil {
			q.logger.Warn("Failed to cache code of ", addr.Hex(), err)
		}
	}
	return code, nil
}

/*
GetStorageAt returns data stored in the remote RPC for the given address/slot using eth_getStorageAt.
Note that Ethereum RPC will return zero for slots that have never been written to or are associated with undeployed
contracts.
Errors may be network errors or a context cancelled error.
*/
func (q *RPCBackend) GetStorageAt(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error) {
	if q.cache != nil {
		data, err := q.cache.GetSlotData(addr, slot)
		if !errors.Is(err, ErrCacheMiss) {
			return data, err
		}
	}

	var result hexutil.Bytes
	if err := q.clientPool.ExecuteRequestBlocking(ctx, &result, "eth_getStorageAt", addr, slot, q.blockTag); err != nil {
		return common.Hash{}, err
	}
	data := common.BytesToHash(result)

	if q.cache != nil {
		if err := q.cache.WriteSlotData(addr, slot, data); err != nil {
			q.logger.Warn("Failed to cache storage of ", addr.Hex(), err)
		}
	}
	return data, nil
}

// Close releases the backend's clients and flushes its read cache, if any.
func (q *RPCBackend) Close() error {
	q.clientPool.Close()
	if q.cache != nil {
		return q.cache.Close()
	}
	return nil
}
