package chain

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/crytic/codetwin/chain/rpc"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// testEthService is an in-process stand-in for a node's eth namespace.
type testEthService struct {
	lock    sync.Mutex
	code    map[common.Address]hexutil.Bytes
	storage map[common.Address]map[common.Hash]common.Hash

	// blockTags records the block tag of every request.
	blockTags []string

	// failures describes how many requests fail before requests start succeeding.
	failures atomic.Int32
	calls    atomic.Int32

	// gate, if set, holds every request until it is closed.
	gate chan struct{}
}

func newTestEthService() *testEthService {
	return &testEthService{
		code:    make(map[common.Address]hexutil.Bytes),
		storage: make(map[common.Address]map[common.Hash]common.Hash),
	}
}

func (s *testEthService) record(block string) error {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	s.lock.Lock()
	s.blockTags = append(s.blockTags, block)
	s.lock.Unlock()
	if s.failures.Add(-1) >= 0 {
		return errors.New("node unavailable")
	}
	return nil
}

func (s *testEthService) GetCode(addr common.Address, block string) (hexutil.Bytes, error) {
	if err := s.record(block); err != nil {
		return nil, err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if code, ok := s.code[addr]; ok {
		return code, nil
	}
	return hexutil.Bytes{}, nil
}

func (s *testEthService) GetStorageAt(addr common.Address, slot common.Hash, block string) (common.Hash, error) {
	if err := s.record(block); err != nil {
		return common.Hash{}, err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.storage[addr][slot], nil
}

// newTestClientPool serves the provided service in-process and returns a pool of clients connected to it.
func newTestClientPool(t *testing.T, service *testEthService) *rpc.ClientPool {
	server := gethrpc.NewServer()
	require.NoError(t, server.RegisterName("eth", service))
	t.Cleanup(server.Stop)

	return rpc.NewClientPoolFromClients("inproc", gethrpc.DialInProc(server), gethrpc.DialInProc(server))
}
