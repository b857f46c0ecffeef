package chain

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

// TestMemoryReadCacheRace tests for race conditions between concurrent readers and writers.
func TestMemoryReadCacheRace(t *testing.T) {
	cache := newMemoryReadCache()
	numContracts := 5
	workers := 10
	numOps := 5_000

	var wg sync.WaitGroup
	wg.Add(workers * 2)

	write := func(r *rand.Rand) {
		defer wg.Done()
		for i := 0; i < numOps; i++ {
			addr := common.BytesToAddress([]byte{byte(r.Intn(numContracts))})
			slot := common.BytesToHash([]byte{byte(r.Intn(numContracts))})
			assert.NoError(t, cache.WriteCode(addr, []byte{byte(r.Intn(256))}))
			assert.NoError(t, cache.WriteSlotData(addr, slot, common.BytesToHash([]byte{byte(r.Intn(256))})))
		}
	}

	read := func(r *rand.Rand) {
		defer wg.Done()
		for i := 0; i < numOps; i++ {
			addr := common.BytesToAddress([]byte{byte(r.Intn(numContracts))})
			slot := common.BytesToHash([]byte{byte(r.Intn(numContracts))})
			_, _ = cache.GetCode(addr)
			_, _ = cache.GetSlotData(addr, slot)
		}
	}

	for i := 0; i < workers; i++ {
		go write(rand.New(rand.NewSource(int64(i))))
		go read(rand.New(rand.NewSource(int64(i))))
	}
	wg.Wait()
}

func TestStaticBackend(t *testing.T) {
	t.Parallel()

	backend := NewStaticBackend().
		SetCode(testAddress, []byte{0x01}).
		SetStorageAt(testAddress, testSlot, testWord)
	ctx := context.Background()

	code, err := backend.GetCode(ctx, testAddress)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x01}, code)
	assert.Equal(t, 1, backend.CodeReads(testAddress))

	word, err := backend.GetStorageAt(ctx, testAddress, testSlot)
	assert.NoError(t, err)
	assert.Equal(t, testWord, word)

	backend.SetError(testAddress, assert.AnError)
	_, err = backend.GetCode(ctx, testAddress)
	assert.ErrorIs(t, err, assert.AnError)
	_, err = backend.GetStorageAt(ctx, testAddress, testSlot)
	assert.ErrorIs(t, err, assert.AnError)

	backend.SetError(testAddress, nil)
	_, err = backend.GetCode(ctx, testAddress)
	assert.NoError(t, err)

	code, err = EmptyBackend{}.GetCode(ctx, testAddress)
	assert.NoError(t, err)
	assert.Empty(t, code)
}
