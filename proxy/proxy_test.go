package proxy

import (
	"bytes"
	"context"
	"testing"

	"github.com/crytic/codetwin/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	addrA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	addrB = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	addrC = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

// minimalProxy returns the canonical EIP-1167 code forwarding to target.
func minimalProxy(target common.Address) []byte {
	code := common.FromHex("363d3d373d3d3d363d73")
	code = append(code, target.Bytes()...)
	return append(code, common.FromHex("5af43d82803e903d91602b57fd5bf3")...)
}

// vyperForwarder returns a Vyper forwarder forwarding to target, preceded by a constructor-like prefix.
func vyperForwarder(target common.Address) []byte {
	code := common.FromHex("600b380380600b3d393df3")
	code = append(code, common.FromHex("366000600037611000600036600073")...)
	code = append(code, target.Bytes()...)
	return append(code, common.FromHex("5af4602c57600080fd5b6110006000f3")...)
}

// logicContract returns code large enough and free of DELEGATECALL so that it is never considered a proxy.
func logicContract() []byte {
	return bytes.Repeat([]byte{0x5b}, 300)
}

func implementationWord(target common.Address) common.Hash {
	return common.BytesToHash(target.Bytes())
}

func TestMinimalProxyMatcher(t *testing.T) {
	t.Parallel()

	code := minimalProxy(addrA)
	require.Len(t, code, 45)

	detection, ok := DetectClone(code)
	require.True(t, ok)
	assert.True(t, detection.IsProxy)
	assert.Equal(t, TypeCloneMinimal, detection.Type)
	assert.Equal(t, "eip1167", detection.Matcher)
	assert.Equal(t, addrA, *detection.Implementation)

	// A trailing byte is tolerated while the epilogue is intact
	_, ok = DetectClone(append(minimalProxy(addrA), 0x00))
	assert.True(t, ok)

	// A modified epilogue is tolerated at the canonical length only
	modified := minimalProxy(addrA)
	modified[44] = 0x00
	_, ok = DetectClone(modified)
	assert.True(t, ok)
	_, ok = DetectClone(append(modified, 0x00))
	assert.False(t, ok)

	// The prologue is anchored
	_, ok = DetectClone(append([]byte{0x00}, minimalProxy(addrA)...))
	assert.False(t, ok)

	// Truncated and zero addresses are rejected
	_, ok = DetectClone(minimalProxy(addrA)[:20])
	assert.False(t, ok)
	_, ok = DetectClone(minimalProxy(common.Address{}))
	assert.False(t, ok)
}

func TestVyperForwarderMatcher(t *testing.T) {
	t.Parallel()

	detection, ok := DetectClone(vyperForwarder(addrB))
	require.True(t, ok)
	assert.Equal(t, "vyper-forwarder", detection.Matcher)
	assert.Equal(t, addrB, *detection.Implementation)

	_, ok = DetectClone(vyperForwarder(common.Address{}))
	assert.False(t, ok)

	_, ok = DetectClone(logicContract())
	assert.False(t, ok)
}

func TestMightBeStorageProxy(t *testing.T) {
	t.Parallel()

	assert.True(t, MightBeStorageProxy(nil))
	assert.True(t, MightBeStorageProxy(make([]byte, 199)))
	assert.False(t, MightBeStorageProxy(logicContract()))

	withPrefix := append(common.FromHex("6080604052366100"), logicContract()...)
	assert.True(t, MightBeStorageProxy(withPrefix))
	withPrefix = append(common.FromHex("363d3d37"), logicContract()...)
	assert.True(t, MightBeStorageProxy(withPrefix))

	early := logicContract()
	early[50] = 0xf4
	assert.True(t, MightBeStorageProxy(early))

	late := logicContract()
	late[150] = 0xf4
	assert.False(t, MightBeStorageProxy(late))

	// A 0xf4 inside a push operand is data, not a DELEGATECALL
	inOperand := logicContract()
	inOperand[40] = 0x62 // PUSH3
	inOperand[41] = 0xf4
	inOperand[42] = 0xf4
	inOperand[43] = 0xf4
	assert.False(t, MightBeStorageProxy(inOperand))
}

func TestDetectStorageSlot(t *testing.T) {
	t.Parallel()

	backend := chain.NewStaticBackend()
	detector := NewDetector(backend)
	ctx := context.Background()

	// An unset slot is not a proxy
	detection, err := detector.DetectStorageSlot(ctx, addrA)
	require.NoError(t, err)
	assert.False(t, detection.IsProxy)
	assert.Equal(t, TypeNone, detection.Type)

	// Non-zero words whose address bytes are zero are not a proxy
	backend.SetStorageAt(addrA, EIP1967ImplementationSlot, common.HexToHash("0x0100000000000000000000000000000000000000000000000000000000000000"))
	detection, err = detector.DetectStorageSlot(ctx, addrA)
	require.NoError(t, err)
	assert.False(t, detection.IsProxy)

	backend.SetStorageAt(addrA, EIP1967ImplementationSlot, implementationWord(addrB))
	detection, err = detector.DetectStorageSlot(ctx, addrA)
	require.NoError(t, err)
	assert.True(t, detection.IsProxy)
	assert.Equal(t, TypeStorageSlot, detection.Type)
	assert.Equal(t, addrB, *detection.Implementation)

	backend.SetError(addrA, assert.AnError)
	_, err = detector.DetectStorageSlot(ctx, addrA)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestDetectSkipsSlotForLargeCode(t *testing.T) {
	t.Parallel()

	// The slot read would fail, but large code without proxy traits is never checked
	backend := chain.NewStaticBackend().SetError(addrA, assert.AnError)
	detection, err := NewDetector(backend).Detect(context.Background(), addrA, logicContract())
	require.NoError(t, err)
	assert.False(t, detection.IsProxy)

	// Clone detection needs no chain reads either
	detection, err = NewDetector(backend).Detect(context.Background(), addrA, minimalProxy(addrB))
	require.NoError(t, err)
	assert.True(t, detection.IsProxy)
}

func TestResolveChain(t *testing.T) {
	t.Parallel()

	// A is a clone of B, B is a storage proxy of C, C is the logic
	backend := chain.NewStaticBackend().
		SetCode(addrB, common.FromHex("6080604052366100aabbcc")).
		SetStorageAt(addrB, EIP1967ImplementationSlot, implementationWord(addrC)).
		SetCode(addrC, logicContract())

	resolution := NewDetector(backend).Resolve(context.Background(), addrA, minimalProxy(addrB), DefaultMaxDepth)
	assert.Equal(t, addrC, resolution.Address)
	assert.Equal(t, logicContract(), resolution.Bytecode)
	assert.Equal(t, 2, resolution.Hops)
	assert.Equal(t, TypeStorageSlot, resolution.Detection.Type)
	assert.Equal(t, addrC, *resolution.Detection.Implementation)
	assert.Equal(t, StopNotProxy, resolution.Stopped)
	assert.False(t, resolution.Failed())
}

func TestResolveNotProxy(t *testing.T) {
	t.Parallel()

	resolution := NewDetector(chain.NewStaticBackend()).Resolve(context.Background(), addrA, logicContract(), DefaultMaxDepth)
	assert.Equal(t, addrA, resolution.Address)
	assert.Equal(t, 0, resolution.Hops)
	assert.Equal(t, NoDetection(), resolution.Detection)
	assert.Equal(t, StopNotProxy, resolution.Stopped)
}

func TestResolveCycleTerminates(t *testing.T) {
	t.Parallel()

	// A and B forward to each other
	backend := chain.NewStaticBackend().
		SetCode(addrA, minimalProxy(addrB)).
		SetCode(addrB, minimalProxy(addrA))
	detector := NewDetector(backend)

	resolution := detector.Resolve(context.Background(), addrA, minimalProxy(addrB), 3)
	assert.Equal(t, 3, resolution.Hops)
	assert.Equal(t, addrB, resolution.Address)
	assert.Equal(t, StopMaxDepth, resolution.Stopped)
	assert.Equal(t, 2, backend.CodeReads(addrB))
	assert.Equal(t, 1, backend.CodeReads(addrA))

	resolution = detector.Resolve(context.Background(), addrA, minimalProxy(addrB), 0)
	assert.Equal(t, DefaultMaxDepth, resolution.Hops)
}

func TestResolveMidChainFailure(t *testing.T) {
	t.Parallel()

	// A forwards to B, B forwards to C whose code cannot be fetched
	backend := chain.NewStaticBackend().
		SetCode(addrB, minimalProxy(addrC)).
		SetError(addrC, assert.AnError)

	resolution := NewDetector(backend).Resolve(context.Background(), addrA, minimalProxy(addrB), DefaultMaxDepth)
	assert.Equal(t, addrB, resolution.Address)
	assert.Equal(t, minimalProxy(addrC), resolution.Bytecode)
	assert.Equal(t, 1, resolution.Hops)
	// The detection of the unreachable hop is still reported
	assert.Equal(t, addrC, *resolution.Detection.Implementation)
	assert.Equal(t, StopFetchFailed, resolution.Stopped)
	assert.True(t, resolution.Failed())
}

func TestResolveImplementationWithoutCode(t *testing.T) {
	t.Parallel()

	resolution := NewDetector(chain.NewStaticBackend()).Resolve(context.Background(), addrA, minimalProxy(addrB), DefaultMaxDepth)
	assert.Equal(t, addrA, resolution.Address)
	assert.Equal(t, 0, resolution.Hops)
	assert.True(t, resolution.Detection.IsProxy)
	assert.Equal(t, StopNoCode, resolution.Stopped)
	assert.False(t, resolution.Failed())
}

func TestResolveDetectionFailure(t *testing.T) {
	t.Parallel()

	// Small code triggers a slot read, which fails
	backend := chain.NewStaticBackend().SetError(addrA, assert.AnError)
	resolution := NewDetector(backend).Resolve(context.Background(), addrA, []byte{0x60, 0x00}, DefaultMaxDepth)
	assert.Equal(t, addrA, resolution.Address)
	assert.Equal(t, 0, resolution.Hops)
	assert.False(t, resolution.Detection.IsProxy)
	assert.Equal(t, StopDetectionFailed, resolution.Stopped)
}

func TestResolveCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resolution := NewDetector(chain.NewStaticBackend()).Resolve(ctx, addrA, minimalProxy(addrB), DefaultMaxDepth)
	assert.Equal(t, StopCancelled, resolution.Stopped)
	assert.Equal(t, addrA, resolution.Address)
}
