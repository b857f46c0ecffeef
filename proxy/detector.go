package proxy

import (
	"bytes"
	"context"

	"github.com/crytic/codetwin/bytecode"
	"github.com/crytic/codetwin/chain"
	"github.com/crytic/codetwin/logging"
	"github.com/crytic/codetwin/logging/colors"
	"github.com/crytic/codetwin/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

const (
	// DefaultMaxDepth describes the default maximum amount of proxy hops followed by Resolve.
	DefaultMaxDepth = 3

	// smallCodeSize describes the code size under which any contract is considered a possible storage proxy.
	smallCodeSize = 200

	// delegateCallWindow describes how many leading bytes are searched for a DELEGATECALL instruction.
	delegateCallWindow = 100
)

// EIP1967ImplementationSlot is the storage slot holding the implementation address of an EIP-1967 proxy:
// bytes32(uint256(keccak256("eip1967.proxy.implementation")) - 1).
var EIP1967ImplementationSlot = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc")

var (
	// minimalProxyPrefix is the leading calldatacopy sequence shared by minimal proxies.
	minimalProxyPrefix = common.FromHex("363d3d37")

	// compiledProxyPrefix is the free memory pointer setup followed by a calldatasize check, typical of compiled
	// proxy contracts.
	compiledProxyPrefix = common.FromHex("6080604052366100")
)

// MightBeStorageProxy returns whether code is worth checking for an EIP-1967 implementation slot: small contracts,
// contracts starting with a known proxy prefix, and contracts executing DELEGATECALL early on.
func MightBeStorageProxy(code []byte) bool {
	if len(code) < smallCodeSize {
		return true
	}
	if bytes.HasPrefix(code, minimalProxyPrefix) || bytes.HasPrefix(code, compiledProxyPrefix) {
		return true
	}
	return bytecode.ContainsOpcode(code, byte(vm.DELEGATECALL), delegateCallWindow)
}

// Detector detects proxies and resolves proxy chains, reading contract data from a chain.Backend. It is safe for
// concurrent use if its backend is.
type Detector struct {
	backend  chain.Backend
	matchers []Matcher
	logger   *logging.Logger
}

// NewDetector creates a Detector reading from backend. If no matchers are provided, DefaultCloneMatchers are used.
func NewDetector(backend chain.Backend, matchers ...Matcher) *Detector {
	if len(matchers) == 0 {
		matchers = DefaultCloneMatchers
	}
	return &Detector{
		backend:  backend,
		matchers: matchers,
		logger:   logging.GlobalLogger.NewSubLogger("module", logging.PROXY_SERVICE),
	}
}

// DetectStorageSlot reads the EIP-1967 implementation slot of addr. A non-zero word whose low 20 bytes are not all
// zero is a storage-slot proxy detection. An error is only returned if the slot could not be read.
func (d *Detector) DetectStorageSlot(ctx context.Context, addr common.Address) (Detection, error) {
	word, err := d.backend.GetStorageAt(ctx, addr, EIP1967ImplementationSlot)
	if err != nil {
		return NoDetection(), errors.Wrapf(err, "could not read implementation slot of %s", addr.Hex())
	}

	if new(uint256.Int).SetBytes32(word[:]).IsZero() {
		return NoDetection(), nil
	}
	implementation := common.BytesToAddress(word[common.HashLength-common.AddressLength:])
	if utils.IsZeroAddress(implementation) {
		return NoDetection(), nil
	}
	return Detection{
		IsProxy:        true,
		Type:           TypeStorageSlot,
		Implementation: &implementation,
		Matcher:        "eip1967",
	}, nil
}

// Detect inspects the contract at addr with the provided code. Clone patterns are checked first, then, if the code
// looks like it could be one, the EIP-1967 storage slot. An error is only returned if the slot could not be read.
func (d *Detector) Detect(ctx context.Context, addr common.Address, code []byte) (Detection, error) {
	if detection, ok := detectClone(d.matchers, code); ok {
		return detection, nil
	}
	if !MightBeStorageProxy(code) {
		return NoDetection(), nil
	}
	return d.DetectStorageSlot(ctx, addr)
}

// Resolve follows the proxy chain starting at addr, whose code is provided, for at most maxDepth hops. Resolution
// never fails: when a chain read fails the chain is cut short and what was resolved so far is returned, with Stopped
// describing why. A non-positive maxDepth uses DefaultMaxDepth.
func (d *Detector) Resolve(ctx context.Context, addr common.Address, code []byte, maxDepth int) Resolution {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	resolution := Resolution{
		Address:   addr,
		Bytecode:  code,
		Detection: NoDetection(),
		Stopped:   StopMaxDepth,
	}
	for resolution.Hops < maxDepth {
		if utils.CheckContextDone(ctx) {
			resolution.Stopped = StopCancelled
			break
		}

		detection, err := d.Detect(ctx, resolution.Address, resolution.Bytecode)
		if err != nil {
			d.logger.Warn("Stopped resolving proxy chain at ", colors.Bold, resolution.Address.Hex(), colors.Reset, err,
				logging.StructuredLogInfo{"hops": resolution.Hops})
			resolution.Stopped = StopDetectionFailed
			break
		}
		if !detection.IsProxy {
			resolution.Stopped = StopNotProxy
			break
		}
		resolution.Detection = detection

		implementation := *detection.Implementation
		implementationCode, err := d.backend.GetCode(ctx, implementation)
		if err != nil {
			d.logger.Warn("Could not fetch implementation ", colors.Bold, implementation.Hex(), colors.Reset, err,
				logging.StructuredLogInfo{"hops": resolution.Hops, "proxy": resolution.Address.Hex()})
			resolution.Stopped = StopFetchFailed
			break
		}
		if len(implementationCode) == 0 {
			d.logger.Warn("Implementation ", colors.Bold, implementation.Hex(), colors.Reset, " has no code",
				logging.StructuredLogInfo{"hops": resolution.Hops, "proxy": resolution.Address.Hex()})
			resolution.Stopped = StopNoCode
			break
		}

		d.logger.Debug("Followed ", detection.Type, " proxy ", resolution.Address.Hex(), " to ", implementation.Hex())
		resolution.Address = implementation
		resolution.Bytecode = implementationCode
		resolution.Hops++
	}
	return resolution
}
