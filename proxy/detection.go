package proxy

import (
	"github.com/ethereum/go-ethereum/common"
)

// ProxyType describes how a proxy forwards to its implementation.
type ProxyType string

const (
	// TypeNone describes code which is not a proxy.
	TypeNone ProxyType = "none"
	// TypeCloneMinimal describes a clone whose implementation address is embedded in its bytecode.
	TypeCloneMinimal ProxyType = "clone-minimal"
	// TypeStorageSlot describes a proxy whose implementation address is read from the EIP-1967 storage slot.
	TypeStorageSlot ProxyType = "storage-slot"
)

// Detection describes the result of inspecting one contract for proxy behavior.
type Detection struct {
	// IsProxy describes whether the contract forwards to an implementation.
	IsProxy bool `json:"isProxy"`

	// Type describes the proxy pattern detected.
	Type ProxyType `json:"type"`

	// Implementation is the address forwarded to, set only when IsProxy is.
	Implementation *common.Address `json:"implementation,omitempty"`

	// Matcher names the clone matcher that fired, or the storage slot pattern.
	Matcher string `json:"matcher,omitempty"`
}

// NoDetection returns the detection of a contract which is not a proxy.
func NoDetection() Detection {
	return Detection{IsProxy: false, Type: TypeNone}
}

// StopReason describes why a proxy resolution stopped following the chain.
type StopReason string

const (
	// StopNotProxy means the last contract reached is not a proxy.
	StopNotProxy StopReason = "not-proxy"
	// StopMaxDepth means the maximum amount of hops was followed.
	StopMaxDepth StopReason = "max-depth"
	// StopDetectionFailed means the storage slot of the last contract could not be read.
	StopDetectionFailed StopReason = "detection-failed"
	// StopFetchFailed means the code of a detected implementation could not be read.
	StopFetchFailed StopReason = "fetch-failed"
	// StopNoCode means a detected implementation has no code.
	StopNoCode StopReason = "no-code"
	// StopCancelled means the context was cancelled.
	StopCancelled StopReason = "cancelled"
)

// Resolution describes the result of following a proxy chain to its final implementation.
type Resolution struct {
	// Address is the address of the last contract reached.
	Address common.Address `json:"address"`

	// Bytecode is the runtime bytecode of the last contract reached.
	Bytecode []byte `json:"-"`

	// Detection is the last proxy detection made along the chain, or NoDetection if none was.
	Detection Detection `json:"detection"`

	// Hops is the amount of implementations successfully followed.
	Hops int `json:"hops"`

	// Stopped describes why the chain was not followed further.
	Stopped StopReason `json:"stopped"`
}

// Failed returns whether the resolution stopped because of a chain read failure.
func (r Resolution) Failed() bool {
	return r.Stopped == StopDetectionFailed || r.Stopped == StopFetchFailed
}
