package proxy

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

// Matcher describes a clone-bytecode pattern: a fixed prologue immediately followed by the 20-byte address of the
// implementation, optionally followed by a fixed epilogue.
type Matcher struct {
	// Name identifies the matcher in detections.
	Name string

	// Anchored describes whether the prologue must start at offset zero. Otherwise it may occur anywhere.
	Anchored bool

	// Prologue is the byte sequence preceding the embedded address.
	Prologue []byte

	// Epilogue is the byte sequence expected after the embedded address, if any.
	Epilogue []byte

	// ExactLength is the total code length of the canonical form, or zero if unconstrained. When both Epilogue and
	// ExactLength are set, satisfying either is sufficient.
	ExactLength int
}

// Match returns the implementation address embedded in code if it matches the pattern. A zero embedded address is
// never a match.
func (m Matcher) Match(code []byte) (common.Address, bool) {
	start := 0
	if m.Anchored {
		if !bytes.HasPrefix(code, m.Prologue) {
			return common.Address{}, false
		}
	} else {
		start = bytes.Index(code, m.Prologue)
		if start < 0 {
			return common.Address{}, false
		}
	}

	addrStart := start + len(m.Prologue)
	addrEnd := addrStart + common.AddressLength
	if addrEnd > len(code) {
		return common.Address{}, false
	}

	if len(m.Epilogue) > 0 || m.ExactLength > 0 {
		epilogueOK := len(m.Epilogue) > 0 && bytes.HasPrefix(code[addrEnd:], m.Epilogue)
		lengthOK := m.ExactLength > 0 && len(code) == m.ExactLength
		if !epilogueOK && !lengthOK {
			return common.Address{}, false
		}
	}

	addr := common.BytesToAddress(code[addrStart:addrEnd])
	if addr == (common.Address{}) {
		return common.Address{}, false
	}
	return addr, true
}

// DefaultCloneMatchers describes the clone patterns tried by DetectClone, in priority order.
var DefaultCloneMatchers = []Matcher{
	{
		// EIP-1167 minimal proxy
		Name:        "eip1167",
		Anchored:    true,
		Prologue:    common.FromHex("363d3d373d3d3d363d73"),
		Epilogue:    common.FromHex("5af43d82803e903d91602b57fd5bf3"),
		ExactLength: 45,
	},
	{
		// Vyper create_forwarder_to
		Name:     "vyper-forwarder",
		Anchored: false,
		Prologue: common.FromHex("366000600037611000600036600073"),
	},
}

// DetectClone tries DefaultCloneMatchers against code in order and returns the detection of the first that matches.
func DetectClone(code []byte) (Detection, bool) {
	return detectClone(DefaultCloneMatchers, code)
}

func detectClone(matchers []Matcher, code []byte) (Detection, bool) {
	for _, matcher := range matchers {
		if addr, ok := matcher.Match(code); ok {
			return Detection{
				IsProxy:        true,
				Type:           TypeCloneMinimal,
				Implementation: &addr,
				Matcher:        matcher.Name,
			}, true
		}
	}
	return NoDetection(), false
}
