package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Masterminds/semver"
	"github.com/fxamacker/cbor"
	"github.com/pkg/errors"
)

// maxMetadataLength is the exclusive upper bound on the length declared by a metadata trailer. Larger values are
// treated as ordinary trailing bytes.
const maxMetadataLength = 200

// metadataMapPrefixes defines the leading bytes of the CBOR map encoded in a compiler metadata trailer. The first
// byte is the map header (one or two keys), the second is the text header of the first key.
var metadataMapPrefixes = [][]byte{
	{0xa2, 0x64}, // a2 64 "ipfs" (solc >= 0.6.0)
	{0xa2, 0x65}, // a2 65 "bzzr0" / "bzzr1" (solc >= 0.5.9)
	{0xa1, 0x65}, // a1 65 "bzzr0" (solc <= 0.5.8)
}

// metadataHashPrefixes defines patterns used to locate a metadata trailer when its declared length cannot be trusted.
var metadataHashPrefixes = [][]byte{
	{0xa2, 0x64, 0x69, 0x70, 0x66, 0x73, 0x58, 0x22},       // a2 64 "ipfs" 0x58 0x22
	{0xa2, 0x65, 0x62, 0x7a, 0x7a, 0x72, 0x31, 0x58, 0x20}, // a2 65 "bzzr1" 0x58 0x20
}

// metadataSuffixMarker is the length suffix emitted by current compilers for the ipfs metadata map (51 bytes).
var metadataSuffixMarker = []byte{0x00, 0x33}

// byteCodeHashMetadataKeys defines the keys in the CBOR-encoded ContractMetadata which contain bytecode hashes.
var byteCodeHashMetadataKeys = [...]string{
	"ipfs",
	"bzzr1",
	"bzzr0",
}

// ContractMetadata is a CBOR-encoded structure describing contract information which is embedded within smart contract
// bytecode by the Solidity compiler (unless explicitly directed not to).
// Reference: https://docs.soliditylang.org/en/latest/metadata.html
type ContractMetadata map[string]any

// locateMetadata returns the offset at which the compiler metadata trailer of code begins, or -1 if no trailer could
// be identified.
func locateMetadata(code []byte) int {
	// Primary: trust the big-endian length in the final two bytes if it describes a known CBOR map.
	if len(code) >= 2 {
		declared := int(binary.BigEndian.Uint16(code[len(code)-2:]))
		if declared > 0 && declared < maxMetadataLength && declared+2 <= len(code) {
			offset := len(code) - 2 - declared
			if declared >= 2 {
				for _, prefix := range metadataMapPrefixes {
					if bytes.Equal(code[offset:offset+2], prefix) {
						return offset
					}
				}
			}
		}
	}

	// Fallback: search for the last known hash prefix, provided the code ends with the suffix marker.
	if !bytes.HasSuffix(code, metadataSuffixMarker) {
		return -1
	}
	offset := -1
	for _, prefix := range metadataHashPrefixes {
		if idx := bytes.LastIndex(code, prefix); idx > offset {
			offset = idx
		}
	}
	return offset
}

// StripMetadata removes the compiler metadata trailer from the end of the provided bytecode. It returns the bytecode
// without the trailer along with the amount of bytes removed. If no trailer could be identified, the input is returned
// unchanged with zero bytes removed. The returned slice aliases the input.
func StripMetadata(code []byte) ([]byte, int) {
	offset := locateMetadata(code)
	if offset < 0 {
		return code, 0
	}
	return code[:offset], len(code) - offset
}

// ExtractMetadata decodes the compiler metadata trailer of the provided bytecode. If no trailer could be identified
// or it could not be decoded, nil is returned.
func ExtractMetadata(code []byte) *ContractMetadata {
	offset := locateMetadata(code)
	if offset < 0 {
		return nil
	}

	// Every accepted trailer ends with two length bytes which are not part of the CBOR map.
	var metadata ContractMetadata
	if err := cbor.Unmarshal(code[offset:len(code)-2], &metadata); err != nil {
		return nil
	}
	return &metadata
}

// BytecodeHash returns the content hash (ipfs or swarm) embedded in the metadata, or nil if none exists.
func (m ContractMetadata) BytecodeHash() []byte {
	for _, key := range byteCodeHashMetadataKeys {
		if data, ok := m[key]; ok {
			if hash, ok := data.([]byte); ok {
				return hash
			}
		}
	}
	return nil
}

// CompilerVersion returns the solc version recorded in the metadata. Release builds store the version as three raw
// bytes, prerelease builds store it as a string.
func (m ContractMetadata) CompilerVersion() (*semver.Version, error) {
	data, ok := m["solc"]
	if !ok {
		return nil, errors.New("metadata does not contain a compiler version")
	}

	switch v := data.(type) {
	case []byte:
		if len(v) != 3 {
			return nil, errors.Errorf("compiler version has unexpected length %d", len(v))
		}
		return semver.NewVersion(fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2]))
	case string:
		version, err := semver.NewVersion(v)
		return version, errors.WithStack(err)
	default:
		return nil, errors.Errorf("compiler version has unexpected type %T", data)
	}
}
