package library

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/crytic/codetwin/similarity"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLegends() []Legend {
	return []Legend{
		{
			ID:       "erc20",
			Name:     "Plain ERC20",
			Category: "token",
			Chain:    "ethereum",
			Address:  common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"),
			Bytecode: common.FromHex("6080604052348015600f57600080fd5b50603f80601d6000396000f3fe6080604052600080fdfea164"),
		},
		{
			ID:       "router",
			Name:     "Router",
			Category: "dex",
			Bytecode: common.FromHex("608060405260043610610041576000357c0100000000000000000000000000000000"),
		},
		{
			ID:       "empty",
			Name:     "Empty",
			Category: "other",
		},
	}
}

func TestNewLibrary(t *testing.T) {
	t.Parallel()

	lib, err := NewLibrary(context.Background(), testLegends(), similarity.DefaultChunkSize)
	require.NoError(t, err)
	assert.Equal(t, 3, lib.Len())
	assert.Equal(t, similarity.DefaultChunkSize, lib.ChunkSize())

	// Load order is kept
	assert.Equal(t, "erc20", lib.Legends()[0].ID)
	assert.Equal(t, "empty", lib.Legends()[2].ID)

	legend, ok := lib.Get("router")
	require.True(t, ok)
	assert.Equal(t, "dex", legend.Category)
	assert.Equal(t, len(legend.Bytecode), legend.Normalization.OriginalSize)
	assert.NotEmpty(t, legend.Chunks)

	empty, ok := lib.Get("empty")
	require.True(t, ok)
	assert.Empty(t, empty.Chunks)

	_, ok = lib.Get("missing")
	assert.False(t, ok)
}

func TestNewLibraryRejectsBadInput(t *testing.T) {
	t.Parallel()

	legends := testLegends()
	legends[1].ID = legends[0].ID
	_, err := NewLibrary(context.Background(), legends, similarity.DefaultChunkSize)
	assert.Error(t, err)

	legends = testLegends()
	legends[2].ID = ""
	_, err = NewLibrary(context.Background(), legends, similarity.DefaultChunkSize)
	assert.Error(t, err)

	_, err = NewLibrary(context.Background(), testLegends(), 0)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewLibrary(ctx, testLegends(), similarity.DefaultChunkSize)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompareToLibrary(t *testing.T) {
	t.Parallel()

	lib, err := NewLibrary(context.Background(), testLegends(), similarity.DefaultChunkSize)
	require.NoError(t, err)

	for _, legend := range lib.Legends() {
		if len(legend.Bytecode) == 0 {
			continue
		}
		// Every legend is its own best match
		matches := CompareToLibrary(legend.Bytecode, lib)
		require.Len(t, matches, lib.Len())
		assert.Equal(t, legend.ID, matches[0].ID)
		assert.Equal(t, 100.0, matches[0].Score)
		for i := 1; i < len(matches); i++ {
			assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
		}
	}

	// Empty code only fully matches the empty legend
	matches := CompareToLibrary(nil, lib)
	assert.Equal(t, "empty", matches[0].ID)
	assert.Equal(t, 100.0, matches[0].Score)
	assert.Equal(t, 0.0, matches[1].Score)
}

func TestLoadLibraryFromFile(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(testLegends())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "legends.json")
	require.NoError(t, os.WriteFile(path, b, 0644))

	lib, err := LoadLibraryFromFile(context.Background(), path, similarity.DefaultChunkSize)
	require.NoError(t, err)
	assert.Equal(t, 3, lib.Len())
	legend, ok := lib.Get("erc20")
	require.True(t, ok)
	assert.Equal(t, testLegends()[0].Bytecode, legend.Bytecode)
	assert.Equal(t, testLegends()[0].Address, legend.Address)

	_, err = LoadLibraryFromFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"), similarity.DefaultChunkSize)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"not": "a list"}`), 0644))
	_, err = LoadLibraryFromFile(context.Background(), path, similarity.DefaultChunkSize)
	assert.Error(t, err)
}
