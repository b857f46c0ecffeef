package library

import (
	"context"
	"encoding/json"
	"os"
	"runtime"

	"github.com/crytic/codetwin/bytecode"
	"github.com/crytic/codetwin/logging"
	"github.com/crytic/codetwin/similarity"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Library is an immutable collection of preprocessed legends. It is built once and may be shared across goroutines
// without synchronization.
type Library struct {
	// legends describes the processed legends in the order they were provided.
	legends []ProcessedLegend

	// references is the similarity.Reference view of legends, in the same order.
	references []similarity.Reference

	// index maps a legend ID to its position in legends.
	index map[string]int

	// chunkSize is the window size used when chunking legends, and which targets must be chunked with.
	chunkSize int
}

// NewLibrary normalizes and chunks every legend once and returns the resulting Library. Legend IDs must be unique and
// non-empty. Preprocessing is spread across the available CPUs and stops early if the context is cancelled.
func NewLibrary(ctx context.Context, legends []Legend, chunkSize int) (*Library, error) {
	if chunkSize <= 0 {
		return nil, errors.Errorf("chunk size must be a positive number, got %d", chunkSize)
	}

	lib := &Library{
		legends:    make([]ProcessedLegend, len(legends)),
		references: make([]similarity.Reference, len(legends)),
		index:      make(map[string]int, len(legends)),
		chunkSize:  chunkSize,
	}
	for i, legend := range legends {
		if legend.ID == "" {
			return nil, errors.Errorf("legend at index %d has no id", i)
		}
		if _, exists := lib.index[legend.ID]; exists {
			return nil, errors.Errorf("duplicate legend id %q", legend.ID)
		}
		lib.index[legend.ID] = i
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range legends {
		i := i
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			lib.legends[i] = processLegend(legends[i], chunkSize)
			lib.references[i] = lib.legends[i].reference()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.WithStack(err)
	}

	logging.GlobalLogger.NewSubLogger("module", logging.LIBRARY_SERVICE).Debug("Preprocessed ", len(legends), " legends")
	return lib, nil
}

// LoadLibraryFromFile reads a JSON array of legends from the provided path and builds a Library from it.
func LoadLibraryFromFile(ctx context.Context, path string, chunkSize int) (*Library, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var legends []Legend
	if err = json.Unmarshal(b, &legends); err != nil {
		return nil, errors.Wrapf(err, "could not parse legend library %s", path)
	}
	return NewLibrary(ctx, legends, chunkSize)
}

// Len returns the amount of legends in the library.
func (l *Library) Len() int {
	return len(l.legends)
}

// ChunkSize returns the window size the library was chunked with.
func (l *Library) ChunkSize() int {
	return l.chunkSize
}

// Legends returns the processed legends in load order. Callers must not modify the returned slice.
func (l *Library) Legends() []ProcessedLegend {
	return l.legends
}

// Get returns the processed legend with the provided ID, if it exists.
func (l *Library) Get(id string) (*ProcessedLegend, bool) {
	i, ok := l.index[id]
	if !ok {
		return nil, false
	}
	return &l.legends[i], true
}

// CompareNormalized scores already-normalized bytecode against every legend, returning matches ordered by descending
// score.
func (l *Library) CompareNormalized(normalized []byte) []similarity.Match {
	return similarity.Rank(similarity.Chunk(normalized, l.chunkSize), l.references)
}

// CompareToLibrary normalizes raw bytecode and scores it against every legend in the library, returning matches
// ordered by descending score. Ties keep the library's order.
func CompareToLibrary(raw []byte, lib *Library) []similarity.Match {
	return lib.CompareNormalized(bytecode.Normalize(raw).Normalized)
}
