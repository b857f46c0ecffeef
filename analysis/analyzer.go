package analysis

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/crytic/codetwin/bytecode"
	"github.com/crytic/codetwin/cache"
	"github.com/crytic/codetwin/chain"
	"github.com/crytic/codetwin/library"
	"github.com/crytic/codetwin/logging"
	"github.com/crytic/codetwin/logging/colors"
	"github.com/crytic/codetwin/metrics"
	"github.com/crytic/codetwin/proxy"
	"github.com/crytic/codetwin/similarity"
	"github.com/crytic/codetwin/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// Config describes the tunables of an Analyzer.
type Config struct {
	// MaxProxyDepth describes the maximum amount of proxy hops followed.
	MaxProxyDepth int

	// TopMatches describes how many of the best matches are kept in reports.
	TopMatches int

	// MatchThreshold describes the score at or above which the best match makes a contract a clone.
	MatchThreshold float64

	// Rand is the random source verdicts are picked with. If nil, a time-seeded source is used.
	Rand *rand.Rand
}

// ComparisonCache describes the result cache used by an Analyzer: the best matches of a normalized bytecode.
type ComparisonCache = cache.ResultCache[[]similarity.Match]

// Analyzer runs the analysis pipeline: fetch, proxy resolution, normalization, cache lookup, and comparison against the
// library. It is safe for concurrent use.
type Analyzer struct {
	backend  chain.Backend
	detector *proxy.Detector
	library  *library.Library
	cache    *ComparisonCache
	metrics  *metrics.Metrics
	config   Config

	rngLock sync.Mutex
	rng     *rand.Rand

	logger *logging.Logger

	// Events describes the event emitters of the analyzer. Handlers run on the analyzing goroutine.
	Events AnalyzerEvents
}

// NewAnalyzer creates an Analyzer. The cache and metrics may be nil, in which case nothing is cached or recorded.
func NewAnalyzer(backend chain.Backend, lib *library.Library, resultCache *ComparisonCache, m *metrics.Metrics, config Config) *Analyzer {
	if config.MaxProxyDepth <= 0 {
		config.MaxProxyDepth = proxy.DefaultMaxDepth
	}
	rng := config.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if resultCache == nil {
		resultCache = cache.New[[]similarity.Match](cache.DefaultCapacity, false)
	}

	return &Analyzer{
		backend:  backend,
		detector: proxy.NewDetector(backend),
		library:  lib,
		cache:    resultCache,
		metrics:  m,
		config:   config,
		rng:      rng,
		logger:   logging.GlobalLogger.NewSubLogger("module", logging.ANALYSIS_SERVICE),
	}
}

// Cache returns the analyzer's result cache.
func (a *Analyzer) Cache() *ComparisonCache {
	return a.cache
}

// Analyze fetches the code at the provided hex address and analyzes it. The address is validated before any chain
// read, returning ErrInvalidAddress if malformed. A failure to read the code returns a FetchError, which matches
// ErrFetchBytecode. Failures later in the proxy chain never fail the analysis.
func (a *Analyzer) Analyze(ctx context.Context, address string) (*Report, error) {
	start := time.Now()
	report, logger := a.newReport()

	addr, err := utils.HexStringToAddress(address)
	if err != nil {
		err = errors.Wrapf(ErrInvalidAddress, "%q", address)
		a.complete(nil, err, start)
		return nil, err
	}
	report.Address = addr
	logger.Debug("Analyzing ", colors.Bold, addr.Hex(), colors.Reset)

	code, err := a.backend.GetCode(ctx, addr)
	if err != nil {
		a.metrics.ObserveRPCFailure(metrics.StageInitial)
		logger.Error("Failed to fetch bytecode of ", addr.Hex(), err)
		err = newFetchError(addr, err)
		a.complete(nil, err, start)
		return nil, err
	}

	a.analyze(ctx, logger, report, addr, code)
	a.complete(report, nil, start)
	return report, nil
}

// AnalyzeBytecode analyzes raw runtime bytecode which is not read from the chain. Proxy implementations it forwards
// to are still read from the analyzer's backend.
func (a *Analyzer) AnalyzeBytecode(ctx context.Context, code []byte) (*Report, error) {
	start := time.Now()
	report, logger := a.newReport()
	logger.Debug("Analyzing ", len(code), " bytes of raw bytecode")

	a.analyze(ctx, logger, report, common.Address{}, code)
	a.complete(report, nil, start)
	return report, nil
}

func (a *Analyzer) newReport() (*Report, *logging.Logger) {
	requestID := uuid.NewString()
	return &Report{RequestID: requestID, Matches: []similarity.Match{}}, a.logger.NewSubLogger("request", requestID)
}

// analyze runs every stage following the initial fetch, filling in report.
func (a *Analyzer) analyze(ctx context.Context, logger *logging.Logger, report *Report, addr common.Address, code []byte) {
	if len(code) == 0 {
		logger.Info(colors.Bold, addr.Hex(), colors.Reset, " has no code")
		report.NoCode = true
		report.Resolution = proxy.Resolution{Address: addr, Detection: proxy.NoDetection(), Stopped: proxy.StopNotProxy}
		report.Verdict = Verdict(0, nil)
		return
	}

	resolution := a.detector.Resolve(ctx, addr, code, a.config.MaxProxyDepth)
	report.Resolution = resolution
	if resolution.Failed() {
		a.metrics.ObserveRPCFailure(metrics.StageResolution)
	}
	proxyType := ""
	if resolution.Detection.IsProxy {
		proxyType = string(resolution.Detection.Type)
		logger.Info(addr.Hex(), " resolved through ", resolution.Hops, " proxy hop(s) to ", colors.Bold,
			resolution.Address.Hex(), colors.Reset)
		a.Events.ProxyResolved.Publish(ProxyResolvedEvent{RequestID: report.RequestID, Address: addr, Resolution: resolution})
	}
	a.metrics.ObserveResolution(resolution.Hops, proxyType)

	report.Normalization = bytecode.Normalize(resolution.Bytecode)
	normalized := report.Normalization.Normalized
	report.Fingerprint = cache.Fingerprint(normalized)
	if metadata := bytecode.ExtractMetadata(resolution.Bytecode); metadata != nil {
		if version, err := metadata.CompilerVersion(); err == nil {
			report.CompilerVersion = version.String()
		}
	}

	if entry, ok := a.cache.Get(normalized); ok {
		a.metrics.ObserveCacheLookup(true)
		report.Matches = slices.Clone(entry.Value)
		report.Cached = true
		logger.Debug("Using cached comparison ", report.Fingerprint.Hex(), logging.StructuredLogInfo{"hits": entry.Hits})
	} else {
		a.metrics.ObserveCacheLookup(false)
		report.Matches = similarity.Top(a.library.CompareNormalized(normalized), a.config.TopMatches)
		a.cache.Set(normalized, slices.Clone(report.Matches))
	}

	best := report.BestScore()
	report.IsClone = len(report.Matches) > 0 && best >= a.config.MatchThreshold
	a.rngLock.Lock()
	report.Verdict = Verdict(best, a.rng)
	a.rngLock.Unlock()

	if report.IsClone {
		match, _ := report.BestMatch()
		logger.Info(colors.Bold, resolution.Address.Hex(), colors.Reset, " is a clone of ", colors.RedBold, match.Name,
			colors.Reset, " (", match.Score, "%)")
	}
}

// complete records the metrics of a finished analysis and publishes its completion event.
func (a *Analyzer) complete(report *Report, err error, start time.Time) {
	duration := time.Since(start)
	label := metrics.OutcomeFailed
	if err == nil {
		label = outcome(report)
	}
	a.metrics.ObserveAnalysis(label, duration.Seconds())
	a.Events.AnalysisCompleted.Publish(AnalysisCompletedEvent{Report: report, Err: err, Duration: duration})
}

// outcome returns the metrics outcome label of a report.
func outcome(report *Report) string {
	switch {
	case report.NoCode:
		return metrics.OutcomeNoCode
	case report.IsClone:
		return metrics.OutcomeClone
	case report.Cached:
		return metrics.OutcomeCached
	default:
		return metrics.OutcomeUnique
	}
}
