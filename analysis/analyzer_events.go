package analysis

import (
	"time"

	"github.com/crytic/codetwin/events"
	"github.com/crytic/codetwin/proxy"
	"github.com/ethereum/go-ethereum/common"
)

// AnalyzerEvents defines event emitters for an Analyzer.
type AnalyzerEvents struct {
	// ProxyResolved emits events when an analyzed contract was found to be a proxy and its chain was followed.
	ProxyResolved events.EventEmitter[ProxyResolvedEvent]

	// AnalysisCompleted emits events when an analysis finishes, whether or not it succeeded.
	AnalysisCompleted events.EventEmitter[AnalysisCompletedEvent]
}

// ProxyResolvedEvent describes an event where a proxy chain was followed from an analyzed address.
type ProxyResolvedEvent struct {
	// RequestID identifies the analysis the event belongs to.
	RequestID string

	// Address is the analyzed address.
	Address common.Address

	// Resolution describes the followed chain.
	Resolution proxy.Resolution
}

// AnalysisCompletedEvent describes an event where an Analyzer finished an analysis.
type AnalysisCompletedEvent struct {
	// Report is the produced report. It is nil if Err is set.
	Report *Report

	// Err describes the error which failed the analysis, if any.
	Err error

	// Duration is the time the analysis took.
	Duration time.Duration
}
