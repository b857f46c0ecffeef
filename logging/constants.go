package logging

// These constants are used to identify the various services that may do some logging
const (
	// ANALYSIS_SERVICE is the constant used to identify the analysis package
	ANALYSIS_SERVICE = "analysis"
	// PROXY_SERVICE is the constant used to identify the proxy package
	PROXY_SERVICE = "proxy"
	// CHAIN_SERVICE is the constant used to identify the chain package
	CHAIN_SERVICE = "chain"
	// LIBRARY_SERVICE is the constant used to identify the library package
	LIBRARY_SERVICE = "library"
	// CLI_SERVICE is the constant used to identify the cmd package
	CLI_SERVICE = "cli"
)
