package ir

// Version constants for the report schema and analyzer.
const (
	// ReportVersion is the report schema version.
	ReportVersion = "1"

	// AnalyzerVersion is the edgy analyzer version.
	AnalyzerVersion = "0.3.0"
)
