package results

// Reason classifies why a run of the analyzer failed.
type Reason string

const (
	// ReasonUnknown is default reason. Occurrences of this reason indicate a
	// failure to identify the reason for an error somewhere.
	ReasonUnknown Reason = "unknown"

	// ReasonLoadingArgs is used when the command line or config file is invalid.
	ReasonLoadingArgs Reason = "loading_args"
	// ReasonMissingReport is used when the run report does not exist.
	ReasonMissingReport Reason = "missing_report"
	// ReasonMalformedReport is used when the run report cannot be decoded.
	ReasonMalformedReport Reason = "malformed_report"
	// ReasonEmptyDataset is used when a statistic is requested over zero records.
	ReasonEmptyDataset Reason = "empty_dataset"
	// ReasonWritingOutput is used when an export could not be written.
	ReasonWritingOutput Reason = "writing_output"
)
