package batch

import "errors"

var (
	// ErrInvalidBatchSize is returned when BatchSize is <= 0
	ErrInvalidBatchSize = errors.New("batch size must be greater than 0")

	// ErrInvalidReportInterval is returned when ReportInterval is <= 0
	ErrInvalidReportInterval = errors.New("report interval must be greater than 0")
)
