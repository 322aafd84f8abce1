// Package batch ranks many queries read from a file against one index
// snapshot, in fixed-size batches, reporting progress as it goes.
package batch
