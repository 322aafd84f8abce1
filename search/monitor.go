package search

import (
	"github.com/poiesic/medrank/core"
	"github.com/poiesic/medrank/index"
)

// RankMonitor provides hooks to observe the ranking process.
// Implement this interface to track intermediate steps and results during ranking.
type RankMonitor interface {
	Start(tags []string)
	AfterProjection(query index.Vector)
	ItemScored(itemID string, score float64)
	Finish(results []core.Match)
}

// noopMonitor is a no-op implementation of RankMonitor
type noopMonitor struct{}

var _ RankMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ []string)              {}
func (n *noopMonitor) AfterProjection(_ index.Vector) {}
func (n *noopMonitor) ItemScored(_ string, _ float64) {}
func (n *noopMonitor) Finish(_ []core.Match)          {}
