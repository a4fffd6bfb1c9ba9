package ingest

import (
	"fmt"
)

// IngestionStats holds metrics about one source run.
type IngestionStats struct {
	TotalFound int
	TotalSaved int
	Errors     int
}

// StrategyFactory maps strategy IDs (from platforms.yaml) to implementations.
type StrategyFactory struct {
	strategies map[string]Strategy
}

func NewStrategyFactory() *StrategyFactory {
	return &StrategyFactory{
		strategies: make(map[string]Strategy),
	}
}

func (f *StrategyFactory) Register(id string, strategy Strategy) {
	f.strategies[id] = strategy
}

func (f *StrategyFactory) Get(id string) (Strategy, error) {
	strategy, ok := f.strategies[id]
	if !ok {
		return nil, fmt.Errorf("strategy not found: %s", id)
	}
	return strategy, nil
}

// Global factory instance
var GlobalStrategyFactory = NewStrategyFactory()

func init() {
	GlobalStrategyFactory.Register("api_json", &APIStrategy{})
	GlobalStrategyFactory.Register("dom_options", &DOMOptionsStrategy{})
	GlobalStrategyFactory.Register("browser", &BrowserStrategy{})
	GlobalStrategyFactory.Register("probe", &ProbeStrategy{})
}
