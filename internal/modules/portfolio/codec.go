package portfolio

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ysncmn/borsapy/internal/domain"
)

// ToDocument exports the portfolio to its flat persisted form, positions
// sorted by symbol.
func (s *Service) ToDocument() Document {
	doc := Document{
		Benchmark: s.benchmark,
		Holdings:  make([]DocumentHolding, 0, len(s.positions)),
	}
	for _, pos := range s.snapshot() {
		doc.Holdings = append(doc.Holdings, DocumentHolding{
			Symbol:       pos.Symbol,
			Shares:       pos.Shares,
			CostPerShare: pos.CostPerShare,
			AssetClass:   string(pos.AssetClass),
		})
	}
	return doc
}

// Restore replaces this portfolio's positions and benchmark with the
// document's contents, in place. Like FromDocument it never resolves
// prices.
func (s *Service) Restore(doc Document) error {
	restored, err := FromDocument(doc, s.resolver, s.rates, s.log)
	if err != nil {
		return err
	}
	s.positions = restored.positions
	s.benchmark = restored.benchmark
	return nil
}

// FromDocument rebuilds a portfolio from its persisted form. Positions
// are restored exactly as stored, without any price resolution, so an
// export/import round trip reproduces an equal portfolio even when cost
// bases are absent.
func FromDocument(doc Document, resolver domain.PriceResolver, rates domain.RateProvider, log zerolog.Logger) (*Service, error) {
	s := NewService(resolver, rates, log)
	if doc.Benchmark != "" {
		s.benchmark = doc.Benchmark
	}
	for _, h := range doc.Holdings {
		if h.Shares <= 0 {
			return nil, &domain.ConfigurationError{
				Param:  "shares",
				Reason: fmt.Sprintf("must be positive for %s, got %.4f", h.Symbol, h.Shares),
			}
		}
		class, err := domain.ParseAssetClass(h.AssetClass)
		if err != nil {
			return nil, fmt.Errorf("failed to restore position %s: %w", h.Symbol, err)
		}
		s.positions[h.Symbol] = Position{
			Symbol:       h.Symbol,
			AssetClass:   class,
			Shares:       h.Shares,
			CostPerShare: h.CostPerShare,
		}
	}
	return s, nil
}
