package backtest

import (
	"sort"

	"github.com/moznion/go-optional"

	"SignalSentinel/internal/model"
)

type accumulator struct {
	kind   model.SignalKind
	count  int
	sums   map[int]float64
	ns     map[int]int
	wins   int
	scored int
}

// Aggregate groups annotated events by kind. Means only include defined
// returns; the win rate is the share of defined returns at winHorizon that
// are strictly positive, in percent. Rows are ordered by count descending,
// ties keep the order in which kinds were first seen. An empty input gives
// a nil result.
func Aggregate(events []model.SignalEvent, horizons []int, winHorizon int) []model.SignalSummary {
	if len(events) == 0 {
		return nil
	}

	var order []*accumulator
	byKind := make(map[model.SignalKind]*accumulator)
	for _, e := range events {
		acc, ok := byKind[e.Kind]
		if !ok {
			acc = &accumulator{kind: e.Kind, sums: map[int]float64{}, ns: map[int]int{}}
			byKind[e.Kind] = acc
			order = append(order, acc)
		}
		acc.count++
		for _, h := range horizons {
			r, ok := e.Returns[h]
			if !ok || r.IsNone() {
				continue
			}
			acc.sums[h] += r.Unwrap()
			acc.ns[h]++
		}
		if r, ok := e.Returns[winHorizon]; ok && r.IsSome() {
			acc.scored++
			if r.Unwrap() > 0 {
				acc.wins++
			}
		}
	}

	summaries := make([]model.SignalSummary, len(order))
	for i, acc := range order {
		means := make(map[int]optional.Option[float64], len(horizons))
		for _, h := range horizons {
			if acc.ns[h] == 0 {
				means[h] = optional.None[float64]()
				continue
			}
			means[h] = optional.Some(acc.sums[h] / float64(acc.ns[h]))
		}
		winRate := optional.None[float64]()
		if acc.scored > 0 {
			winRate = optional.Some(float64(acc.wins) / float64(acc.scored) * 100)
		}
		summaries[i] = model.SignalSummary{
			Kind:        acc.kind,
			Count:       acc.count,
			MeanReturns: means,
			WinRate:     winRate,
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Count > summaries[j].Count
	})
	return summaries
}
