// Package race implements a six-runner exacta race book: a strength-weighted
// outcome engine, a fixed-point probability model, a hand-tuned odds table,
// and the wager and balance bookkeeping that settles winning exactas against
// it.
//
// The main type is Engine, which owns the lifecycle of exactly one race at a
// time (accepting -> running -> finished -> closed -> reset) and gates every
// operation on that lifecycle.
//
// # Determinism
//
// The outcome draw is intentionally reproducible: the caller supplies a
// 64-bit seed and the draw threads a single linear congruential generator
// through the whole race, so equal seeds produce bit-identical finish orders,
// finish times and winning pairs:
//
//	e := race.NewEngine("operator", store.NewMemoryStore(), logger, quartz.NewReal())
//	_ = e.StartRace("operator", 12345)
//	outcome, _ := e.RunRace()
//	payouts, _ := e.Settle()
//
// The probability side (ExactaProbability, ProbabilityTable) is a display and
// audit surface only; the draw samples raw strengths and never consumes it.
package race
