package journal

import (
	"context"

	"mediakiller/internal/fileutil"
	"mediakiller/internal/mission"
)

// Pending splits missions into those still to run and those a previous run
// already finished. A mission counts as done only when the journal has a
// finished record for it with the same outputs and every output still exists.
func (j *Journal) Pending(ctx context.Context, missions []mission.Mission) (pending, done []mission.Mission, err error) {
	for _, m := range missions {
		key := m.Key()
		rec, ok, err := j.LastFinished(ctx, key.Source, key.PresetID)
		if err != nil {
			return nil, nil, err
		}
		if ok && sameOutputs(rec.Outputs, m.OutputFiles()) {
			done = append(done, m)
			continue
		}
		pending = append(pending, m)
	}
	return pending, done, nil
}

func sameOutputs(recorded, declared []string) bool {
	if len(declared) == 0 || len(recorded) != len(declared) {
		return false
	}
	for i, out := range declared {
		if recorded[i] != out || !fileutil.Exists(out) {
			return false
		}
	}
	return true
}
