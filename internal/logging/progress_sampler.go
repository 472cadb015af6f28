package logging

import "strings"

// ProgressSampler suppresses repetitive progress logs while preserving signal
// when the label or percentage bucket changes. It backs the non-terminal
// progress output, where redrawing a line is not possible.
type ProgressSampler struct {
	bucketSize float64
	lastLabel  string
	lastBucket int
}

// NewProgressSampler constructs a sampler that emits when the percent crosses
// bucket boundaries (default 5%) or when the label changes.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress sample should be logged. A negative
// percent means unknown and only label changes are reported.
func (s *ProgressSampler) ShouldLog(percent float64, label string) bool {
	if s == nil {
		return true
	}
	label = strings.TrimSpace(label)
	emit := false
	if label != "" && label != s.lastLabel {
		s.lastLabel = label
		s.lastBucket = -1
		emit = true
	}
	if percent >= 0 {
		if percent > 100 {
			percent = 100
		}
		bucket := int(percent / s.bucketSize)
		if bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// Reset clears the sampler state.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastLabel = ""
	s.lastBucket = -1
}
