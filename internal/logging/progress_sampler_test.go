package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 5},
		{"default bucket size for negative", -1, 5},
		{"custom bucket size", 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "encode") {
		t.Error("nil sampler should always log")
	}
	s.Reset()
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(10)
	steps := []struct {
		percent float64
		want    bool
	}{
		{0, true},
		{3, false},
		{10, true},
		{19.9, false},
		{25, true},
		{250, true},
		{100, false},
	}
	for _, step := range steps {
		if got := s.ShouldLog(step.percent, "run"); got != step.want {
			t.Fatalf("ShouldLog(%v) = %v, want %v", step.percent, got, step.want)
		}
	}
}

func TestProgressSamplerLabelChangeResetsBucket(t *testing.T) {
	s := NewProgressSampler(10)
	s.ShouldLog(50, "probe")
	if !s.ShouldLog(5, "encode") {
		t.Fatal("label change should emit")
	}
	if !s.ShouldLog(15, "encode") {
		t.Fatal("bucket advance after reset should emit")
	}
	if s.ShouldLog(-1, "encode") {
		t.Fatal("unknown percent with same label should not emit")
	}
}
