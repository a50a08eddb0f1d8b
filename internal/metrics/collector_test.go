package metrics

import (
	"testing"
	"time"
)

func TestCollector_RecordTiming(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpEmbedding, 10*time.Millisecond)
	c.RecordTiming(OpEmbedding, 30*time.Millisecond)
	c.RecordTiming(OpVectorQuery, 5*time.Millisecond)

	snap := c.Snapshot()
	if snap.Embedding == nil {
		t.Fatal("Embedding snapshot is nil")
	}
	if snap.Embedding.Count != 2 {
		t.Errorf("Count = %d, want 2", snap.Embedding.Count)
	}
	if snap.Embedding.MinTimeMs != 10 || snap.Embedding.MaxTimeMs != 30 {
		t.Errorf("min/max = %d/%d, want 10/30", snap.Embedding.MinTimeMs, snap.Embedding.MaxTimeMs)
	}
	if snap.Embedding.AvgTimeMs != 20 {
		t.Errorf("AvgTimeMs = %f, want 20", snap.Embedding.AvgTimeMs)
	}

	if snap.VectorQuery == nil || snap.VectorQuery.Count != 1 {
		t.Errorf("VectorQuery = %+v, want count 1", snap.VectorQuery)
	}
	if snap.Completion != nil {
		t.Errorf("Completion = %+v, want nil with no data", snap.Completion)
	}
}

func TestCollector_NilIsNoOp(t *testing.T) {
	var c *Collector
	c.RecordTiming(OpCompletion, time.Second)

	snap := c.Snapshot()
	if snap.Completion != nil {
		t.Errorf("nil collector snapshot = %+v, want zero", snap)
	}
}

func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				c.RecordTiming(OpEpisodeIngest, time.Millisecond)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	snap := c.Snapshot()
	if snap.EpisodeIngest == nil || snap.EpisodeIngest.Count != 800 {
		t.Errorf("EpisodeIngest = %+v, want count 800", snap.EpisodeIngest)
	}
}
