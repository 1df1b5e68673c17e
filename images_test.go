package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculatePreloadIndices(t *testing.T) {
	pm := &PreloadManager{maxPreload: 4}

	tests := []struct {
		name      string
		current   int
		direction NavigationDirection
		count     int
		expected  []int
	}{
		{"Forward mid-set", 2, NavigationForward, 10, []int{3, 4, 5, 6}},
		{"Forward near end", 8, NavigationForward, 10, []int{9}},
		{"Forward at end", 9, NavigationForward, 10, nil},
		{"Backward mid-set", 5, NavigationBackward, 10, []int{4, 3, 2, 1}},
		{"Backward near start", 1, NavigationBackward, 10, []int{0}},
		{"Jump spreads both ways", 5, NavigationJump, 10, []int{6, 7, 4, 3}},
		{"Jump near start", 0, NavigationJump, 10, []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pm.calculatePreloadIndices(tt.current, tt.direction, tt.count))
		})
	}
}

func TestPreloadStatsQueueSize(t *testing.T) {
	pm := &PreloadManager{requestChan: make(chan PreloadRequest, 8)}
	pm.requestChan <- PreloadRequest{Index: 1, Direction: NavigationForward}
	pm.requestChan <- PreloadRequest{Index: 2, Direction: NavigationForward}

	assert.Equal(t, 2, pm.GetStats().QueueSize)

	<-pm.requestChan
	assert.Equal(t, 1, pm.GetStats().QueueSize)
}

func TestPreloadSummary(t *testing.T) {
	s := PreloadStats{LoadedCount: 12, FailedCount: 1, QueueSize: 3}
	assert.Equal(t, "preload: 12 loaded, 1 failed, 3 queued", preloadSummary(s))
}
