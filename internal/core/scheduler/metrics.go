package scheduler

import "time"

// Metrics describes the frame loop since creation.
type Metrics struct {
	Frames             uint64
	SkippedFrames      uint64
	TotalFrameTime     time.Duration
	AverageFrameTime   time.Duration
	MaxFrameTime       time.Duration
	LastFrameTime      time.Duration
	LastFrameAt        time.Time
	DrawErrors         uint64
	LastDrawError      error
	CompletionsApplied uint64
	Suspends           uint64
	Resumes            uint64
}

func (m *Metrics) recordFrame(at time.Time, took time.Duration) {
	m.Frames++
	m.LastFrameAt = at
	m.LastFrameTime = took
	m.TotalFrameTime += took
	m.AverageFrameTime = m.TotalFrameTime / time.Duration(m.Frames)
	if took > m.MaxFrameTime {
		m.MaxFrameTime = took
	}
}
