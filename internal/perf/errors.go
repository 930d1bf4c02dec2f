package perf

import "errors"

var (
	// ErrAlreadyRunning is returned by Start when the engine is running.
	ErrAlreadyRunning = errors.New("perf: engine already running")

	// ErrNotRunning is returned by Stop, OnBuffer and Tick when the engine
	// is stopped.
	ErrNotRunning = errors.New("perf: engine not running")

	// ErrUnsupported is returned by a CPUSampler that has no way to read CPU
	// counters on this platform.
	ErrUnsupported = errors.New("perf: cpu sampling unsupported on this platform")
)
