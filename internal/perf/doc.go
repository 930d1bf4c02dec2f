// Package perf measures frame rate, bitrate and host CPU load of a stream of
// buffers flowing through a pipeline element.
//
// The Engine is a passive observer: the host hands it the size and arrival
// time of every buffer it forwards, and ticks it periodically. On each tick
// the engine turns the accumulated counters into a Snapshot.
//
// # Basic Usage
//
//	engine := perf.NewEngine(perf.DefaultSettings())
//	if err := engine.Start(); err != nil {
//	    return err
//	}
//	defer engine.Stop()
//
//	// Data path, once per buffer
//	engine.OnBuffer(uint64(len(buf)), time.Now())
//
//	// Timer path, nominally every BitrateInterval milliseconds
//	snap, err := engine.Tick(time.Now())
//	if err == nil && snap != nil {
//	    fmt.Printf("fps=%.2f bps=%.0f mean=%.0f\n", snap.FPS, snap.Bps, snap.MeanBps)
//	}
//
// # Smoothing
//
// MeanBps is the cumulative average over every bitrate sample of the session
// when BitrateWindowSize is 0, or the moving average over the last
// BitrateWindowSize samples otherwise.
//
// # CPU Load
//
// When PrintCPULoad is set, each tick samples the host's cumulative idle and
// total CPU counters through a CPUSampler and reports the busy percentage
// since the previous sample. Platforms without a sampler report no CPU load;
// frame rate and bitrate are unaffected.
//
// # Thread Safety
//
// Engine is safe for concurrent use. The data path and the timer path may
// run on different goroutines; a single mutex guards all state.
package perf
