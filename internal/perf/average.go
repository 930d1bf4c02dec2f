package perf

// UpdateAverage folds current into a running mean.
//
// count is the number of samples including current. Returns 0 when count is 0.
func UpdateAverage(count uint64, current, old float64) float64 {
	if count == 0 {
		return 0
	}
	return (float64(count-1)*old + current) / float64(count)
}

// UpdateMovingAverage shifts the mean of a full window of windowSize samples
// by replacing evicted with newSample.
//
// Returns 0 when windowSize is 0, which callers treat as "use UpdateAverage".
func UpdateMovingAverage(windowSize uint32, oldAverage, newSample, evicted float64) float64 {
	if windowSize == 0 {
		return 0
	}
	return oldAverage + (newSample-evicted)/float64(windowSize)
}
