package scheduler

// Rescale maps progress within a phase onto a slice of the overall 0..100 range.
// A phase that covers [start, end] reports done/total of its own work; the result
// is the overall percentage. total <= 0 reports the start of the slice.
func Rescale(start, end, done, total int) int {
	if end < start {
		end = start
	}
	if total <= 0 {
		return start
	}
	if done > total {
		done = total
	}
	if done < 0 {
		done = 0
	}
	return start + (end-start)*done/total
}

// ProgressFunc receives overall progress updates in the 0..100 range
type ProgressFunc func(percent int)
