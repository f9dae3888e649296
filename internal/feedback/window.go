package feedback

// windowCapacity is the number of recent readings the mean is taken over.
const windowCapacity = 10

// window is a fixed-capacity FIFO of recent readings.
// Once full, each append evicts the oldest value. Not safe for
// concurrent use; the Loop serialises access per cube.
type window struct {
	values [windowCapacity]float64
	next   int
	count  int
}

// Append adds a value, evicting the oldest when the window is full.
func (w *window) Append(v float64) {
	w.values[w.next] = v
	w.next = (w.next + 1) % windowCapacity
	if w.count < windowCapacity {
		w.count++
	}
}

// Len returns the number of values currently held.
func (w *window) Len() int {
	return w.count
}

// Mean returns the arithmetic mean of the held values.
// Returns 0 for an empty window.
func (w *window) Mean() float64 {
	if w.count == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < w.count; i++ {
		sum += w.values[i]
	}
	return sum / float64(w.count)
}
