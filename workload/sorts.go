package workload

// BubbleSort sorts with bubble sort. It stops after a pass with no swap.
type BubbleSort struct {
	base
}

// NewBubbleSort creates a bubble sort over r.
func NewBubbleSort(tag string, r Range) *BubbleSort {
	return &BubbleSort{base{tag: tag, name: "Bubble Sort", rng: r}}
}

// Run sorts the range.
func (s *BubbleSort) Run(m Memory) error {
	a := &accessor{m: m, tag: s.tag}
	start, end := s.bounds()

	for last := end - 1; last > start; last-- {
		swapped := false
		for j := start; j < last; j++ {
			x, y := a.get(j), a.get(j+1)
			if x > y {
				a.set(j, y)
				a.set(j+1, x)
				swapped = true
			}
		}

		if a.failed() || !swapped {
			break
		}
	}

	return a.err
}

// MergeSort sorts with a top-down merge sort. The halves being merged are
// copied out of the memory, the merged run is written back.
type MergeSort struct {
	base
}

// NewMergeSort creates a merge sort over r.
func NewMergeSort(tag string, r Range) *MergeSort {
	return &MergeSort{base{tag: tag, name: "Merge Sort", rng: r}}
}

// Run sorts the range.
func (s *MergeSort) Run(m Memory) error {
	a := &accessor{m: m, tag: s.tag}
	start, end := s.bounds()

	s.sort(a, start, end-1)

	return a.err
}

func (s *MergeSort) sort(a *accessor, left, right int) {
	if left >= right || a.failed() {
		return
	}

	mid := left + (right-left)/2
	s.sort(a, left, mid)
	s.sort(a, mid+1, right)
	s.merge(a, left, mid, right)
}

func (s *MergeSort) merge(a *accessor, start, mid, end int) {
	left := make([]int32, mid-start+1)
	right := make([]int32, end-mid)
	for n := range left {
		left[n] = a.get(start + n)
	}
	for n := range right {
		right[n] = a.get(mid + 1 + n)
	}

	i, j, k := 0, 0, start
	for i < len(left) && j < len(right) {
		if left[i] <= right[j] {
			a.set(k, left[i])
			i++
		} else {
			a.set(k, right[j])
			j++
		}
		k++
	}
	for ; i < len(left); i++ {
		a.set(k, left[i])
		k++
	}
	for ; j < len(right); j++ {
		a.set(k, right[j])
		k++
	}
}

// QuickSort sorts with quicksort, using the last element of a partition as
// the pivot.
type QuickSort struct {
	base
}

// NewQuickSort creates a quicksort over r.
func NewQuickSort(tag string, r Range) *QuickSort {
	return &QuickSort{base{tag: tag, name: "Quick Sort", rng: r}}
}

// Run sorts the range.
func (s *QuickSort) Run(m Memory) error {
	a := &accessor{m: m, tag: s.tag}
	start, end := s.bounds()

	s.sort(a, start, end-1)

	return a.err
}

// sort recurses into the smaller partition and loops on the larger one, so
// the stack stays logarithmic on sorted input.
func (s *QuickSort) sort(a *accessor, low, high int) {
	for low < high && !a.failed() {
		p := s.partition(a, low, high)
		if p-low < high-p {
			s.sort(a, low, p-1)
			low = p + 1
		} else {
			s.sort(a, p+1, high)
			high = p - 1
		}
	}
}

func (s *QuickSort) partition(a *accessor, low, high int) int {
	pivot := a.get(high)
	i := low - 1

	for j := low; j < high; j++ {
		if a.get(j) <= pivot {
			i++
			a.swap(i, j)
		}
	}
	a.swap(i+1, high)

	return i + 1
}

// IndexSort places each word directly at its final index, computed by
// counting the smaller words of the range, and follows the displaced word
// around its cycle. It writes every word at most once.
type IndexSort struct {
	base
}

// NewIndexSort creates an index sort over r.
func NewIndexSort(tag string, r Range) *IndexSort {
	return &IndexSort{base{tag: tag, name: "Index Sort", rng: r}}
}

// Run sorts the range.
func (s *IndexSort) Run(m Memory) error {
	a := &accessor{m: m, tag: s.tag}
	start, end := s.bounds()

	for cycleStart := start; cycleStart < end-1 && !a.failed(); cycleStart++ {
		item := a.get(cycleStart)

		pos := s.position(a, item, cycleStart, end)
		if pos == cycleStart {
			continue
		}
		for item == a.get(pos) && !a.failed() {
			pos++
		}
		item = s.put(a, pos, item)

		for pos != cycleStart && !a.failed() {
			pos = s.position(a, item, cycleStart, end)
			for pos != cycleStart && item == a.get(pos) && !a.failed() {
				pos++
			}
			if pos == cycleStart {
				a.set(cycleStart, item)
				break
			}
			item = s.put(a, pos, item)
		}
	}

	return a.err
}

// position returns cycleStart plus the number of words after cycleStart
// smaller than item.
func (s *IndexSort) position(a *accessor, item int32, cycleStart, end int) int {
	pos := cycleStart
	for i := cycleStart + 1; i < end; i++ {
		if a.get(i) < item {
			pos++
		}
	}
	return pos
}

// put stores item at pos and returns the word it replaced.
func (s *IndexSort) put(a *accessor, pos int, item int32) int32 {
	old := a.get(pos)
	a.set(pos, item)
	return old
}
