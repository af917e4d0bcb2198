package workload

// Tags of the default suite. CheckTag is used by the verification pass.
const (
	BubbleTag = "b"
	QuickTag  = "q"
	MergeTag  = "m"
	IndexTag  = "i"
	CheckTag  = "check"
)

// DefaultSuite returns the four sorts over disjoint ranges of an address
// space of numWords words:
//
//	bubble sort [0, n/256)
//	merge sort  [n/4, n/2)
//	quicksort   [n/2, 3n/4)
//	index sort  [3n/4, 3n/4 + n/256)
//
// The quadratic sorts get the short ranges.
func DefaultSuite(numWords uint64) []Workload {
	n := numWords
	short := n / 256

	return []Workload{
		NewBubbleSort(BubbleTag, Range{Start: 0, End: short}),
		NewQuickSort(QuickTag, Range{Start: n / 2, End: n / 4 * 3}),
		NewMergeSort(MergeTag, Range{Start: n / 4, End: n / 2}),
		NewIndexSort(IndexTag, Range{Start: n / 4 * 3, End: n/4*3 + short}),
	}
}
