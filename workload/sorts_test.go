package workload

import (
	"errors"
	"math/rand"
	"sort"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var errBroken = errors.New("broken memory")

// sliceMemory is a Memory backed by a slice. After failAfter accesses every
// access fails; a negative failAfter never fails.
type sliceMemory struct {
	words     []int32
	failAfter int
	accesses  int
	tags      map[string]int
}

func newSliceMemory(words []int32) *sliceMemory {
	return &sliceMemory{
		words:     words,
		failAfter: -1,
		tags:      make(map[string]int),
	}
}

func (m *sliceMemory) access(tag string) error {
	if m.failAfter >= 0 && m.accesses >= m.failAfter {
		return errBroken
	}
	m.accesses++
	m.tags[tag]++
	return nil
}

func (m *sliceMemory) Get(index uint64, tag string) (int32, error) {
	if err := m.access(tag); err != nil {
		return 0, err
	}
	return m.words[index], nil
}

func (m *sliceMemory) Set(index uint64, value int32, tag string) error {
	if err := m.access(tag); err != nil {
		return err
	}
	m.words[index] = value
	return nil
}

func randomWords(n int, max int32, seed int64) []int32 {
	r := rand.New(rand.NewSource(seed))
	words := make([]int32, n)
	for i := range words {
		words[i] = r.Int31n(max)
	}
	return words
}

type sortFactory func(tag string, r Range) Workload

var factories = map[string]sortFactory{
	"bubble": func(tag string, r Range) Workload { return NewBubbleSort(tag, r) },
	"merge":  func(tag string, r Range) Workload { return NewMergeSort(tag, r) },
	"quick":  func(tag string, r Range) Workload { return NewQuickSort(tag, r) },
	"index":  func(tag string, r Range) Workload { return NewIndexSort(tag, r) },
}

var _ = Describe("Sorts", func() {
	for name, factory := range factories {
		name, factory := name, factory

		Context(name, func() {
			It("should sort its range and leave the rest alone", func() {
				words := randomWords(300, 1<<30, 1)
				want := append([]int32{}, words...)
				sort.Slice(want[50:250], func(i, j int) bool {
					return want[50+i] < want[50+j]
				})
				m := newSliceMemory(words)

				Expect(factory("t", Range{Start: 50, End: 250}).Run(m)).To(Succeed())

				Expect(m.words).To(Equal(want))
				Expect(m.tags).To(HaveKey("t"))
				Expect(m.tags).To(HaveLen(1))
			})

			It("should sort duplicates", func() {
				words := randomWords(128, 4, 2)
				m := newSliceMemory(words)

				Expect(factory("t", Range{Start: 0, End: 128}).Run(m)).To(Succeed())

				Expect(sort.SliceIsSorted(m.words, func(i, j int) bool {
					return m.words[i] < m.words[j]
				})).To(BeTrue())
			})

			It("should handle sorted and reversed input", func() {
				sorted := make([]int32, 64)
				reversed := make([]int32, 64)
				for i := range sorted {
					sorted[i] = int32(i)
					reversed[i] = int32(63 - i)
				}

				m := newSliceMemory(append([]int32{}, sorted...))
				Expect(factory("t", Range{Start: 0, End: 64}).Run(m)).To(Succeed())
				Expect(m.words).To(Equal(sorted))

				m = newSliceMemory(reversed)
				Expect(factory("t", Range{Start: 0, End: 64}).Run(m)).To(Succeed())
				Expect(m.words).To(Equal(sorted))
			})

			It("should accept an empty range", func() {
				m := newSliceMemory(randomWords(8, 100, 3))

				Expect(factory("t", Range{Start: 4, End: 4}).Run(m)).To(Succeed())
				Expect(m.accesses).To(Equal(0))
			})

			It("should stop at the first failed access", func() {
				m := newSliceMemory(randomWords(64, 100, 4))
				m.failAfter = 10

				err := factory("t", Range{Start: 0, End: 64}).Run(m)

				Expect(errors.Is(err, errBroken)).To(BeTrue())
				Expect(m.accesses).To(Equal(10))
			})
		})
	}
})

var _ = Describe("IsSorted", func() {
	It("should accept an ascending range", func() {
		m := newSliceMemory([]int32{9, 1, 2, 2, 5, 0})

		sorted, err := IsSorted(m, Range{Start: 1, End: 5}, CheckTag)

		Expect(err).NotTo(HaveOccurred())
		Expect(sorted).To(BeTrue())
		Expect(m.tags[CheckTag]).To(Equal(4))
	})

	It("should reject a descent", func() {
		m := newSliceMemory([]int32{1, 3, 2})

		sorted, err := IsSorted(m, Range{Start: 0, End: 3}, CheckTag)

		Expect(err).NotTo(HaveOccurred())
		Expect(sorted).To(BeFalse())
	})

	It("should report a failed read", func() {
		m := newSliceMemory([]int32{1, 2, 3})
		m.failAfter = 1

		_, err := IsSorted(m, Range{Start: 0, End: 3}, CheckTag)

		Expect(errors.Is(err, errBroken)).To(BeTrue())
	})
})

var _ = Describe("DefaultSuite", func() {
	It("should lay the sorts over disjoint ranges", func() {
		suite := DefaultSuite(1 << 20)

		Expect(suite).To(HaveLen(4))
		Expect(suite[0].Range()).To(Equal(Range{Start: 0, End: 4096}))
		Expect(suite[1].Range()).To(Equal(Range{Start: 1 << 19, End: 3 << 18}))
		Expect(suite[2].Range()).To(Equal(Range{Start: 1 << 18, End: 1 << 19}))
		Expect(suite[3].Range()).To(Equal(
			Range{Start: 3 << 18, End: 3<<18 + 4096}))

		for i, w := range suite {
			Expect(w.Range().End).To(BeNumerically("<=", 1<<20))
			for _, o := range suite[:i] {
				Expect(w.Range().Overlaps(o.Range())).To(BeFalse())
				Expect(w.Tag()).NotTo(Equal(o.Tag()))
			}
		}
	})

	It("should name the sorts", func() {
		names := []string{}
		for _, w := range DefaultSuite(1024) {
			names = append(names, w.Name())
		}

		Expect(names).To(Equal([]string{
			"Bubble Sort", "Quick Sort", "Merge Sort", "Index Sort"}))
	})
})

var _ = Describe("Range", func() {
	It("should measure and compare ranges", func() {
		Expect(Range{Start: 3, End: 7}.Len()).To(Equal(uint64(4)))
		Expect(Range{Start: 7, End: 3}.Len()).To(Equal(uint64(0)))
		Expect(Range{0, 4}.Overlaps(Range{3, 8})).To(BeTrue())
		Expect(Range{0, 4}.Overlaps(Range{4, 8})).To(BeFalse())
		Expect(Range{2, 2}.Overlaps(Range{0, 8})).To(BeFalse())
	})
})
