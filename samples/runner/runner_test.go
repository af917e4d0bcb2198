package runner

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gitlab.com/akita/akita/v3/sim"

	"gitlab.com/akita/vmsim/paging"
	"gitlab.com/akita/vmsim/profiler"
)

var smallGeometry = paging.Geometry{
	Log2FrameSize:      3,
	Log2PhysicalFrames: 3,
	Log2VirtualFrames:  7,
}

var _ = Describe("Sweep", func() {
	It("should grow the frames at every step", func() {
		steps := Sweep(paging.DefaultGeometry, 9)

		Expect(steps).To(HaveLen(9))
		Expect(steps[0]).To(Equal(paging.DefaultGeometry))
		Expect(steps[8]).To(Equal(paging.Geometry{
			Log2FrameSize:      14,
			Log2PhysicalFrames: 2,
			Log2VirtualFrames:  6,
		}))
	})

	It("should stop at the first invalid geometry", func() {
		steps := Sweep(smallGeometry, 5)

		Expect(steps).To(HaveLen(2))
	})
})

var _ = Describe("Runner", func() {
	var (
		dir string
		out *bytes.Buffer
		r   *Runner
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "runner")
		Expect(err).NotTo(HaveOccurred())

		out = new(bytes.Buffer)
		r = &Runner{
			geometry:    smallGeometry,
			storePath:   filepath.Join(dir, "disk.dat"),
			policies:    []string{"FIFO"},
			allocations: []string{"global", "local"},
			rounds:      2,
			seed:        1000,
			tickerFreq:  100 * sim.Hz,
			out:         out,
			report:      profiler.NewReport("test"),
			tracer:      NewFaultTracer(),
		}
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("should expand all", func() {
		Expect(expand("all", []string{"a", "b"})).To(Equal([]string{"a", "b"}))
		Expect(expand("FIFO,LRU", nil)).To(Equal([]string{"FIFO", "LRU"}))
	})

	It("should accept a valid configuration", func() {
		Expect(r.validate()).To(Succeed())
	})

	It("should reject an unknown policy", func() {
		r.policies = []string{"FIFO", "OPT"}

		Expect(errors.Is(r.validate(), paging.ErrConfiguration)).To(BeTrue())
	})

	It("should reject a bad geometry", func() {
		r.geometry.Log2PhysicalFrames = 1

		Expect(errors.Is(r.validate(), paging.ErrConfiguration)).To(BeTrue())
	})

	It("should reject zero rounds", func() {
		r.rounds = 0

		Expect(errors.Is(r.validate(), paging.ErrConfiguration)).To(BeTrue())
	})

	It("should run a round", func() {
		record, err := r.runRound(1, smallGeometry, "SC", "local")

		Expect(err).NotTo(HaveOccurred())
		Expect(record.AllSorted()).To(BeTrue())
		Expect(record.Policy).To(Equal("SC"))
		Expect(out.String()).To(ContainSubstring("TEST 1: SC replacement, local allocation"))
		Expect(out.String()).To(ContainSubstring("Sort success: yes"))
		Expect(out.String()).NotTo(ContainSubstring("Sort success: no"))
		Expect(r.store).To(BeNil())

		tags := []string{}
		for _, w := range r.tracer.Profile(record.RunID) {
			tags = append(tags, w.Tag)
			Expect(w.Faults).To(BeNumerically(">", 0))
		}
		Expect(tags).To(ContainElements("b", "i", "m", "q"))
	})

	It("should run every round of the sweep", func() {
		r.Run()

		Expect(r.report.Len()).To(Equal(4))
		last, _ := r.report.Last()
		Expect(last.Allocation).To(Equal("local"))
		Expect(last.Step).To(Equal(2))
		Expect(last.FrameSize).To(Equal(uint64(16)))
	})

	It("should write the reports on cleanup", func() {
		r.reportPath = filepath.Join(dir, "report.json")
		r.faultProfilePath = filepath.Join(dir, "faults.json")
		_, err := r.runRound(1, smallGeometry, "NRU", "global")
		Expect(err).NotTo(HaveOccurred())

		r.cleanup()

		Expect(r.reportPath).To(BeAnExistingFile())
		data, err := os.ReadFile(r.faultProfilePath)
		Expect(err).NotTo(HaveOccurred())
		var profile []map[string]interface{}
		Expect(json.Unmarshal(data, &profile)).To(Succeed())
		Expect(profile).To(HaveLen(1))
	})

	Context("status server", func() {
		get := func(path string) *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			r.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			return rec
		}

		It("should be unavailable before the first round", func() {
			Expect(get("/stats").Code).To(Equal(http.StatusServiceUnavailable))
			Expect(get("/pagetable").Code).To(Equal(http.StatusServiceUnavailable))
			Expect(get("/round").Code).To(Equal(http.StatusServiceUnavailable))
		})

		It("should serve the latest round", func() {
			record, err := r.runRound(1, smallGeometry, "LRU", "global")
			Expect(err).NotTo(HaveOccurred())
			r.report.Add(record)

			rec := get("/stats")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
			var stats []paging.Stats
			Expect(json.Unmarshal(rec.Body.Bytes(), &stats)).To(Succeed())
			Expect(stats).To(HaveLen(5))

			rec = get("/pagetable")
			var entries []pageTableEntry
			Expect(json.Unmarshal(rec.Body.Bytes(), &entries)).To(Succeed())
			Expect(len(entries)).To(BeNumerically("<=", 8))
			for _, e := range entries {
				Expect(e.Present).To(BeTrue())
			}

			rec = get("/round")
			var round profiler.RoundRecord
			Expect(json.Unmarshal(rec.Body.Bytes(), &round)).To(Succeed())
			Expect(round.RunID).To(Equal(record.RunID))

			rec = get("/report")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(record.RunID))
		})

		It("should only accept GET", func() {
			rec := httptest.NewRecorder()
			r.router().ServeHTTP(rec,
				httptest.NewRequest(http.MethodPost, "/stats", nil))

			Expect(rec.Code).To(Equal(http.StatusMethodNotAllowed))
		})
	})
})

var _ = Describe("FaultTracer", func() {
	It("should rank pages by faults", func() {
		Expect(hottest(map[int]uint64{1: 3, 2: 5, 3: 3, 4: 1}, 3)).To(Equal(
			[]PageFaults{{Page: 2, Faults: 5}, {Page: 1, Faults: 3}, {Page: 3, Faults: 3}}))
	})

	It("should ignore events outside a round", func() {
		t := NewFaultTracer()
		t.Func(sim.HookCtx{
			Pos:  paging.HookPosPageFault,
			Item: paging.Event{Tag: "b", Page: 1},
		})

		t.StartRound("r")
		t.Func(sim.HookCtx{
			Pos:  paging.HookPosPageFault,
			Item: paging.Event{Tag: "b", Page: 1},
		})
		t.Func(sim.HookCtx{
			Pos:  paging.HookPosPageEvict,
			Item: paging.Event{Tag: "b", Page: 0},
		})

		Expect(t.Profile("r")).To(Equal([]WorkloadFaults{{
			Tag:       "b",
			Faults:    1,
			Evictions: 1,
			Hottest:   []PageFaults{{Page: 1, Faults: 1}},
		}}))
	})
})
