package runner

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/akita/vmsim/pagetable"
)

type pageTableEntry struct {
	Page int `json:"page"`
	pagetable.Entry
}

func (r *Runner) router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/stats", r.handleStats).Methods(http.MethodGet)
	router.HandleFunc("/pagetable", r.handlePageTable).Methods(http.MethodGet)
	router.HandleFunc("/round", r.handleRound).Methods(http.MethodGet)
	router.HandleFunc("/report", r.handleReport).Methods(http.MethodGet)
	return router
}

func (r *Runner) startServer() {
	router := r.router()

	go func() {
		log.Printf("serving status on %s", r.httpAddr)
		if err := http.ListenAndServe(r.httpAddr, router); err != nil {
			log.Printf("status server stopped: %v", err)
		}
	}()
}

func (r *Runner) handleStats(w http.ResponseWriter, req *http.Request) {
	m, _ := r.currentRound()
	if m == nil {
		http.Error(w, "no round has started", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, m.Stats())
}

func (r *Runner) handlePageTable(w http.ResponseWriter, req *http.Request) {
	m, _ := r.currentRound()
	if m == nil {
		http.Error(w, "no round has started", http.StatusServiceUnavailable)
		return
	}

	entries := []pageTableEntry{}
	for page, e := range m.Snapshot() {
		if e.Present {
			entries = append(entries, pageTableEntry{Page: page, Entry: e})
		}
	}
	writeJSON(w, entries)
}

func (r *Runner) handleRound(w http.ResponseWriter, req *http.Request) {
	m, record := r.currentRound()
	if m == nil {
		http.Error(w, "no round has started", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, record)
}

func (r *Runner) handleReport(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, r.report)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}
