package session

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/book-scanner/internal/catalog"
	"github.com/zombor/book-scanner/internal/scanning"
)

// gatedSearcher blocks each query until its gate is released
type gatedSearcher struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	results map[string][]catalog.Book
	started chan string
}

func newGatedSearcher() *gatedSearcher {
	return &gatedSearcher{
		gates:   make(map[string]chan struct{}),
		results: make(map[string][]catalog.Book),
		started: make(chan string, 8),
	}
}

func (g *gatedSearcher) gate(query string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[query]
	if !ok {
		ch = make(chan struct{})
		g.gates[query] = ch
	}
	return ch
}

func (g *gatedSearcher) LookupByText(_ context.Context, query string) []catalog.Book {
	ch := g.gate(query)
	g.started <- query
	<-ch
	return g.results[query]
}

var _ = Describe("Aggregator", func() {
	var (
		lookup     *mockLookup
		aggregator *Aggregator
		dune       catalog.Book
		messiah    catalog.Book
	)

	BeforeEach(func() {
		lookup = newMockLookup()
		aggregator = NewAggregator(lookup)
		dune = testBook("dune", "Dune")
		messiah = testBook("messiah", "Dune Messiah")
	})

	Describe("RecordScan", func() {
		It("should append new books in scan order", func() {
			Expect(aggregator.RecordScan(barcode("1"), &messiah)).To(BeTrue())
			Expect(aggregator.RecordScan(barcode("2"), &dune)).To(BeTrue())

			state := aggregator.Snapshot()
			Expect(state.Detected).To(HaveLen(2))
			Expect(state.Detected[0].Book.ID).To(Equal("messiah"))
			Expect(state.Detected[1].Book.ID).To(Equal("dune"))
		})

		It("should keep the first scan of a book", func() {
			Expect(aggregator.RecordScan(barcode("9780441172719"), &dune)).To(BeTrue())
			Expect(aggregator.RecordScan(barcode("0441172717"), &dune)).To(BeFalse())

			state := aggregator.Snapshot()
			Expect(state.Detected).To(HaveLen(1))
			Expect(state.Detected[0].Scan.Value).To(Equal("9780441172719"))
		})

		It("should ignore a scan without a book", func() {
			Expect(aggregator.RecordScan(barcode("1"), nil)).To(BeFalse())
			Expect(aggregator.Snapshot().Detected).To(BeEmpty())
		})

		It("should not highlight a new entry until the next search", func() {
			lookup.results["dune"] = []catalog.Book{dune}
			_, ran := aggregator.RunSearch(context.Background(), "dune")
			Expect(ran).To(BeTrue())

			aggregator.RecordScan(barcode("1"), &dune)
			Expect(aggregator.Snapshot().Detected[0].IsHighlighted).To(BeFalse())

			aggregator.RunSearch(context.Background(), "dune")
			Expect(aggregator.Snapshot().Detected[0].IsHighlighted).To(BeTrue())
		})
	})

	Describe("RunSearch", func() {
		BeforeEach(func() {
			aggregator.RecordScan(barcode("1"), &dune)
			aggregator.RecordScan(barcode("2"), &messiah)
		})

		It("should replace results and highlight only matching entries", func() {
			lookup.results["dune"] = []catalog.Book{dune}
			results, ran := aggregator.RunSearch(context.Background(), "dune")
			Expect(ran).To(BeTrue())
			Expect(results).To(Equal([]catalog.Book{dune}))

			state := aggregator.Snapshot()
			Expect(state.Results).To(Equal([]catalog.Book{dune}))
			Expect(state.Query).To(Equal("dune"))
			Expect(state.Detected[0].IsHighlighted).To(BeTrue())
			Expect(state.Detected[1].IsHighlighted).To(BeFalse())
		})

		It("should clear highlights when a later search misses", func() {
			lookup.results["dune"] = []catalog.Book{dune}
			aggregator.RunSearch(context.Background(), "dune")
			aggregator.RunSearch(context.Background(), "nothing")

			state := aggregator.Snapshot()
			Expect(state.Results).To(BeEmpty())
			for _, entry := range state.Detected {
				Expect(entry.IsHighlighted).To(BeFalse())
			}
		})

		It("should do nothing for a blank query", func() {
			lookup.results["dune"] = []catalog.Book{dune}
			aggregator.RunSearch(context.Background(), "dune")

			results, ran := aggregator.RunSearch(context.Background(), " \t")
			Expect(ran).To(BeFalse())
			Expect(results).To(BeNil())
			Expect(lookup.searched()).To(Equal([]string{"dune"}))
			Expect(aggregator.Snapshot().Results).To(HaveLen(1))
		})

		It("should not share its result slice with callers", func() {
			lookup.results["dune"] = []catalog.Book{dune}
			results, _ := aggregator.RunSearch(context.Background(), "dune")
			results[0].Title = "changed"
			Expect(aggregator.Snapshot().Results[0].Title).To(Equal("Dune"))
		})
	})

	Describe("ClearAll", func() {
		It("should empty both collections and the query", func() {
			lookup.results["dune"] = []catalog.Book{dune}
			aggregator.RecordScan(barcode("1"), &dune)
			aggregator.RunSearch(context.Background(), "dune")

			aggregator.ClearAll()

			state := aggregator.Snapshot()
			Expect(state.Detected).To(BeEmpty())
			Expect(state.Results).To(BeEmpty())
			Expect(state.Query).To(BeEmpty())
		})

		It("should allow a cleared book to be detected again", func() {
			aggregator.RecordScan(barcode("1"), &dune)
			aggregator.ClearAll()
			Expect(aggregator.RecordScan(barcode("1"), &dune)).To(BeTrue())
		})
	})

	Describe("Find", func() {
		It("should look in detected entries and then results", func() {
			lookup.results["messiah"] = []catalog.Book{messiah}
			aggregator.RecordScan(barcode("1"), &dune)
			aggregator.RunSearch(context.Background(), "messiah")

			book, ok := aggregator.Find("dune")
			Expect(ok).To(BeTrue())
			Expect(book.Title).To(Equal("Dune"))

			book, ok = aggregator.Find("messiah")
			Expect(ok).To(BeTrue())
			Expect(book.Title).To(Equal("Dune Messiah"))

			_, ok = aggregator.Find("missing")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("overlapping searches", func() {
		var searcher *gatedSearcher

		BeforeEach(func() {
			searcher = newGatedSearcher()
			searcher.results["first"] = []catalog.Book{dune}
			searcher.results["second"] = []catalog.Book{messiah}
			aggregator = NewAggregator(searcher)
		})

		It("should keep the results of the search that lands last", func() {
			var wg sync.WaitGroup
			run := func(query string) {
				defer GinkgoRecover()
				defer wg.Done()
				aggregator.RunSearch(context.Background(), query)
			}

			wg.Add(2)
			go run("first")
			Eventually(searcher.started).Should(Receive(Equal("first")))
			go run("second")
			Eventually(searcher.started).Should(Receive(Equal("second")))

			Expect(aggregator.Snapshot().Busy).To(BeTrue())

			close(searcher.gate("second"))
			Eventually(func() []catalog.Book { return aggregator.Snapshot().Results }).
				Should(Equal([]catalog.Book{messiah}))

			close(searcher.gate("first"))
			wg.Wait()

			state := aggregator.Snapshot()
			Expect(state.Results).To(Equal([]catalog.Book{dune}))
			Expect(state.Busy).To(BeFalse())
		})

		It("should let a search that lands after a clear repopulate results", func() {
			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(done)
				aggregator.RunSearch(context.Background(), "first")
			}()
			Eventually(searcher.started).Should(Receive(Equal("first")))

			aggregator.RecordScan(barcode("1"), &dune)
			aggregator.ClearAll()
			Expect(aggregator.Snapshot().Detected).To(BeEmpty())

			close(searcher.gate("first"))
			Eventually(done).Should(BeClosed())

			state := aggregator.Snapshot()
			Expect(state.Results).To(Equal([]catalog.Book{dune}))
			Expect(state.Detected).To(BeEmpty())
		})
	})
})

var _ = Describe("DetectedEntry", func() {
	It("should carry the originating scan", func() {
		event := scanning.Event{Kind: scanning.KindText, Value: "Dune", Confidence: 0.8}
		aggregator := NewAggregator(newMockLookup())
		book := testBook("dune", "Dune")
		aggregator.RecordScan(event, &book)
		Expect(aggregator.Snapshot().Detected[0].Scan).To(Equal(event))
	})
})
