package scanning

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/book-scanner/internal/catalog"
)

// fakeFinder is a mock implementation of catalog.Finder
type fakeFinder struct {
	byIdentifier map[string]catalog.Result
	byText       map[string]catalog.Result
	identifiers  []string
	queries      []string
}

func newFakeFinder() *fakeFinder {
	return &fakeFinder{
		byIdentifier: make(map[string]catalog.Result),
		byText:       make(map[string]catalog.Result),
	}
}

func (f *fakeFinder) FindByIdentifier(_ context.Context, identifier string) catalog.Result {
	f.identifiers = append(f.identifiers, identifier)
	return f.byIdentifier[identifier]
}

func (f *fakeFinder) FindByText(_ context.Context, query string) catalog.Result {
	f.queries = append(f.queries, query)
	return f.byText[query]
}

func (f *fakeFinder) FindByID(context.Context, string) catalog.Result {
	return catalog.Result{}
}

var _ = Describe("Interpreter", func() {
	var (
		finder      *fakeFinder
		interpreter *Interpreter
		event       Event
		outcome     Outcome
		err         error
	)

	BeforeEach(func() {
		finder = newFakeFinder()
		interpreter = NewInterpreter(finder)
	})

	JustBeforeEach(func() {
		outcome, err = interpreter.Interpret(context.Background(), event)
	})

	When("a barcode matches a book", func() {
		BeforeEach(func() {
			event = Event{Kind: KindBarcode, Value: "978-0441013593", Confidence: 0.9}
			finder.byIdentifier["9780441013593"] = catalog.Result{
				Status: catalog.StatusFound,
				Books:  []catalog.Book{{ID: "dune", Title: "Dune"}},
			}
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should look up the normalized identifier", func() {
			Expect(finder.identifiers).To(Equal([]string{"9780441013593"}))
			Expect(finder.queries).To(BeEmpty())
		})

		It("should return the book without a notice", func() {
			Expect(outcome.Found()).To(BeTrue())
			Expect(outcome.Book.ID).To(Equal("dune"))
			Expect(outcome.Notice).To(BeNil())
		})

		It("should keep the originating event", func() {
			Expect(outcome.Event).To(Equal(event))
		})
	})

	When("text matches several books", func() {
		BeforeEach(func() {
			event = Event{Kind: KindText, Value: "Dune", Confidence: 0.6}
			finder.byText["Dune"] = catalog.Result{
				Status: catalog.StatusFound,
				Books:  []catalog.Book{{ID: "first"}, {ID: "second"}},
			}
		})

		It("should route to the text search", func() {
			Expect(finder.queries).To(Equal([]string{"Dune"}))
			Expect(finder.identifiers).To(BeEmpty())
		})

		It("should take only the first result", func() {
			Expect(outcome.Book.ID).To(Equal("first"))
		})
	})

	When("the catalog has no match", func() {
		BeforeEach(func() {
			event = Event{Kind: KindBarcode, Value: "0000000000000"}
			finder.byIdentifier["0000000000000"] = catalog.Result{Status: catalog.StatusNoMatch}
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should carry a not-found notice with the scanned value", func() {
			Expect(outcome.Found()).To(BeFalse())
			Expect(outcome.Notice).NotTo(BeNil())
			Expect(outcome.Notice.Kind).To(Equal(NoticeNotFound))
			Expect(outcome.Notice.Message).To(ContainSubstring("0000000000000"))
		})
	})

	When("the catalog call fails", func() {
		var setupErr error

		BeforeEach(func() {
			setupErr = errors.New("connection refused")
			event = Event{Kind: KindBarcode, Value: "9780441013593"}
			finder.byIdentifier["9780441013593"] = catalog.Result{Status: catalog.StatusFailed, Err: setupErr}
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should collapse the failure into a not-found notice", func() {
			Expect(outcome.Notice.Kind).To(Equal(NoticeNotFound))
		})

		It("should still expose the failure for callers that branch on it", func() {
			Expect(outcome.Status).To(Equal(catalog.StatusFailed))
			Expect(outcome.Err).To(MatchError(setupErr))
		})
	})

	When("the event is a cover", func() {
		BeforeEach(func() {
			event = Event{Kind: KindCover, Value: "frame"}
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ErrUnsupportedKind))
		})

		It("should not call the catalog", func() {
			Expect(finder.identifiers).To(BeEmpty())
			Expect(finder.queries).To(BeEmpty())
		})
	})
})
