package session

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("MemoryStore", func() {
	var (
		store *MemoryStore
		now   time.Time
	)

	BeforeEach(func() {
		store = NewMemoryStore()
		now = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	})

	AfterEach(func() {
		store.Close()
	})

	Describe("SaveSession", func() {
		When("the session has an ID", func() {
			It("should store it", func() {
				Expect(store.SaveSession(New("s1", now, newMockLookup()))).To(Succeed())
				sess, err := store.GetSession("s1")
				Expect(err).NotTo(HaveOccurred())
				Expect(sess.ID).To(Equal("s1"))
			})
		})

		When("the session has no ID", func() {
			It("should return an error", func() {
				Expect(store.SaveSession(New("", now, newMockLookup()))).NotTo(Succeed())
			})
		})

		When("the session is nil", func() {
			It("should return an error", func() {
				Expect(store.SaveSession(nil)).NotTo(Succeed())
			})
		})
	})

	Describe("GetSession", func() {
		When("the session does not exist", func() {
			It("should return ErrSessionNotFound", func() {
				sess, err := store.GetSession("missing")
				Expect(err).To(MatchError(ErrSessionNotFound))
				Expect(err.Error()).To(ContainSubstring("missing"))
				Expect(sess).To(BeNil())
			})
		})
	})

	Describe("ListSessions", func() {
		It("should return sessions oldest first", func() {
			Expect(store.SaveSession(New("newer", now.Add(time.Hour), newMockLookup()))).To(Succeed())
			Expect(store.SaveSession(New("older", now, newMockLookup()))).To(Succeed())

			sessions, err := store.ListSessions()
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(HaveLen(2))
			Expect(sessions[0].ID).To(Equal("older"))
			Expect(sessions[1].ID).To(Equal("newer"))
		})

		When("the store is empty", func() {
			It("should return an empty list", func() {
				sessions, err := store.ListSessions()
				Expect(err).NotTo(HaveOccurred())
				Expect(sessions).To(BeEmpty())
			})
		})
	})

	Describe("DeleteSession", func() {
		It("should remove the session", func() {
			Expect(store.SaveSession(New("s1", now, newMockLookup()))).To(Succeed())
			Expect(store.DeleteSession("s1")).To(Succeed())
			_, err := store.GetSession("s1")
			Expect(err).To(MatchError(ErrSessionNotFound))
		})

		It("should not fail for an unknown session", func() {
			Expect(store.DeleteSession("missing")).To(Succeed())
		})
	})

	Describe("Close", func() {
		It("should discard every session", func() {
			Expect(store.SaveSession(New("s1", now, newMockLookup()))).To(Succeed())
			Expect(store.Close()).To(Succeed())
			sessions, err := store.ListSessions()
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(BeEmpty())
		})
	})
})
