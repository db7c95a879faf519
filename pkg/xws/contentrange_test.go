package xws_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/xws/pkg/xws"
)

var _ = Describe("ContentRange", func() {
	It("parses a known total", func() {
		r := xws.ParseContentRange("items 0-9/42")
		Expect(r).To(Equal(&xws.ContentRange{Offset: 0, Last: 9, Total: 42}))
		Expect(r.IsEmpty()).To(BeFalse())
		Expect(r.String()).To(Equal("Xing-Content-Range: items 0-9/42"))
	})

	It("parses an unknown total", func() {
		r := xws.ParseContentRange("items 10-19/*")
		Expect(r).To(Equal(&xws.ContentRange{Offset: 10, Last: 19, Total: -1}))
		Expect(r.String()).To(Equal("Xing-Content-Range: items 10-19/*"))
	})

	It("parses an empty collection", func() {
		r := xws.ParseContentRange("items */0")
		Expect(r).To(Equal(&xws.ContentRange{Offset: -1, Last: -1, Total: 0}))
		Expect(r.IsEmpty()).To(BeTrue())
		Expect(r.String()).To(Equal("Xing-Content-Range: items */0"))
	})

	DescribeTable("rejects malformed values",
		func(header string) {
			Expect(xws.ParseContentRange(header)).To(BeNil())
		},
		Entry("empty", ""),
		Entry("wrong unit", "bytes 0-9/10"),
		Entry("trailing garbage", "items 0-9/10 "),
		Entry("missing total", "items 0-9"),
	)
})
