package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/xws/pkg/cliui"
)

var _ = Describe("Step", func() {
	It("returns the error of fn and prints the message", func() {
		var buf bytes.Buffer
		boom := errors.New("boom")

		err := cliui.Step(&buf, "requesting token", func() error { return boom })
		Expect(err).To(MatchError(boom))
		Expect(buf.String()).To(ContainSubstring("requesting token"))
		Expect(buf.String()).To(HaveSuffix("\n"))
	})
})

var _ = Describe("Mark", func() {
	It("distinguishes success from failure", func() {
		Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
		Expect(cliui.Mark(errors.New("x"))).To(Equal(cliui.FailMark))
	})
})

var _ = Describe("FormatDuration", func() {
	It("uses milliseconds below a second", func() {
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
	})

	It("uses seconds otherwise", func() {
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})
})

var _ = Describe("IndentJSON", func() {
	It("indents compact JSON", func() {
		out, err := cliui.IndentJSON([]byte(`{"a":[1,2]}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal("{\n  \"a\": [\n    1,\n    2\n  ]\n}\n"))
	})

	It("rejects invalid JSON", func() {
		_, err := cliui.IndentJSON([]byte(`{`))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("RenderJSON", func() {
	It("renders plain indented JSON without highlighting", func() {
		out, err := cliui.RenderJSON(map[string]any{"id": "1"}, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("{\n  \"id\": \"1\"\n}\n"))
	})

	It("keeps the content when highlighting", func() {
		out, err := cliui.RenderJSON(map[string]any{"display_name": "Max"}, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("display_name"))
		Expect(out).To(ContainSubstring("Max"))
	})
})
