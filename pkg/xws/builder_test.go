package xws_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/xws/pkg/xws"
	"github.com/papercomputeco/xws/pkg/xwstest"
)

var _ = Describe("Builder", func() {
	var client *xws.Client

	BeforeEach(func() {
		var err error
		client, err = xws.New(xws.WithEndpoint("https://api.xing.com/"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(client.Close)
	})

	buildURL := func(b *xws.Builder[any, xws.HTTPError]) string {
		spec, err := b.ResponseAs(xws.Void[any]()).Build()
		Expect(err).NotTo(HaveOccurred())
		u, err := spec.URL()
		Expect(err).NotTo(HaveOccurred())
		return u
	}

	Describe("path params", func() {
		It("escapes single values", func() {
			b := xws.NewGet[any, xws.HTTPError](client, "/v1/users/{id}").PathParam("id", "a b/c")
			Expect(buildURL(b)).To(Equal("https://api.xing.com/v1/users/a%20b%2Fc"))
		})

		It("joins multiple values with commas", func() {
			b := xws.NewGet[any, xws.HTTPError](client, "/v1/users/{ids}").PathParams("ids", "1_a", "2_b")
			Expect(buildURL(b)).To(Equal("https://api.xing.com/v1/users/1_a,2_b"))
		})

		It("replaces every occurrence", func() {
			b := xws.NewGet[any, xws.HTTPError](client, "/v1/{x}/{x}").PathParam("x", "me")
			Expect(buildURL(b)).To(Equal("https://api.xing.com/v1/me/me"))
		})

		It("rejects malformed names", func() {
			_, err := xws.NewGet[any, xws.HTTPError](client, "/v1/{1d}").
				PathParam("1d", "x").
				ResponseAs(xws.Void[any]()).
				Build()
			Expect(err).To(MatchError(xws.ErrInvalidPath))
			Expect(err.Error()).To(ContainSubstring("Found: 1d"))
		})

		It("rejects names missing from the path", func() {
			_, err := xws.NewGet[any, xws.HTTPError](client, "/v1/users/{id}").
				PathParam("id", "1").
				PathParam("id", "2").
				ResponseAs(xws.Void[any]()).
				Build()
			Expect(err).To(MatchError(ContainSubstring(`does not contain "{id}"`)))
		})

		It("rejects path params after query params", func() {
			_, err := xws.NewGet[any, xws.HTTPError](client, "/v1/users/{id}").
				QueryParam("q", "1").
				PathParam("id", "1").
				ResponseAs(xws.Void[any]()).
				Build()
			Expect(err).To(MatchError(ContainSubstring("path params must be set before query params")))
		})

		It("rejects unsatisfied placeholders", func() {
			_, err := xws.NewGet[any, xws.HTTPError](client, "/v1/users/{id}/{other}").
				ResponseAs(xws.Void[any]()).
				Build()
			Expect(err).To(MatchError("invalid resource path: not all path params were set, found 2 unsatisfied parameter(s)"))
		})
	})

	Describe("query params", func() {
		It("escapes values and keeps order", func() {
			b := xws.NewGet[any, xws.HTTPError](client, "/v1/find").
				QueryParam("keywords", "John Kramer").
				QueryParam("limit", 10).
				QueryParams("fields", "testL", "testL")
			Expect(buildURL(b)).To(Equal("https://api.xing.com/v1/find?keywords=John%20Kramer&limit=10&fields=testL%2CtestL"))
		})
	})

	Describe("validation", func() {
		It("requires a response type", func() {
			_, err := xws.NewGet[any, xws.HTTPError](client, "/v1/users/me").Build()
			Expect(err).To(MatchError(xws.ErrInvalidSpec))
			Expect(err.Error()).To(ContainSubstring("response type is not set"))
		})

		It("rejects form fields on requests that are not form encoded", func() {
			_, err := xws.NewPost[any, xws.HTTPError](client, "/v1/x", false).
				FormField("a", "b").
				ResponseAs(xws.Void[any]()).
				Build()
			Expect(err).To(MatchError(ContainSubstring("form fields are not accepted by this request")))
		})

		It("reports every recorded misuse", func() {
			_, err := xws.NewPost[any, xws.HTTPError](client, "/v1/{a}", false).
				PathParam("b", "x").
				FormField("a", "b").
				ResponseAs(xws.Void[any]()).
				Build()
			Expect(err).To(MatchError(xws.ErrInvalidPath))
			Expect(err).To(MatchError(xws.ErrInvalidSpec))
		})
	})

	Describe("requests", func() {
		var server *xwstest.Server

		BeforeEach(func() {
			server = xwstest.NewServer()
			DeferCleanup(server.Close)

			var err error
			client, err = xws.New(xws.WithEndpoint(server.URL), xws.WithUserAgent("xws-test"))
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(client.Close)
		})

		execute := func(b *xws.Builder[any, xws.HTTPError]) *xwstest.RecordedRequest {
			server.Enqueue(xwstest.Empty(204))
			spec, err := b.ResponseAs(xws.Void[any]()).Build()
			Expect(err).NotTo(HaveOccurred())
			_, err = spec.Execute(context.Background())
			Expect(err).NotTo(HaveOccurred())

			req, err := server.TakeRequest()
			Expect(err).NotTo(HaveOccurred())
			return req
		}

		It("asks for json", func() {
			req := execute(xws.NewGet[any, xws.HTTPError](client, "/v1/users/me"))
			Expect(req.RequestLine()).To(Equal("GET /v1/users/me"))
			Expect(req.Header.Get("Accept")).To(Equal("application/json"))
			Expect(req.Header.Get("User-Agent")).To(Equal("xws-test"))
		})

		It("encodes form fields", func() {
			req := execute(xws.NewPost[any, xws.HTTPError](client, "/v1/users/me/status_message", true).
				FormField("message", "Hello World!").
				FormFields("ids", "1", "2"))
			Expect(req.Header.Get("Content-Type")).To(Equal("application/x-www-form-urlencoded"))
			Expect(string(req.Body)).To(Equal("message=Hello%20World%21&ids=1%2C2"))
		})

		It("sends json bodies", func() {
			req := execute(xws.NewPut[any, xws.HTTPError](client, "/v1/users/me/settings", false).
				JSONBody(map[string]string{"key": "value"}))
			Expect(req.Method).To(Equal("PUT"))
			Expect(req.Header.Get("Content-Type")).To(Equal("application/json; charset=utf-8"))
			Expect(string(req.Body)).To(Equal(`{"key":"value"}`))
		})

		It("sends an empty body for bodiless POST and PUT", func() {
			req := execute(xws.NewPost[any, xws.HTTPError](client, "/v1/users/me/ping", false))
			Expect(req.Method).To(Equal("POST"))
			Expect(req.Body).To(BeEmpty())
		})

		It("passes custom headers", func() {
			req := execute(xws.NewDelete[any, xws.HTTPError](client, "/v1/users/me/bookmarks/{id}").
				PathParam("id", "42").
				Header("X-Trace", "abc"))
			Expect(req.RequestLine()).To(Equal("DELETE /v1/users/me/bookmarks/42"))
			Expect(req.Header.Get("X-Trace")).To(Equal("abc"))
		})
	})
})
