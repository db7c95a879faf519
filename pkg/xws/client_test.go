package xws_test

import (
	"bytes"
	"context"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/xws/pkg/logger"
	"github.com/papercomputeco/xws/pkg/xws"
	"github.com/papercomputeco/xws/pkg/xwstest"
)

type contactsResource struct {
	xws.Resource
	created int
}

var _ = Describe("Client", func() {
	var (
		server *xwstest.Server
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = xwstest.NewServer()
		DeferCleanup(server.Close)
	})

	Describe("New", func() {
		It("is logged out by default", func() {
			c, err := xws.New()
			Expect(err).NotTo(HaveOccurred())
			defer c.Close()

			Expect(c.IsLoggedIn()).To(BeFalse())
			Expect(c.Endpoint().String()).To(Equal(xws.DefaultEndpoint))
		})

		It("requires every OAuth1 value", func() {
			_, err := xws.New(xws.WithOAuth1("key", "", "token", ""))
			Expect(err).To(MatchError(ContainSubstring("consumer secret not set")))
			Expect(err).To(MatchError(ContainSubstring("access secret not set")))
		})

		It("rejects illegal endpoints", func() {
			_, err := xws.New(xws.WithEndpoint("not a url"))
			Expect(err).To(MatchError(ContainSubstring("illegal endpoint URL")))
		})

		It("applies the timeout to the HTTP client", func() {
			c, err := xws.New(xws.WithTimeout(3 * time.Second), xws.WithHTTPClient(&http.Client{}))
			Expect(err).NotTo(HaveOccurred())
			defer c.Close()

			Expect(c.HTTPClient().Timeout).To(Equal(3 * time.Second))
		})
	})

	Describe("signed requests", func() {
		It("adds an OAuth1 authorization header", func() {
			c, err := xws.New(xws.WithEndpoint(server.URL), xws.WithSigner(testSigner()))
			Expect(err).NotTo(HaveOccurred())
			defer c.Close()
			Expect(c.IsLoggedIn()).To(BeTrue())

			server.Enqueue(xwstest.JSON(200, `{"users":[{"id":"me"}]}`))
			spec, err := xws.NewGet[user, xws.HTTPError](c, "/v1/users/me").
				QueryParam("fields", "id,display_name").
				ResponseAs(xws.First[user]("users")).
				Build()
			Expect(err).NotTo(HaveOccurred())

			_, err = spec.Body(ctx)
			Expect(err).NotTo(HaveOccurred())

			req, err := server.TakeRequest()
			Expect(err).NotTo(HaveOccurred())
			auth := req.Header.Get("Authorization")
			Expect(auth).To(HavePrefix(`OAuth oauth_consumer_key="xvz1evFS4wEEPTGEFPHBog", `))
			Expect(auth).To(ContainSubstring(`oauth_token="370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb"`))
			Expect(req.RawQuery).To(Equal("fields=id%2Cdisplay_name"))
		})
	})

	Describe("logging", func() {
		It("logs round trips at debug level", func() {
			var buf bytes.Buffer
			c, err := xws.New(
				xws.WithEndpoint(server.URL),
				xws.WithLogger(logger.New(logger.WithWriter(&buf), logger.WithDebug(true), logger.WithJSON(true))),
			)
			Expect(err).NotTo(HaveOccurred())
			defer c.Close()

			server.Enqueue(xwstest.Empty(204))
			spec, err := xws.NewGet[any, xws.HTTPError](c, "/v1/ping").ResponseAs(xws.Void[any]()).Build()
			Expect(err).NotTo(HaveOccurred())
			_, err = spec.Execute(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(buf.String()).To(ContainSubstring(`"msg":"xws request"`))
			Expect(buf.String()).To(ContainSubstring(`"status":204`))
		})
	})

	Describe("rate limiting", func() {
		It("gives up when the context ends while waiting", func() {
			c, err := xws.New(xws.WithEndpoint(server.URL), xws.WithRateLimit(0.001, 1))
			Expect(err).NotTo(HaveOccurred())
			defer c.Close()

			server.Enqueue(xwstest.Empty(204), xwstest.Empty(204))
			build := func() *xws.Spec[any, xws.HTTPError] {
				spec, err := xws.NewGet[any, xws.HTTPError](c, "/v1/ping").ResponseAs(xws.Void[any]()).Build()
				Expect(err).NotTo(HaveOccurred())
				return spec
			}

			_, err = build().Execute(ctx)
			Expect(err).NotTo(HaveOccurred())

			short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()
			_, err = build().Execute(short)
			Expect(err).To(MatchError(ContainSubstring("rate limit")))
			Expect(server.RequestCount()).To(Equal(1))
		})
	})

	Describe("dispatcher", func() {
		It("fails fast when the queue is full", func() {
			c, err := xws.New(xws.WithEndpoint(server.URL), xws.WithDispatcher(1, 1))
			Expect(err).NotTo(HaveOccurred())
			defer c.Close()

			server.Enqueue(
				xwstest.MockResponse{Status: 204, Delay: 300 * time.Millisecond},
				xwstest.Empty(204),
			)
			build := func() *xws.Spec[any, xws.HTTPError] {
				spec, err := xws.NewGet[any, xws.HTTPError](c, "/v1/ping").ResponseAs(xws.Void[any]()).Build()
				Expect(err).NotTo(HaveOccurred())
				return spec
			}
			noop := xws.CallbackFuncs[any, xws.HTTPError]{}

			Expect(build().Enqueue(ctx, noop)).To(Succeed())
			Eventually(server.RequestCount).Should(Equal(1))
			Expect(build().Enqueue(ctx, noop)).To(Succeed())

			overflow := build()
			Expect(overflow.Enqueue(ctx, noop)).To(MatchError(xws.ErrQueueFull))
			Expect(overflow.IsExecuted()).To(BeFalse())
		})

		It("drains queued calls on Close", func() {
			c, err := xws.New(xws.WithEndpoint(server.URL))
			Expect(err).NotTo(HaveOccurred())

			server.Enqueue(xwstest.Empty(204), xwstest.Empty(204), xwstest.Empty(204))
			done := make(chan struct{}, 3)
			for range 3 {
				spec, err := xws.NewGet[any, xws.HTTPError](c, "/v1/ping").ResponseAs(xws.Void[any]()).Build()
				Expect(err).NotTo(HaveOccurred())
				Expect(spec.Enqueue(ctx, xws.CallbackFuncs[any, xws.HTTPError]{
					Response: func(*xws.Response[any, xws.HTTPError]) { done <- struct{}{} },
				})).To(Succeed())
			}

			c.Close()
			Expect(done).To(HaveLen(3))
		})
	})

	Describe("ResourceOf", func() {
		It("caches one instance per type", func() {
			c, err := xws.New()
			Expect(err).NotTo(HaveOccurred())
			defer c.Close()

			calls := 0
			create := func(c *xws.Client) *contactsResource {
				calls++
				return &contactsResource{Resource: xws.Resource{Client: c}, created: calls}
			}

			first := xws.ResourceOf(c, create)
			second := xws.ResourceOf(c, create)
			Expect(second).To(BeIdenticalTo(first))
			Expect(first.Client).To(BeIdenticalTo(c))
			Expect(calls).To(Equal(1))
		})
	})
})
