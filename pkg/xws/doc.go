// Package xws is a client for the XING Web Services (XWS) REST API.
//
// Calls are described with a Builder, built into a Spec and then executed
// synchronously, on the client's dispatcher, or as a single-value stream:
//
//	client, err := xws.New(xws.WithOAuth1(consumerKey, consumerSecret, token, secret))
//	...
//	spec, err := xws.NewGet[User, xws.HTTPError](client, "/v1/users/{id}").
//		PathParam("id", xws.Me).
//		QueryParam("fields", "display_name").
//		ResponseAs(xws.First[User]("users")).
//		Build()
//	...
//	user, err := spec.Body(ctx)
//
// Response bodies are decoded through composable Type descriptions that dig
// values out of the JSON envelopes XWS wraps them in. Requests of a logged in
// client are signed with OAuth1 HMAC-SHA1.
package xws
