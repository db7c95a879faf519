// Package callcmder provides the call command issuing arbitrary signed XWS
// requests and decoding their JSON envelopes.
package callcmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/xws/pkg/cliui"
	"github.com/papercomputeco/xws/pkg/config"
	"github.com/papercomputeco/xws/pkg/session"
	"github.com/papercomputeco/xws/pkg/utils"
	"github.com/papercomputeco/xws/pkg/xws"
)

const callLongDesc string = `Call an XWS resource.

PATH is resolved against the configured endpoint and may contain {name}
placeholders filled with --path. The response body is decoded by walking the
--root keys, so --root users --first prints the first element of the "users"
array. Requests are signed with the active profile when it is authorized.

Examples:
  xws call GET /v1/users/{id} --path id=me --root users --first
  xws call GET /v1/users/me/contacts --query limit=10 --root contacts --root users --list
  xws call PUT /v1/users/me/status_message --form message="Hello"
  xws call POST /v1/users/me/status_message --json '{"message":"Hello"}'`

const callShortDesc string = "Call an XWS resource"

// bodyPreview bounds non-JSON bodies echoed to the terminal.
const bodyPreview = 512

type callCommander struct {
	pathParams []string
	query      []string
	form       []string
	headers    []string
	jsonBody   string
	roots      []string
	list       bool
	first      bool
	render     bool
	async      bool

	endpoint  string
	timeout   string
	userAgent string
	profile   string
	logFormat string
	logFile   string
	rateLimit float64
	rateBurst uint
	workers   uint
	queueSize uint
}

var flagKeys = []string{
	config.FlagDebug,
	config.FlagEndpoint,
	config.FlagTimeout,
	config.FlagUserAgent,
	config.FlagProfile,
	config.FlagLogFormat,
	config.FlagLogFile,
	config.FlagRateLimit,
	config.FlagRateBurst,
	config.FlagWorkers,
	config.FlagQueueSize,
}

func NewCallCmd() *cobra.Command {
	cmder := &callCommander{}

	cmd := &cobra.Command{
		Use:   "call METHOD PATH",
		Short: callShortDesc,
		Long:  callLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, configDir, err := config.InitCommandViper(cmd, config.Flags, flagKeys)
			if err != nil {
				return err
			}

			s, err := session.Load(v, configDir, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			return cmder.run(cmd.Context(), s, args[0], args[1], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return []string{"GET", "POST", "PUT", "DELETE"}, cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().StringArrayVar(&cmder.pathParams, "path", nil, "Path parameter name=value, comma separated values are joined verbatim")
	cmd.Flags().StringArrayVarP(&cmder.query, "query", "q", nil, "Query parameter name=value")
	cmd.Flags().StringArrayVarP(&cmder.form, "form", "f", nil, "Form field name=value, sends a form encoded body")
	cmd.Flags().StringArrayVarP(&cmder.headers, "header", "H", nil, "Request header name=value")
	cmd.Flags().StringVar(&cmder.jsonBody, "json", "", "JSON request body")
	cmd.Flags().StringArrayVarP(&cmder.roots, "root", "r", nil, "Envelope key to descend into, repeatable")
	cmd.Flags().BoolVar(&cmder.list, "list", false, "Decode the innermost root as a list")
	cmd.Flags().BoolVar(&cmder.first, "first", false, "Decode the first element of the innermost root list")
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Highlight the JSON output")
	cmd.Flags().BoolVar(&cmder.async, "async", false, "Run the call on the client dispatcher")
	cmd.MarkFlagsMutuallyExclusive("list", "first")
	cmd.MarkFlagsMutuallyExclusive("form", "json")

	config.AddStringFlag(cmd, config.Flags, config.FlagEndpoint, &cmder.endpoint)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagUserAgent, &cmder.userAgent)
	config.AddStringFlag(cmd, config.Flags, config.FlagProfile, &cmder.profile)
	config.AddStringFlag(cmd, config.Flags, config.FlagLogFormat, &cmder.logFormat)
	config.AddStringFlag(cmd, config.Flags, config.FlagLogFile, &cmder.logFile)
	config.AddFloatFlag(cmd, config.Flags, config.FlagRateLimit, &cmder.rateLimit)
	config.AddUintFlag(cmd, config.Flags, config.FlagRateBurst, &cmder.rateBurst)
	config.AddUintFlag(cmd, config.Flags, config.FlagWorkers, &cmder.workers)
	config.AddUintFlag(cmd, config.Flags, config.FlagQueueSize, &cmder.queueSize)

	return cmd
}

func (c *callCommander) run(ctx context.Context, s *session.Session, method, path string, out, errOut io.Writer) error {
	m, err := xws.ParseMethod(method)
	if err != nil {
		return err
	}

	remove := s.Client.AddAuthErrorCallback(func(*xws.UnauthorizedResponse) {
		fmt.Fprintf(errOut, "  %s XWS rejected the credentials of profile %s. Run 'xws auth login'.\n",
			cliui.WarnStyle.Render("!"), cliui.NameStyle.Render(s.ProfileName))
	})
	defer remove()

	var res *outcome
	start := time.Now()
	switch {
	case c.list:
		res, err = call(ctx, s.Client, c, m, path, xws.List[json.RawMessage](c.roots...))
	case c.first:
		res, err = call(ctx, s.Client, c, m, path, xws.First[json.RawMessage](c.roots...))
	default:
		res, err = call(ctx, s.Client, c, m, path, xws.Single[json.RawMessage](c.roots...))
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(errOut, "  %s %s %s\n",
		cliui.Mark(res.failure()),
		res.status,
		cliui.StepStyle.Render(fmt.Sprintf("(%s)", cliui.FormatDuration(time.Since(start)))),
	)
	if res.rng != nil {
		fmt.Fprintf(errOut, "  %s %s\n", cliui.KeyStyle.Render(xws.ContentRangeHeader+":"), cliui.DimStyle.Render(res.rng.String()))
	}

	if res.body != nil {
		if err := c.print(out, res.body); err != nil {
			return err
		}
	}
	return res.failure()
}

func (c *callCommander) print(out io.Writer, body any) error {
	rendered, err := cliui.RenderJSON(body, c.render)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, rendered)
	return err
}

type outcome struct {
	code   int
	status string
	body   any
	rng    *xws.ContentRange
}

func (o *outcome) failure() error {
	if o.code >= 200 && o.code < 300 {
		return nil
	}
	return fmt.Errorf("request failed: %s", o.status)
}

// call builds and executes a spec decoding successful bodies with t and error
// bodies as raw JSON.
func call[RT any](ctx context.Context, client *xws.Client, c *callCommander, m xws.Method, path string, t xws.Type[RT]) (*outcome, error) {
	spec, err := build(client, c, m, path, t)
	if err != nil {
		return nil, err
	}

	var resp *xws.Response[RT, json.RawMessage]
	if c.async {
		resp, err = enqueue(ctx, spec)
	} else {
		resp, err = spec.Execute(ctx)
	}
	if err != nil {
		return nil, err
	}

	o := &outcome{code: resp.StatusCode(), status: resp.Status(), rng: resp.Range}
	switch {
	case !resp.IsSuccessful():
		if len(resp.Error) > 0 {
			o.body = resp.Error
		}
	case resp.StatusCode() != 204 && resp.StatusCode() != 205:
		o.body = resp.Body
	}
	return o, nil
}

func build[RT any](client *xws.Client, c *callCommander, m xws.Method, path string, t xws.Type[RT]) (*xws.Spec[RT, json.RawMessage], error) {
	formEncoded := len(c.form) > 0
	if formEncoded && !m.HasBody() {
		return nil, fmt.Errorf("--form requires POST or PUT, got %s", m)
	}

	var b *xws.Builder[RT, json.RawMessage]
	switch m {
	case xws.GET:
		b = xws.NewGet[RT, json.RawMessage](client, path)
	case xws.DELETE:
		b = xws.NewDelete[RT, json.RawMessage](client, path)
	case xws.POST:
		b = xws.NewPost[RT, json.RawMessage](client, path, formEncoded)
	case xws.PUT:
		b = xws.NewPut[RT, json.RawMessage](client, path, formEncoded)
	}

	for _, p := range c.pathParams {
		name, value, err := splitPair("--path", p)
		if err != nil {
			return nil, err
		}
		if strings.Contains(value, ",") {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = xws.Escape(parts[i])
			}
			b.PathParams(name, parts...)
		} else {
			b.PathParam(name, value)
		}
	}
	for _, q := range c.query {
		name, value, err := splitPair("--query", q)
		if err != nil {
			return nil, err
		}
		b.QueryParam(name, value)
	}
	for _, f := range c.form {
		name, value, err := splitPair("--form", f)
		if err != nil {
			return nil, err
		}
		b.FormField(name, value)
	}
	for _, h := range c.headers {
		name, value, err := splitPair("--header", h)
		if err != nil {
			return nil, err
		}
		b.Header(name, value)
	}
	if c.jsonBody != "" {
		if !json.Valid([]byte(c.jsonBody)) {
			return nil, fmt.Errorf("--json is not valid JSON: %s", utils.Truncate(c.jsonBody, bodyPreview))
		}
		b.JSONBody(json.RawMessage(c.jsonBody))
	}

	return b.ResponseAs(t).ErrorAs(xws.Single[json.RawMessage]()).Build()
}

// enqueue runs spec on the dispatcher and waits for its callback.
func enqueue[RT any](ctx context.Context, spec *xws.Spec[RT, json.RawMessage]) (*xws.Response[RT, json.RawMessage], error) {
	type result struct {
		resp *xws.Response[RT, json.RawMessage]
		err  error
	}
	done := make(chan result, 1)

	err := spec.Enqueue(ctx, xws.CallbackFuncs[RT, json.RawMessage]{
		Response: func(resp *xws.Response[RT, json.RawMessage]) { done <- result{resp: resp} },
		Failure:  func(err error) { done <- result{err: err} },
	})
	if err != nil {
		return nil, err
	}

	select {
	case r := <-done:
		return r.resp, r.err
	case <-ctx.Done():
		spec.Cancel()
		r := <-done
		if r.err == nil {
			return r.resp, nil
		}
		return nil, errors.Join(ctx.Err(), r.err)
	}
}

func splitPair(flag, s string) (string, string, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", "", fmt.Errorf("%s expects name=value, got %q", flag, s)
	}
	return name, value, nil
}
