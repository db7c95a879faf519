package xws

// Callback receives the outcome of an enqueued Spec. Exactly one of its
// methods is called, on the client's callback Executor.
type Callback[RT, ET any] interface {
	// OnResponse is called for every parsed response, successful or not.
	OnResponse(resp *Response[RT, ET])

	// OnFailure is called when the request could not be sent, the response
	// could not be read or decoded, or the call was canceled.
	OnFailure(err error)
}

// CallbackFuncs adapts plain functions to Callback. Nil funcs are skipped.
type CallbackFuncs[RT, ET any] struct {
	Response func(resp *Response[RT, ET])
	Failure  func(err error)
}

func (f CallbackFuncs[RT, ET]) OnResponse(resp *Response[RT, ET]) {
	if f.Response != nil {
		f.Response(resp)
	}
}

func (f CallbackFuncs[RT, ET]) OnFailure(err error) {
	if f.Failure != nil {
		f.Failure(err)
	}
}

// Executor runs callbacks. A UI application typically supplies one that hops
// onto its event loop.
type Executor interface {
	Execute(fn func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(fn func())

func (f ExecutorFunc) Execute(fn func()) { f(fn) }

// InlineExecutor runs callbacks on the goroutine that produced the result.
var InlineExecutor Executor = ExecutorFunc(func(fn func()) { fn() })
