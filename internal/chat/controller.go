package chat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
)

// Request is what the transport sends for one exchange
type Request struct {
	Question  string
	CSRFToken string
}

// Transport delivers a question to the assistant endpoint.
// It must not return nil; network and server failures are reported as Failure.
type Transport interface {
	Ask(ctx context.Context, req Request) Outcome
}

// TransportFunc adapts a function to Transport
type TransportFunc func(ctx context.Context, req Request) Outcome

// Ask calls f(ctx, req)
func (f TransportFunc) Ask(ctx context.Context, req Request) Outcome {
	return f(ctx, req)
}

// TokenProvider supplies the cross-site-request-forgery token for a request.
// An empty token is passed through unchanged.
type TokenProvider interface {
	Token() string
}

// TokenFunc adapts a function to TokenProvider
type TokenFunc func() string

// Token calls f()
func (f TokenFunc) Token() string {
	return f()
}

// MessageSink receives session changes for display.
// Resolve may be called from any goroutine.
type MessageSink interface {
	Append(msg Message)
	Resolve(msg Message)
}

// Input is the text field the question was typed into
type Input interface {
	Reset()
	Focus()
}

// Exchange is one submitted question and its pending reply
type Exchange struct {
	Question Message
	Reply    Message

	done    chan struct{}
	outcome Outcome
}

// Done is closed once the reply has been resolved
func (e *Exchange) Done() <-chan struct{} {
	return e.done
}

// Outcome returns the result of the exchange; nil until Done is closed
func (e *Exchange) Outcome() Outcome {
	select {
	case <-e.done:
		return e.outcome
	default:
		return nil
	}
}

// Controller mediates question/answer exchanges between an input and a Transport.
type Controller struct {
	transport Transport
	tokens    TokenProvider
	sink      MessageSink
	input     Input
	logger    *slog.Logger
	session   *Session
	now       func() time.Time

	wg conc.WaitGroup
}

// Option configures a Controller
type Option func(*Controller)

// WithSink sets the sink notified of appended and resolved messages
func WithSink(sink MessageSink) Option {
	return func(c *Controller) {
		c.sink = sink
	}
}

// WithInput sets the input cleared and focused after each submission
func WithInput(input Input) Option {
	return func(c *Controller) {
		c.input = input
	}
}

// WithLogger sets the diagnostics logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSession makes the controller append to an existing session
func WithSession(session *Session) Option {
	return func(c *Controller) {
		if session != nil {
			c.session = session
		}
	}
}

// NewController creates a Controller. tokens may be nil, in which case an
// empty token is sent.
func NewController(transport Transport, tokens TokenProvider, opts ...Option) *Controller {
	c := &Controller{
		transport: transport,
		tokens:    tokens,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		session:   NewSession(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the controller's session
func (c *Controller) Session() *Session {
	return c.session
}

// Messages returns a snapshot of the session
func (c *Controller) Messages() []Message {
	return c.session.Messages()
}

// Pending returns the number of exchanges still awaiting a reply
func (c *Controller) Pending() int {
	return c.session.Pending()
}

// Submit starts an exchange for question. Blank questions are ignored and
// report false. The transport call runs in the background; ctx contributes
// its values but its cancellation does not abort the exchange.
func (c *Controller) Submit(ctx context.Context, question string) (*Exchange, bool) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, false
	}

	userMsg := Message{
		ID:      uuid.New(),
		Text:    question,
		Sender:  SenderUser,
		Created: c.now(),
	}
	c.session.append(userMsg)
	if c.sink != nil {
		c.sink.Append(userMsg)
	}

	if c.input != nil {
		c.input.Reset()
		c.input.Focus()
	}

	reply := Message{
		ID:      uuid.New(),
		Sender:  SenderAssistant,
		Pending: true,
		Created: c.now(),
	}
	c.session.append(reply)
	if c.sink != nil {
		c.sink.Append(reply)
	}

	var token string
	if c.tokens != nil {
		token = c.tokens.Token()
	}

	ex := &Exchange{
		Question: userMsg,
		Reply:    reply,
		done:     make(chan struct{}),
	}
	req := Request{Question: question, CSRFToken: token}
	detached := context.WithoutCancel(ctx)

	c.logger.Debug("exchange started",
		"reply_id", reply.ID.String(),
		"question_len", len(question),
		"has_token", token != "",
	)

	c.wg.Go(func() {
		started := c.now()
		out := c.ask(detached, req)
		c.finish(ex, out, c.now().Sub(started))
	})

	return ex, true
}

// Wait blocks until every submitted exchange has resolved
func (c *Controller) Wait() {
	c.wg.Wait()
}

// ask calls the transport, converting a panic or nil result into a Failure
func (c *Controller) ask(ctx context.Context, req Request) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Failure{Err: fmt.Errorf("transport panic: %v", r)}
		}
	}()

	if c.transport == nil {
		return Failure{Err: fmt.Errorf("no transport configured")}
	}
	out = c.transport.Ask(ctx, req)
	if out == nil {
		out = Failure{Err: fmt.Errorf("transport returned no outcome")}
	}
	return out
}

func (c *Controller) finish(ex *Exchange, out Outcome, elapsed time.Duration) {
	msg, err := c.session.resolve(ex.Reply.ID, out.Text())
	if err != nil {
		// Only reachable if a caller resolved the reply through the session.
		c.logger.Error("resolve failed", "reply_id", ex.Reply.ID.String(), "error", err)
	} else if c.sink != nil {
		c.sink.Resolve(msg)
	}

	if f, ok := out.(Failure); ok {
		c.logger.Warn("exchange failed",
			"reply_id", ex.Reply.ID.String(),
			"elapsed", elapsed,
			"server_message", f.Message,
			"error", f.Err,
		)
	} else {
		c.logger.Info("exchange answered",
			"reply_id", ex.Reply.ID.String(),
			"elapsed", elapsed,
			"answer_len", len(out.Text()),
		)
	}

	ex.outcome = out
	close(ex.done)
}
