// Package parserthread implements the L3 layer: a single producer goroutine
// runs saxtoken against the input and publishes bounded batches of
// parse_token values to a single consumer (§4.5, §5 "Threading model").
//
// Grounded on original_source/include/orcus/threaded_sax_token_parser.hpp
// and src/parser/sax_token_parser_thread.cpp: the producer accumulates
// tokens into a batch and publishes (check_and_notify) once the batch
// reaches the low watermark; a malformed_xml_error raised mid-parse is
// interned and delivered as a parse_error token instead of unwinding the
// producer; abort() causes the next publish to unwind early
// (parsing_aborted_error). The channel/goroutine/context shape follows
// xmlstreamer's own Parser.Stream(), the teacher's single producer
// goroutine feeding a buffered channel under a context.Context and
// sync.Once.
package parserthread

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	orcuserr "github.com/orcus-go/orcus/errors"
	"github.com/orcus-go/orcus/saxtoken"
	"github.com/orcus-go/orcus/tokens"
	"github.com/orcus-go/orcus/xmlns"
)

// TokenType identifies the kind of value held by a Token, mirroring
// sax::parse_token_t.
type TokenType int

const (
	Unknown TokenType = iota
	StartElement
	EndElement
	Characters
	ParseError
)

// Token is one parse_token: exactly one of its payload fields is meaningful,
// selected by Type.
type Token struct {
	Type TokenType

	Element saxtoken.Element // StartElement, EndElement

	Text string // Characters; always non-transient, per §4.5 "flattened at the boundary"

	ErrMessage string // ParseError
	ErrOffset  int64  // ParseError
}

// Batch is the unit of producer/consumer handoff. ID is a per-batch
// correlation identifier, useful for asserting ordering and non-interleaving
// in tests (§5's "batches never interleave").
type Batch struct {
	ID     uuid.UUID
	Tokens []Token
}

// errAborted is the internal sentinel a publish returns once the consumer
// has called Abort; it unwinds the producer without being surfaced as a
// ParseError token, matching parsing_aborted_error's silent catch in
// impl::start().
type errAborted struct{}

func (errAborted) Error() string { return "parserthread: aborted by consumer" }

// Parser runs exactly one producer goroutine per instance and is meant to be
// driven by exactly one consumer goroutine, per §5's scheduling contract.
type Parser struct {
	content []byte
	nsCtx   *xmlns.Context
	table   *tokens.Table
	minSize int

	out  chan Batch
	done chan struct{}

	startOnce sync.Once
	abortOnce sync.Once
}

// New creates a parser with an implicit, generous high watermark (8x
// minBatchSize), matching the original's single-argument constructor that
// defaults max_token_size to a very large value.
func New(content []byte, nsCtx *xmlns.Context, table *tokens.Table, minBatchSize int) *Parser {
	return NewWithWatermarks(content, nsCtx, table, minBatchSize, minBatchSize*8)
}

// NewWithWatermarks creates a parser with explicit low (minBatchSize) and
// high (maxBatchSize) watermarks. The low watermark is the batch size at
// which the producer publishes; the high watermark bounds how many
// unconsumed batches may queue before the producer blocks, realized here as
// the output channel's buffer capacity.
func NewWithWatermarks(content []byte, nsCtx *xmlns.Context, table *tokens.Table, minBatchSize, maxBatchSize int) *Parser {
	if minBatchSize < 1 {
		minBatchSize = 1
	}
	if maxBatchSize < minBatchSize {
		maxBatchSize = minBatchSize
	}
	capacity := maxBatchSize / minBatchSize
	if capacity < 1 {
		capacity = 1
	}
	return &Parser{
		content: content,
		nsCtx:   nsCtx,
		table:   table,
		minSize: minBatchSize,
		out:     make(chan Batch, capacity),
		done:    make(chan struct{}),
	}
}

// Start launches the producer goroutine. It is safe to call multiple times
// or not at all — the first call to NextTokens starts it implicitly.
func (p *Parser) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		go p.run(ctx)
	})
}

// NextTokens retrieves the next published batch. It returns false once the
// producer has signalled completion (cleanly, by error, or by abort) and
// every already-published batch has been drained, matching
// parser_thread::next_tokens.
func (p *Parser) NextTokens() ([]Token, bool) {
	p.Start(context.Background())
	batch, ok := <-p.out
	if !ok {
		return nil, false
	}
	return batch.Tokens, true
}

// Abort signals the producer to unwind at its next publish point. Any tokens
// already queued remain available to NextTokens; Abort does not discard
// them.
func (p *Parser) Abort() {
	p.abortOnce.Do(func() { close(p.done) })
}

func (p *Parser) run(ctx context.Context) {
	defer close(p.out)

	h := &handler{parser: p, ctx: ctx}
	driver := saxtoken.New(p.content, false, p.nsCtx, p.table, h)
	err := driver.Parse()
	if err != nil {
		if _, aborted := err.(errAborted); aborted {
			return
		}
		msg, offset := errDetail(err)
		h.current = append(h.current, Token{Type: ParseError, ErrMessage: msg, ErrOffset: offset})
	}
	// Final flush; ignore the error, the channel is closing regardless.
	_ = h.flush()
}

func errDetail(err error) (string, int64) {
	switch e := err.(type) {
	case *orcuserr.MalformedXMLError:
		return e.Message, e.Offset
	case *orcuserr.ParseError:
		return e.Message, e.Offset
	default:
		return err.Error(), -1
	}
}

// handler adapts saxtoken's callbacks into batched Tokens, publishing once
// the batch reaches the parser's low watermark.
type handler struct {
	parser  *Parser
	ctx     context.Context
	current []Token
}

func (h *handler) Declaration(saxtoken.Declaration) error { return nil }

func (h *handler) StartElement(e saxtoken.Element) error {
	return h.push(Token{Type: StartElement, Element: e})
}

func (h *handler) EndElement(e saxtoken.Element) error {
	return h.push(Token{Type: EndElement, Element: e})
}

func (h *handler) Characters(value string, transient bool) error {
	text := value
	if transient {
		// String pool equivalent: copy out of the parser's transient cell
		// buffer before it's reused by later entity decoding.
		text = strings.Clone(value)
	}
	return h.push(Token{Type: Characters, Text: text})
}

func (h *handler) push(t Token) error {
	h.current = append(h.current, t)
	if len(h.current) >= h.parser.minSize {
		return h.flush()
	}
	return nil
}

func (h *handler) flush() error {
	if len(h.current) == 0 {
		return nil
	}
	batch := Batch{ID: uuid.New(), Tokens: h.current}
	h.current = nil

	select {
	case h.parser.out <- batch:
		if h.ctx != nil && h.ctx.Err() != nil {
			return errAborted{}
		}
		return nil
	case <-h.parser.done:
		return errAborted{}
	case <-ctxDone(h.ctx):
		return errAborted{}
	}
}

// ctxDone returns ctx.Done() or a nil channel (which blocks forever in a
// select) when ctx is nil.
func ctxDone(ctx context.Context) <-chan struct{} {
	if ctx == nil {
		return nil
	}
	return ctx.Done()
}
