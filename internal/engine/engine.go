// Package engine provides a client for UCI chess engines.
//
// The client speaks the UCI protocol over a Transport, serializes all
// engine traffic through a single worker so at most one command is in
// flight, and caches evaluations by normalized position and depth.
// The connection is established lazily on first use and re-established
// after a transport failure.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/leonfresh/chessleaks/internal/fen"
	"github.com/leonfresh/chessleaks/internal/stats"
)

var (
	// ErrUnavailable is returned when the engine cannot be reached or dies
	// mid-request. Callers may treat affected positions as unevaluated.
	ErrUnavailable = errors.New("engine: engine unavailable")

	// ErrTimeout is returned when the engine does not answer within the
	// request timeout. The connection is torn down and redialed lazily.
	ErrTimeout = errors.New("engine: request timed out")

	// ErrClosed is returned when the client has been closed.
	ErrClosed = errors.New("engine: client closed")
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultRequestTimeout   = 30 * time.Second
	defaultCacheSize        = 4096

	// maxDepth bounds the subsumption scan over cached depths.
	maxDepth = 24
)

// Config holds client settings. Zero values fall back to defaults.
type Config struct {
	// HandshakeTimeout bounds the uci/isready exchange on (re)connect.
	HandshakeTimeout time.Duration

	// RequestTimeout bounds a single evaluation request.
	RequestTimeout time.Duration

	// CacheSize is the maximum number of cached evaluations.
	CacheSize int

	Logger    *zap.Logger
	Collector stats.Collector
}

// Client evaluates chess positions with a UCI engine.
type Client struct {
	dial  DialFunc
	cache *lru.Cache[string, *Evaluation]
	group singleflight.Group

	reqCh chan *request
	quit  chan struct{}
	done  chan struct{}

	closed atomic.Bool

	handshakeTimeout time.Duration
	requestTimeout   time.Duration
	logger           *zap.Logger
	collector        stats.Collector

	// conn and closeErr are owned by the worker goroutine.
	conn     Transport
	closeErr error
}

type request struct {
	fen    string
	depth  int
	wantPV bool
	reply  chan result
}

type result struct {
	line *Line
	err  error
}

// New creates a client that connects via dial on first use.
func New(dial DialFunc, cfg Config) (*Client, error) {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Collector == nil {
		cfg.Collector = stats.NewNoop()
	}

	cache, err := lru.New[string, *Evaluation](cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	c := &Client{
		dial:             dial,
		cache:            cache,
		reqCh:            make(chan *request),
		quit:             make(chan struct{}),
		done:             make(chan struct{}),
		handshakeTimeout: cfg.HandshakeTimeout,
		requestTimeout:   cfg.RequestTimeout,
		logger:           cfg.Logger,
		collector:        cfg.Collector,
	}
	go c.worker()
	return c, nil
}

// Evaluate returns the engine's assessment of the position at the given
// depth, from the side to move's perspective. Results are cached by
// normalized position and depth; a cached evaluation at greater depth
// satisfies a shallower request. Returns (nil, nil) when the engine
// finished but produced no usable score, e.g. the game is already over.
func (c *Client) Evaluate(ctx context.Context, fenStr string, depth int) (*Evaluation, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	norm, err := fen.Normalize(fenStr)
	if err != nil {
		return nil, fmt.Errorf("normalizing fen: %w", err)
	}

	if ev, ok := c.cacheGet(norm, depth); ok {
		c.collector.IncCounter(stats.MetricEvalCacheHits, 1)
		return ev.Clone(), nil
	}
	c.collector.IncCounter(stats.MetricEvalCacheMisses, 1)

	key := cacheKey(norm, depth)
	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another flight may have filled the cache while we queued.
		if ev, ok := c.cache.Get(key); ok {
			return ev, nil
		}
		line, err := c.submit(ctx, &request{fen: norm, depth: depth})
		if err != nil {
			return nil, err
		}
		if line == nil {
			return (*Evaluation)(nil), nil
		}
		ev := line.Evaluation.Clone()
		c.cache.Add(key, ev)
		return ev, nil
	})
	if err != nil {
		return nil, err
	}
	ev, _ := v.(*Evaluation)
	return ev.Clone(), nil
}

// PrincipalVariation returns the engine's best line for the position.
// Lines are not cached. If maxPlies > 0 the variation is truncated.
func (c *Client) PrincipalVariation(ctx context.Context, fenStr string, depth, maxPlies int) (*Line, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	norm, err := fen.Normalize(fenStr)
	if err != nil {
		return nil, fmt.Errorf("normalizing fen: %w", err)
	}

	line, err := c.submit(ctx, &request{fen: norm, depth: depth, wantPV: true})
	if err != nil || line == nil {
		return nil, err
	}
	if maxPlies > 0 && len(line.PV) > maxPlies {
		line.PV = line.PV[:maxPlies]
	}
	return line, nil
}

// Close shuts down the worker and the engine connection.
// Safe to call more than once.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.quit)
	<-c.done
	return c.closeErr
}

func cacheKey(norm string, depth int) string {
	return norm + "|" + strconv.Itoa(depth)
}

// cacheGet checks the exact depth, then scans deeper cached entries for the
// same position. A deeper evaluation subsumes a shallower request and is
// re-cached under the requested key.
func (c *Client) cacheGet(norm string, depth int) (*Evaluation, bool) {
	if ev, ok := c.cache.Get(cacheKey(norm, depth)); ok {
		return ev, true
	}
	for d := depth + 1; d <= maxDepth; d++ {
		if ev, ok := c.cache.Get(cacheKey(norm, d)); ok {
			c.cache.Add(cacheKey(norm, depth), ev)
			return ev, true
		}
	}
	return nil, false
}

func (c *Client) submit(ctx context.Context, req *request) (*Line, error) {
	req.reply = make(chan result, 1)
	select {
	case c.reqCh <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.quit:
		return nil, ErrClosed
	}

	select {
	case res := <-req.reply:
		return res.line, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.quit:
		return nil, ErrClosed
	}
}

// worker owns the engine connection. Processing requests one at a time
// keeps the protocol exchange strictly sequential.
func (c *Client) worker() {
	defer close(c.done)
	for {
		select {
		case <-c.quit:
			if c.conn != nil {
				c.closeErr = c.conn.Close()
				c.conn = nil
			}
			return
		case req := <-c.reqCh:
			line, err := c.process(req)
			req.reply <- result{line: line, err: err}
		}
	}
}

func (c *Client) process(req *request) (*Line, error) {
	if err := c.ensureReady(); err != nil {
		c.collector.IncCounter(stats.MetricEngineFailures, 1)
		c.logger.Warn("engine unavailable", zap.Error(err))
		return nil, err
	}

	start := time.Now()
	line, err := c.exec(req)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			c.collector.IncCounter(stats.MetricEngineTimeouts, 1)
		} else {
			c.collector.IncCounter(stats.MetricEngineFailures, 1)
		}
		c.logger.Warn("evaluation failed", zap.String("fen", req.fen), zap.Error(err))
		return nil, err
	}

	c.collector.ObserveHistogram(stats.MetricEvalSeconds, time.Since(start).Seconds())
	c.collector.IncCounter(stats.MetricEvaluations, 1)
	return line, nil
}

// ensureReady dials and performs the UCI handshake if not yet connected.
// On failure the connection is torn down so the next request redials.
func (c *Client) ensureReady() error {
	if c.conn != nil {
		return nil
	}

	conn, err := c.dial()
	if err != nil {
		return fmt.Errorf("%w: dial: %v", ErrUnavailable, err)
	}
	c.conn = conn

	if err := c.handshake(); err != nil {
		c.teardown()
		return err
	}
	c.logger.Debug("engine ready")
	return nil
}

func (c *Client) handshake() error {
	if err := c.conn.Send("uci"); err != nil {
		return fmt.Errorf("%w: sending uci: %v", ErrUnavailable, err)
	}
	if err := c.awaitToken("uciok"); err != nil {
		return err
	}
	if err := c.conn.Send("isready"); err != nil {
		return fmt.Errorf("%w: sending isready: %v", ErrUnavailable, err)
	}
	return c.awaitToken("readyok")
}

func (c *Client) awaitToken(token string) error {
	timer := time.NewTimer(c.handshakeTimeout)
	defer timer.Stop()
	for {
		select {
		case line, ok := <-c.conn.Lines():
			if !ok {
				return fmt.Errorf("%w: engine exited during handshake", ErrUnavailable)
			}
			if strings.Contains(line, token) {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("%w: no %s within %s", ErrUnavailable, token, c.handshakeTimeout)
		}
	}
}

func (c *Client) exec(req *request) (*Line, error) {
	if err := c.conn.Send("position fen " + req.fen); err != nil {
		c.teardown()
		return nil, fmt.Errorf("%w: sending position: %v", ErrUnavailable, err)
	}
	if err := c.conn.Send("go depth " + strconv.Itoa(req.depth)); err != nil {
		c.teardown()
		return nil, fmt.Errorf("%w: starting search: %v", ErrUnavailable, err)
	}

	line := &Line{}
	timer := time.NewTimer(c.requestTimeout)
	defer timer.Stop()
	for {
		select {
		case out, ok := <-c.conn.Lines():
			if !ok {
				c.teardown()
				return nil, fmt.Errorf("%w: engine exited during search", ErrUnavailable)
			}
			parseInfo(out, &line.Evaluation)
			if req.wantPV {
				if pv := parsePV(out); pv != nil {
					line.PV = pv
				}
			}
			if move, ok := parseBestMove(out); ok {
				if move == "" && line.Centipawns == nil && line.Mate == nil {
					// Search finished with neither a score nor a move.
					return nil, nil
				}
				line.BestMove = move
				return line, nil
			}
		case <-timer.C:
			c.teardown()
			return nil, fmt.Errorf("%w: no bestmove within %s", ErrTimeout, c.requestTimeout)
		}
	}
}

func (c *Client) teardown() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}
