package connection

import (
	"context"
	"errors"
	"fmt"

	pool "github.com/jolestar/go-commons-pool/v2"
)

// clientFactory creates pooled clients. Borrowed clients are validated
// with PING so a connection dropped by the server is replaced.
type clientFactory struct {
	opts Options
}

func (f *clientFactory) MakeObject(ctx context.Context) (*pool.PooledObject, error) {
	c, err := Dial(ctx, f.opts)
	if err != nil {
		return nil, err
	}
	return pool.NewPooledObject(c), nil
}

func (f *clientFactory) DestroyObject(_ context.Context, object *pool.PooledObject) error {
	c, ok := object.Object.(*Client)
	if !ok {
		return errors.New("connection: pooled object is not a client")
	}
	return c.Close()
}

func (f *clientFactory) ValidateObject(_ context.Context, object *pool.PooledObject) bool {
	c, ok := object.Object.(*Client)
	return ok && c.Ping() == nil
}

func (f *clientFactory) ActivateObject(context.Context, *pool.PooledObject) error {
	return nil
}

func (f *clientFactory) PassivateObject(context.Context, *pool.PooledObject) error {
	return nil
}

// Pool is a bounded set of clients to one server.
type Pool struct {
	objects *pool.ObjectPool
}

// NewPool creates a pool of at most size clients. Clients are dialed
// lazily on first borrow.
func NewPool(ctx context.Context, opts Options, size int) *Pool {
	if size <= 0 {
		size = 1
	}
	cfg := pool.NewDefaultPoolConfig()
	cfg.MaxTotal = size
	cfg.MaxIdle = size
	cfg.TestOnBorrow = true
	cfg.BlockWhenExhausted = true

	return &Pool{
		objects: pool.NewObjectPool(ctx, &clientFactory{opts: opts}, cfg),
	}
}

// Get borrows a client. It blocks while all clients are in use.
func (p *Pool) Get(ctx context.Context) (*Client, error) {
	obj, err := p.objects.BorrowObject(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := obj.(*Client)
	if !ok {
		return nil, fmt.Errorf("connection: unexpected pooled type %T", obj)
	}
	return c, nil
}

// Put returns a healthy client to the pool.
func (p *Pool) Put(ctx context.Context, c *Client) error {
	return p.objects.ReturnObject(ctx, c)
}

// Discard removes a client whose connection failed.
func (p *Pool) Discard(ctx context.Context, c *Client) error {
	return p.objects.InvalidateObject(ctx, c)
}

// Active returns the number of borrowed clients.
func (p *Pool) Active() int {
	return p.objects.GetNumActive()
}

// Idle returns the number of clients waiting in the pool.
func (p *Pool) Idle() int {
	return p.objects.GetNumIdle()
}

// Close closes every idle client and rejects further borrows.
func (p *Pool) Close(ctx context.Context) {
	p.objects.Close(ctx)
}
