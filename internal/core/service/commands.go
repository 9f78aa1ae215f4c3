package service

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/respkv-go/pkg/resp"
)

func (d *Dispatcher) ping(c *call) resp.Value {
	switch len(c.args) {
	case 1:
		return resp.SimpleString("PONG")
	case 2:
		return resp.Bulk(c.args[1])
	default:
		return ArityError(c.name).Reply()
	}
}

func (d *Dispatcher) echo(c *call) resp.Value {
	if len(c.args) != 2 {
		return ArityError(c.name).Reply()
	}
	if c.args[1] == nil {
		return resp.NullBulk()
	}
	return resp.Bulk(c.args[1])
}

func (d *Dispatcher) get(c *call) resp.Value {
	if len(c.args) != 2 {
		return ArityError(c.name).Reply()
	}
	v, ok := d.store.Get(string(c.args[1]))
	if !ok {
		return resp.NullBulk()
	}
	return resp.Bulk(v)
}

func (d *Dispatcher) exists(c *call) resp.Value {
	if len(c.args) < 2 {
		return ArityError(c.name).Reply()
	}
	var n int64
	for _, key := range c.args[1:] {
		if d.store.Exists(string(key)) {
			n++
		}
	}
	return resp.Integer(n)
}

// config answers CONFIG GET and friends with an empty list so that
// clients probing server settings on connect keep working.
func (d *Dispatcher) config(_ *call) resp.Value {
	return resp.EmptyArray()
}

// setArgs is a parsed SET command.
type setArgs struct {
	key    string
	value  []byte
	ttl    time.Duration
	hasTTL bool
}

func parseSet(c *call) (setArgs, *CommandError) {
	switch {
	case len(c.args) < 3 || len(c.args) > 5:
		return setArgs{}, ArityError(c.name)
	case len(c.args) == 4:
		return setArgs{}, ErrSyntax
	}

	sa := setArgs{key: string(c.args[1]), value: c.args[2]}
	if len(c.args) == 3 {
		return sa, nil
	}

	n, err := strconv.ParseInt(string(c.args[4]), 10, 64)
	if err != nil {
		return setArgs{}, ErrSyntax
	}

	var unit time.Duration
	switch strings.ToUpper(string(c.args[3])) {
	case "EX":
		unit = time.Second
	case "PX":
		unit = time.Millisecond
	default:
		return setArgs{}, ErrSyntax
	}

	if n <= 0 || n > math.MaxInt64/int64(unit) {
		return setArgs{}, ErrInvalidExpire
	}
	sa.ttl = time.Duration(n) * unit
	sa.hasTTL = true
	return sa, nil
}

func (d *Dispatcher) set(c *call) resp.Value {
	sa, cerr := parseSet(c)
	if cerr != nil {
		return cerr.Reply()
	}

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	if c.persist && d.persister != nil {
		if err := d.persister.Append(c.frame()); err != nil {
			d.logger.Error("wal append failed", "command", c.name, "error", err)
			return ErrPersistence.Reply()
		}
	}

	if sa.hasTTL {
		d.store.SetWithExpiry(sa.key, sa.value, d.now().Add(sa.ttl))
	} else {
		d.store.Set(sa.key, sa.value)
	}
	return resp.SimpleString("OK")
}
