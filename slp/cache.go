package slp

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sbl8/straightline/expr"
)

// Cache memoizes compiled programs by the structural fingerprint of their
// source system. Homotopy drivers recompile the same system once per path
// batch; the cache turns those recompiles into clones.
//
// The cache stores master programs and hands out clones, so concurrent
// callers never share scratch banks. Safe for concurrent use.
type Cache struct {
	programs *lru.Cache[uint64, *Program]
}

// NewCache returns a cache holding at most size compiled programs.
func NewCache(size int) (*Cache, error) {
	c, err := lru.New[uint64, *Program](size)
	if err != nil {
		return nil, err
	}
	return &Cache{programs: c}, nil
}

// Compile returns a program for sys, reusing a cached compilation when an
// identically-structured system was compiled before. The returned program
// has private scratch banks either way.
func (c *Cache) Compile(sys *expr.System, opts *CompileOptions) (*Program, error) {
	fp := sys.Fingerprint()
	if master, ok := c.programs.Get(fp); ok {
		return master.Clone(), nil
	}
	master, err := Compile(sys, opts)
	if err != nil {
		return nil, err
	}
	c.programs.Add(fp, master)
	return master.Clone(), nil
}

// Len returns the number of cached programs.
func (c *Cache) Len() int { return c.programs.Len() }

// Purge drops every cached program.
func (c *Cache) Purge() { c.programs.Purge() }
