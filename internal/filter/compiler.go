package filter

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Compiler memoizes Compile results. Safe for concurrent use.
type Compiler struct {
	cache *lru.Cache[string, Predicate]
}

// NewCompiler creates a memoizing compiler holding up to size predicates.
func NewCompiler(size int) *Compiler {
	if size <= 0 {
		size = 512
	}
	cache, _ := lru.New[string, Predicate](size)
	return &Compiler{cache: cache}
}

// Compile returns the predicate for query, computing it at most once per distinct text.
func (c *Compiler) Compile(query string) Predicate {
	if c == nil || c.cache == nil {
		return Compile(query)
	}
	if p, ok := c.cache.Get(query); ok {
		return p
	}
	p := Compile(query)
	c.cache.Add(query, p)
	return p
}
