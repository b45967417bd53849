// Package store holds the most recently resolved credential bundle.
//
// A Credentials value is created empty, populated once resolution succeeds
// and emptied again with Clear. Nothing expires on its own. Pass it to
// whoever needs the credentials instead of keeping it in a global.
package store

import (
	"sync"

	"github.com/Brawl345/supacreds/model"
)

type Credentials struct {
	mu        sync.RWMutex
	bundle    model.Bundle
	populated bool
}

func New() *Credentials {
	return &Credentials{}
}

// Bundle returns a copy of the stored bundle and whether anything is stored.
func (c *Credentials) Bundle() (model.Bundle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bundle, c.populated
}

func (c *Credentials) Set(bundle model.Bundle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bundle = bundle
	c.populated = true
}

func (c *Credentials) SetEndpointURL(v string) {
	c.update(func(b *model.Bundle) { b.EndpointURL = v })
}

func (c *Credentials) SetAnonymousKey(v string) {
	c.update(func(b *model.Bundle) { b.AnonymousKey = v })
}

func (c *Credentials) SetServiceToken(v string) {
	c.update(func(b *model.Bundle) { b.ServiceToken = v })
}

func (c *Credentials) SetStorageURL(v string) {
	c.update(func(b *model.Bundle) { b.StorageURL = v })
}

func (c *Credentials) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bundle = model.Bundle{}
	c.populated = false
}

func (c *Credentials) update(fn func(*model.Bundle)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.bundle)
	c.populated = true
}
