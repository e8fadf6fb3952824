package dedupe

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// signature identifies a cart-intent event for windowing. It never leaves
// the package.
type signature struct {
	kind     string
	identity string
	hash     uint64
	ts       int64
}

func newSignature(kind, identity string, ts int64) signature {
	s := signature{kind: kind, identity: identity, ts: ts}
	d := xxhash.New()
	if _, err := d.WriteString(kind); err != nil {
		return s
	}
	if _, err := d.WriteString("\x00"); err != nil {
		return s
	}
	if _, err := d.WriteString(identity); err != nil {
		return s
	}
	s.hash = d.Sum64()
	return s
}

// key is the window-cache key. Without a content hash it falls back to the
// plain kind and identity.
func (s signature) key() string {
	if s.hash == 0 {
		return s.kind + "|" + s.identity
	}
	return strconv.FormatUint(s.hash, 16)
}
