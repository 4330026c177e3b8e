// internal/domain/cart/ordernumber.go
package cart

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

const orderLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// OrderNumberGenerator builds human-readable order numbers of the form
// <prefix>YYYYMMDD-AAA00. They are display tags, not unique keys.
type OrderNumberGenerator struct {
	prefix string

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewOrderNumberGenerator creates a generator. A nil source seeds from the clock.
func NewOrderNumberGenerator(prefix string, src rand.Source) *OrderNumberGenerator {
	if src == nil {
		src = rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())
	}
	return &OrderNumberGenerator{
		prefix: prefix,
		rnd:    rand.New(src),
	}
}

// Next returns an order number for the calendar day of t
func (g *OrderNumberGenerator) Next(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var suffix strings.Builder
	for i := 0; i < 3; i++ {
		suffix.WriteByte(orderLetters[g.rnd.IntN(len(orderLetters))])
	}
	fmt.Fprintf(&suffix, "%02d", g.rnd.IntN(100))

	return fmt.Sprintf("%s%s-%s", g.prefix, t.Format("20060102"), suffix.String())
}
