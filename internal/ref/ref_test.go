package ref

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerator_Sequential(t *testing.T) {
	var g Generator
	assert.Equal(t, "1", g.Next())
	assert.Equal(t, "2", g.Next())
	assert.Equal(t, "3", g.Next())
}

func TestGenerator_ConcurrentUnique(t *testing.T) {
	var g Generator
	const n = 1000

	refs := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			refs <- g.Next()
		}()
	}
	wg.Wait()
	close(refs)

	seen := make(map[string]bool, n)
	for r := range refs {
		assert.False(t, seen[r], "duplicate ref %s", r)
		seen[r] = true
	}
	assert.Len(t, seen, n)
}
