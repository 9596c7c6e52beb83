package sequence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueueDrainKeepsOrder(t *testing.T) {
	q := NewQueue[int]()
	q.Push(1, 2)
	q.Push(3)
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, []int{1, 2, 3}, q.Drain())
	assert.Empty(t, q.Drain())
	assert.Zero(t, q.Len())
}

func TestQueueConcurrentPush(t *testing.T) {
	q := NewQueue[int]()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				q.Push(i*100 + j)
			}
		}()
	}
	wg.Wait()
	assert.Len(t, q.Drain(), 800)
}
