package rewards

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const dedupDepth = 10 * MaxBlocksPerRequest

type logKey struct {
	txHash   common.Hash
	logIndex uint
}

// Dedup remembers delivered logs by transaction hash and log index. It can be
// shared between a history replay and a live subscription.
type Dedup struct {
	mu   sync.Mutex
	seen map[logKey]uint64
}

func NewDedup() *Dedup {
	return &Dedup{
		seen: make(map[logKey]uint64),
	}
}

// Add reports whether the log was not seen before and marks it as seen.
func (d *Dedup) Add(log types.Log) bool {
	key := logKey{txHash: log.TxHash, logIndex: log.Index}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = log.BlockNumber
	return true
}

// Prune forgets logs of blocks below the given one.
func (d *Dedup) Prune(below uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, block := range d.seen {
		if block < below {
			delete(d.seen, key)
		}
	}
}

func (d *Dedup) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.seen)
}
