// Package kvcache simulates a KV-cache-aware worker router.
// It tracks, per worker, which cache blocks that worker would hold resident
// and routes a new request to the worker with the best combination of
// prefix overlap and free queue capacity -- without ever touching real GPU
// memory. Grounded on the inference-sim pack's sim/cluster/cluster.go
// (ComputeBlockHashes / RecordBlocks / RemoveBlock, per-worker affinity
// maps), adapted to a block-level trie keyed by hash instead of a
// character radix tree since blocks are never split mid-block.
package kvcache

import (
	"sort"
	"sync"
	"time"
)

// DefaultMaxBlocksPerWorker bounds how many blocks a worker's affinity set
// may hold before the router evicts the least-recently-used ones (Open
// Question decision recorded in DESIGN.md).
const DefaultMaxBlocksPerWorker = 100_000

// DefaultOverlapWeight is the scoring weight applied to matched tokens
// relative to queue depth.
const DefaultOverlapWeight = 1.0

// node is one level of the block-hash trie. Each edge is keyed by a block's
// hash; a node records which workers hold that block resident.
type node struct {
	children map[uint64]*node
	workers  map[int]*affinity
}

func newNode() *node {
	return &node{children: make(map[uint64]*node), workers: make(map[int]*affinity)}
}

// affinity is one worker's residency record for a block (tree node).
type affinity struct {
	lastUsed time.Time
}

// Worker is a simulated inference worker's live queue state.
type Worker struct {
	ID         int
	QueueDepth int
}

// RouteResult is the outcome of routing one request.
type RouteResult struct {
	WorkerID      int
	MatchedBlocks int
	MatchedTokens int
	TotalBlocks   int
}

// Router is the process-wide KV-cache simulation. A single RWMutex guards
// the whole trie, favoring simplicity over fine-grained locking
// concurrency model -- lookups vastly outnumber structural inserts, and
// request rates never approach a point where this lock is contended enough
// to need finer granularity.
type Router struct {
	mu                sync.RWMutex
	root              *node
	blockSize         int
	overlapWeight     float64
	maxBlocksPerWorker int

	workers map[int]*Worker
	// lru tracks global insertion/access order of (worker, node) pairs, so
	// eviction can find each worker's least-recently-used blocks.
	lru map[int][]*node
}

// New constructs a Router. blockSize and overlapWeight default to
// DefaultBlockSize / DefaultOverlapWeight when zero.
func New(blockSize int, overlapWeight float64, maxBlocksPerWorker int) *Router {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if overlapWeight == 0 {
		overlapWeight = DefaultOverlapWeight
	}
	if maxBlocksPerWorker <= 0 {
		maxBlocksPerWorker = DefaultMaxBlocksPerWorker
	}
	return &Router{
		root:               newNode(),
		blockSize:          blockSize,
		overlapWeight:      overlapWeight,
		maxBlocksPerWorker: maxBlocksPerWorker,
		workers:            make(map[int]*Worker),
		lru:                make(map[int][]*node),
	}
}

// RegisterWorker adds or updates a worker's live queue depth.
func (r *Router) RegisterWorker(id, queueDepth int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.workers[id]; ok {
		w.QueueDepth = queueDepth
		return
	}
	r.workers[id] = &Worker{ID: id, QueueDepth: queueDepth}
}

// Route splits the token ids into block hashes, walks the trie matching
// whole blocks, scores each worker by its residency along the matched path,
// routes to the best worker, then inserts the full block sequence under that
// worker's affinity.
func (r *Router) Route(tokens []uint64) RouteResult {
	hashes := ComputeBlockHashes(tokens, r.blockSize)

	r.mu.Lock()
	defer r.mu.Unlock()

	matchedLen, _, path := r.walk(hashes)

	workerID := r.bestWorker(path)

	r.insert(hashes, workerID, path, matchedLen)

	return RouteResult{
		WorkerID:      workerID,
		MatchedBlocks: matchedLen,
		MatchedTokens: matchedLen * r.blockSize,
		TotalBlocks:   len(hashes),
	}
}

// walk matches hashes against the trie as far as possible, returning the
// match length, the deepest matched node, and the path of nodes walked
// (path[0] is root, path[i] is the node reached after consuming hashes[i-1]).
func (r *Router) walk(hashes []uint64) (int, *node, []*node) {
	cur := r.root
	path := make([]*node, 1, len(hashes)+1)
	path[0] = cur
	matched := 0
	for _, h := range hashes {
		next, ok := cur.children[h]
		if !ok {
			break
		}
		cur = next
		path = append(path, cur)
		matched++
	}
	return matched, cur, path
}

// bestWorker scores every known worker:
// score(w) = overlap_weight*matched_tokens(w) - queue_depth(w), ties broken
// by least queue depth then smallest worker id. Workers with no queue-depth
// record yet are not eligible targets.
// matched_tokens(w) is the depth of the deepest node on the matched path
// where w is resident, times the block size.
func (r *Router) bestWorker(path []*node) int {
	if len(r.workers) == 0 {
		return 0
	}

	type candidate struct {
		id            int
		matchedTokens int
		queueDepth    int
		score         float64
	}
	candidates := make([]candidate, 0, len(r.workers))
	for id, w := range r.workers {
		matchedTokens := 0
		for depth := len(path) - 1; depth > 0; depth-- {
			if _, ok := path[depth].workers[id]; ok {
				matchedTokens = depth * r.blockSize
				break
			}
		}
		score := r.overlapWeight*float64(matchedTokens) - float64(w.QueueDepth)
		candidates = append(candidates, candidate{id: id, matchedTokens: matchedTokens, queueDepth: w.QueueDepth, score: score})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].queueDepth != candidates[j].queueDepth {
			return candidates[i].queueDepth < candidates[j].queueDepth
		}
		return candidates[i].id < candidates[j].id
	})
	return candidates[0].id
}

// insert walks/creates trie nodes for the full hash sequence and records
// workerID's residency at every node along the way, then evicts that
// worker's oldest blocks if it now exceeds maxBlocksPerWorker. matchedLen
// lets insert reuse the already-walked prefix nodes instead of re-walking.
func (r *Router) insert(hashes []uint64, workerID int, matchedPath []*node, matchedLen int) {
	cur := matchedPath[len(matchedPath)-1]
	now := time.Now()

	touch := func(n *node) {
		if _, ok := n.workers[workerID]; !ok {
			r.lru[workerID] = append(r.lru[workerID], n)
		}
		n.workers[workerID] = &affinity{lastUsed: now}
	}
	for i := 0; i < matchedLen; i++ {
		touch(matchedPath[i+1])
	}
	for i := matchedLen; i < len(hashes); i++ {
		h := hashes[i]
		next, ok := cur.children[h]
		if !ok {
			next = newNode()
			cur.children[h] = next
		}
		cur = next
		touch(cur)
	}

	r.evictIfNeeded(workerID)
}

// evictIfNeeded drops workerID's least-recently-used affinity entries once
// it holds more than maxBlocksPerWorker blocks.
func (r *Router) evictIfNeeded(workerID int) {
	entries := r.lru[workerID]
	if len(entries) <= r.maxBlocksPerWorker {
		return
	}
	sort.Slice(entries, func(i, j int) bool {
		ai, aiok := entries[i].workers[workerID]
		aj, ajok := entries[j].workers[workerID]
		if !aiok || !ajok {
			return aiok
		}
		return ai.lastUsed.Before(aj.lastUsed)
	})
	overflow := len(entries) - r.maxBlocksPerWorker
	for i := 0; i < overflow; i++ {
		delete(entries[i].workers, workerID)
	}
	r.lru[workerID] = entries[overflow:]
}

// Stats reports coarse per-worker occupancy, sampled by the server for the
// simulated /dcgm/metrics gauges.
type Stats struct {
	WorkerID    int
	BlockCount  int
}

// StatsAll returns each worker's current resident-block count.
func (r *Router) StatsAll() []Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Stats, 0, len(r.workers))
	for id := range r.workers {
		out = append(out, Stats{WorkerID: id, BlockCount: len(r.lru[id])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })
	return out
}
