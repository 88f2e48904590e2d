package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Vectors is a bounded cache of query embeddings keyed by model and text.
// A nil *Vectors is valid and caches nothing.
type Vectors struct {
	model string
	lru   *lru.Cache[string, []float32]
}

// NewVectors builds a cache holding at most size vectors. A size of zero or
// less disables caching.
func NewVectors(model string, size int) (*Vectors, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &Vectors{model: model, lru: c}, nil
}

func (v *Vectors) key(text string) string {
	return v.model + "\x00" + text
}

// Get returns a copy of the cached vector for text.
func (v *Vectors) Get(text string) ([]float32, bool) {
	if v == nil {
		return nil, false
	}
	vec, ok := v.lru.Get(v.key(text))
	if !ok {
		return nil, false
	}
	return append([]float32(nil), vec...), true
}

func (v *Vectors) Put(text string, vec []float32) {
	if v == nil || len(vec) == 0 {
		return
	}
	v.lru.Add(v.key(text), append([]float32(nil), vec...))
}

func (v *Vectors) Len() int {
	if v == nil {
		return 0
	}
	return v.lru.Len()
}

// Purge drops every cached vector.
func (v *Vectors) Purge() {
	if v != nil {
		v.lru.Purge()
	}
}
