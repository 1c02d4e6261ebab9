package coder

import (
	"fmt"
	"sync"

	"github.com/go-sif/sifkit/registry"
)

// An enginePool hands out strategy-registry engines for exclusive use by one
// encode or decode call at a time. The underlying engine is not safe for
// concurrent use, so exclusivity during checkout is the sole concurrency
// discipline required - no locks guard the engine itself. Engines are built
// lazily on first checkout; concurrent callers may build redundant engines,
// which is accepted cost since every engine converges to an equivalent
// strategy table.
type enginePool struct {
	pool sync.Pool
}

var defaultEngines = createEnginePool()

func createEnginePool() *enginePool {
	return &enginePool{
		pool: sync.Pool{
			New: func() interface{} {
				eng, err := registry.Build()
				if err != nil {
					// surfaced by checkout; sync.Pool.New cannot fail
					return err
				}
				return eng
			},
		},
	}
}

// checkout obtains an engine for exclusive use, building one if necessary.
// Construction failures (ConfigurationError) propagate to the caller.
func (p *enginePool) checkout() (*registry.Registry, error) {
	switch v := p.pool.Get().(type) {
	case *registry.Registry:
		return v, nil
	case error:
		return nil, v
	default:
		return nil, fmt.Errorf("Unexpected engine pool entry %T", v)
	}
}

// release returns an engine to the pool for reuse
func (p *enginePool) release(eng *registry.Registry) {
	p.pool.Put(eng)
}
