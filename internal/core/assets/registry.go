package assets

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/zeusync/scenekit/internal/core/observability/log"
)

// Kind classifies an asset by its file extension.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindMesh
	KindMaterial
	KindTexture
	KindShader
)

func (k Kind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindMaterial:
		return "material"
	case KindTexture:
		return "texture"
	case KindShader:
		return "shader"
	default:
		return "unknown"
	}
}

// KindOf maps a ref's extension to a Kind.
func KindOf(ref string) Kind {
	switch strings.ToLower(path.Ext(ref)) {
	case ".obj", ".gltf", ".glb", ".fbx":
		return KindMesh
	case ".mat", ".mtl":
		return KindMaterial
	case ".png", ".jpg", ".jpeg", ".ktx2", ".dds":
		return KindTexture
	case ".glsl", ".vert", ".frag", ".wgsl":
		return KindShader
	default:
		return KindUnknown
	}
}

// Asset is a resolved resource. Data is shared; callers must not mutate it.
type Asset struct {
	Ref  string
	Kind Kind
	Data []byte
	// Sum is the xxhash64 of Data.
	Sum uint64
}

// Registry resolves asset refs for the loader and for components.
type Registry interface {
	Resolve(ctx context.Context, ref string) (*Asset, error)
	Cached(ref string) (*Asset, bool)
	Len() int
}

const shardCount = 16

type shard struct {
	mu     sync.RWMutex
	assets map[uint64]*Asset
}

// FSRegistry resolves refs against an fs.FS and caches the results in shards keyed by
// the xxhash of the cleaned ref. Concurrent resolutions of the same ref share one read.
type FSRegistry struct {
	fsys   fs.FS
	shards [shardCount]shard
	group  singleflight.Group
	logger log.Log
}

var _ Registry = (*FSRegistry)(nil)

func NewFSRegistry(fsys fs.FS, logger log.Log) *FSRegistry {
	r := &FSRegistry{
		fsys:   fsys,
		logger: logger.With(log.String("component", "assets")),
	}
	for i := range r.shards {
		r.shards[i].assets = make(map[uint64]*Asset)
	}
	return r
}

// Normalize cleans a ref and rejects anything fs.FS would not accept.
func Normalize(ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", ErrInvalidRef
	}
	clean := path.Clean(strings.TrimPrefix(ref, "/"))
	if !fs.ValidPath(clean) || clean == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return clean, nil
}

func (r *FSRegistry) shardFor(key uint64) *shard {
	return &r.shards[key%shardCount]
}

func (r *FSRegistry) Cached(ref string) (*Asset, bool) {
	clean, err := Normalize(ref)
	if err != nil {
		return nil, false
	}
	key := xxhash.Sum64String(clean)
	s := r.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assets[key]
	return a, ok
}

func (r *FSRegistry) Len() int {
	n := 0
	for i := range r.shards {
		r.shards[i].mu.RLock()
		n += len(r.shards[i].assets)
		r.shards[i].mu.RUnlock()
	}
	return n
}

func (r *FSRegistry) Resolve(ctx context.Context, ref string) (*Asset, error) {
	clean, err := Normalize(ref)
	if err != nil {
		return nil, err
	}
	if a, ok := r.Cached(clean); ok {
		return a, nil
	}

	ch := r.group.DoChan(clean, func() (any, error) {
		return r.read(clean)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Asset), nil
	}
}

func (r *FSRegistry) read(clean string) (*Asset, error) {
	data, err := fs.ReadFile(r.fsys, clean)
	if err != nil {
		if errorsIsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, clean)
		}
		return nil, fmt.Errorf("read asset %s: %w", clean, err)
	}
	a := &Asset{
		Ref:  clean,
		Kind: KindOf(clean),
		Data: data,
		Sum:  xxhash.Sum64(data),
	}

	key := xxhash.Sum64String(clean)
	s := r.shardFor(key)
	s.mu.Lock()
	s.assets[key] = a
	s.mu.Unlock()

	r.logger.Debug("asset cached",
		log.String("ref", clean),
		log.String("kind", a.Kind.String()),
		log.Int("bytes", len(data)))
	return a, nil
}
