/*
 * Copyright 2025 SREDiag Authors
 * Copyright 2023 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package shm

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/cenkalti/backoff/v4"
	cmap "github.com/orcaman/concurrent-map/v2"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/atomic-fallback/pkg/fallback"
)

const (
	// region header layout:
	// magic 8 byte | version 4 byte | state 4 byte | generation cell 16 byte
	headerSize       = 32
	magicOffset      = 0
	versionOffset    = 8
	stateOffset      = 12
	generationOffset = 16

	regionMagic   uint64 = 0x4154_4f4d_4642_3031 // "ATOMFB01"
	regionVersion uint32 = 1

	// a fresh mapping is all zero, so zero must be the not-ready state
	stateInitializing uint32 = 0
	stateReady        uint32 = 1

	cellSize = int(unsafe.Sizeof(fallback.Uint64{}))

	attachPollInterval = time.Millisecond
	attachMaxRetries   = 200
)

var (
	// ErrInvalidSize means a create was requested with a size too small to
	// hold the region header and at least one cell.
	ErrInvalidSize = errors.New("region size too small")
	// ErrNoShmSpace means the shm filesystem has not enough free space left.
	ErrNoShmSpace = errors.New("shared memory had not enough space left")
	// ErrRegionExists means a create was requested for an existing name.
	ErrRegionExists = errors.New("region already exists")
	// ErrRegionNotReady means the creator has not finished publishing the
	// region header yet, or the backing file is not a region at all.
	ErrRegionNotReady = errors.New("region header not ready")
	// ErrVersionMismatch means the region was created by an incompatible
	// library version.
	ErrVersionMismatch = errors.New("region version mismatch")
	// ErrRegionClosed means the region handle was already closed.
	ErrRegionClosed = errors.New("region was closed")
	// ErrMisalignedOffset means a cell offset was not 8-byte aligned.
	ErrMisalignedOffset = errors.New("cell offset not 8-byte aligned")
	// ErrOffsetOutOfRange means a cell would not fit inside the region.
	ErrOffsetOutOfRange = errors.New("cell offset out of range")
	// ErrSizeRequired means an attach needs an explicit size on this platform.
	ErrSizeRequired = errors.New("attach requires an explicit size")

	// openMu serializes open/close transitions; the map itself stays safe
	// for concurrent readers (Lookup, RegionNames).
	openMu  sync.Mutex
	regions = cmap.New[*regionEntry]()
)

type regionEntry struct {
	region *Region
	refs   int
}

// Config holds region creation parameters.
type Config struct {
	// Name is the region identifier: a bare name placed on the platform's
	// shared memory mount, or an absolute path.
	Name string
	// Size is the total region size in bytes, header included. Required for
	// Create; optional for attach where the platform can discover it.
	Size int
	// Create indicates whether to create a fresh region or attach to an
	// existing one.
	Create bool
	// Meter and Tracer are optional OpenTelemetry instruments.
	Meter  metric.Meter
	Tracer trace.Tracer
}

// Region is a named shared memory segment hosting emulated atomic cells.
// All processes attached to the same name observe the same cells.
type Region struct {
	name   string
	path   string
	m      *mapping
	gen    *fallback.Uint64
	resets metric.Int64Counter
}

// Open creates or attaches a shared memory region. Within a process, opening
// an already-open name returns the same Region and bumps its reference
// count; Close releases one reference.
//
// An attach may run concurrently with the creator still publishing the
// header; it polls with a capped backoff until the header is committed.
func Open(ctx context.Context, cfg Config) (*Region, error) {
	if cfg.Tracer != nil {
		var span trace.Span
		ctx, span = cfg.Tracer.Start(ctx, "shm.Open")
		defer span.End()
	}

	path := resolvePath(cfg.Name)

	openMu.Lock()
	defer openMu.Unlock()

	if entry, ok := regions.Get(path); ok {
		entry.refs++
		return entry.region, nil
	}

	var (
		m   *mapping
		err error
	)
	if cfg.Create {
		m, err = createRegion(path, cfg.Size)
	} else {
		m, err = attachRegion(ctx, path, cfg.Size)
	}
	if err != nil {
		return nil, err
	}

	r := &Region{
		name: cfg.Name,
		path: path,
		m:    m,
		gen:  (*fallback.Uint64)(unsafe.Pointer(&m.mem[generationOffset])),
	}
	if cfg.Meter != nil {
		if opens, merr := cfg.Meter.Int64Counter("shm.region.opens"); merr == nil {
			opens.Add(ctx, 1)
		}
		r.resets, _ = cfg.Meter.Int64Counter("shm.region.resets")
	}
	regions.Set(path, &regionEntry{region: r, refs: 1})
	internalLogger.infof("region %s opened, size %d, create %v", path, len(m.mem), cfg.Create)
	return r, nil
}

func createRegion(path string, size int) (*mapping, error) {
	if size < headerSize+cellSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSize, size)
	}
	if pathExists(path) {
		return nil, fmt.Errorf("%w: path %s", ErrRegionExists, path)
	}
	if !canCreateOnDevShm(uint64(size), path) {
		return nil, fmt.Errorf("%w: path %s, size %d", ErrNoShmSpace, path, size)
	}
	m, err := createMapping(path, size)
	if err != nil {
		return nil, err
	}

	// A fresh mapping is zeroed, which is exactly the reset state every cell
	// expects. Publish the header last, fenced, so attachers polling the
	// state word never observe a half-written region.
	mem := m.mem
	binary.LittleEndian.PutUint32(mem[versionOffset:], regionVersion)
	(*fallback.Uint64)(unsafe.Pointer(&mem[generationOffset])).Init(0)
	fallback.FullBarrier()
	binary.LittleEndian.PutUint64(mem[magicOffset:], regionMagic)
	binary.LittleEndian.PutUint32(mem[stateOffset:], stateReady)
	fallback.FullBarrier()

	regionCreates.Inc()
	return m, nil
}

func attachRegion(ctx context.Context, path string, size int) (*mapping, error) {
	m, err := attachMapping(path, size)
	if err != nil {
		return nil, err
	}
	if len(m.mem) < headerSize {
		_ = m.unmap()
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSize, len(m.mem))
	}

	probe := func() error {
		if binary.LittleEndian.Uint64(m.mem[magicOffset:]) != regionMagic ||
			binary.LittleEndian.Uint32(m.mem[stateOffset:]) != stateReady {
			attachRetries.Inc()
			return ErrRegionNotReady
		}
		return nil
	}
	schedule := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(attachPollInterval), attachMaxRetries), ctx)
	if err := backoff.Retry(probe, schedule); err != nil {
		_ = m.unmap()
		return nil, fmt.Errorf("attach %s: %w", path, err)
	}
	fallback.FullBarrier()

	if v := binary.LittleEndian.Uint32(m.mem[versionOffset:]); v != regionVersion {
		_ = m.unmap()
		return nil, fmt.Errorf("%w: have %d, want %d", ErrVersionMismatch, v, regionVersion)
	}
	regionAttaches.Inc()
	return m, nil
}

// Name returns the identifier the region was opened with.
func (r *Region) Name() string {
	return r.name
}

// Size returns the number of payload bytes available for cells.
func (r *Region) Size() int {
	return len(r.m.mem) - headerSize
}

// Generation returns the region's reset generation, a counter bumped by
// every Reset.
func (r *Region) Generation() uint64 {
	return r.gen.FetchAdd(0)
}

// Uint64At returns the atomic cell at the given payload offset. The offset
// must be 8-byte aligned and the cell, guard storage included, must fit
// inside the region.
func (r *Region) Uint64At(offset int) (*fallback.Uint64, error) {
	if offset < 0 || offset+cellSize > r.Size() {
		return nil, fmt.Errorf("%w: offset %d, payload %d", ErrOffsetOutOfRange, offset, r.Size())
	}
	if offset%8 != 0 {
		return nil, fmt.Errorf("%w: offset %d", ErrMisalignedOffset, offset)
	}
	return (*fallback.Uint64)(unsafe.Pointer(&r.m.mem[headerSize+offset])), nil
}

// PlaceUint64 initializes and returns a cell at the given payload offset.
// Single-initializer rules apply: no other context may touch the cell
// concurrently.
func (r *Region) PlaceUint64(offset int, initial uint64) (*fallback.Uint64, error) {
	c, err := r.Uint64At(offset)
	if err != nil {
		return nil, err
	}
	c.Init(initial)
	return c, nil
}

// Reset zeroes the payload and bumps the generation. This is the mandatory
// recovery step after a crash may have left a cell guard locked by a
// vanished holder: zeroed storage is the unlocked, zero-valued cell state.
// The caller must guarantee no context is accessing the region.
func (r *Region) Reset() {
	payload := r.m.mem[headerSize:]
	for i := range payload {
		payload[i] = 0
	}
	fallback.FullBarrier()
	r.gen.FetchAdd(1)

	regionResets.Inc()
	if r.resets != nil {
		r.resets.Add(context.Background(), 1)
	}
	internalLogger.infof("region %s reset, generation now %d", r.path, r.Generation())
}

// Close releases one reference to the region; the last reference unmaps it.
// The backing name persists until Unlink so other processes can reattach.
func (r *Region) Close() error {
	openMu.Lock()
	defer openMu.Unlock()

	entry, ok := regions.Get(r.path)
	if !ok || entry.region != r {
		return ErrRegionClosed
	}
	entry.refs--
	if entry.refs > 0 {
		return nil
	}
	regions.Remove(r.path)
	return r.m.unmap()
}

// Unlink removes the backing object of a region name. Existing mappings
// remain valid until closed.
func Unlink(name string) error {
	return unlinkRegion(resolvePath(name))
}

// RegionNames lists the backing paths of regions currently open in this
// process.
func RegionNames() []string {
	return regions.Keys()
}
