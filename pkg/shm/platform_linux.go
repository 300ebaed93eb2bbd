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

//go:build linux

package shm

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// mapping is a memory-mapped shared region backed by a /dev/shm file.
type mapping struct {
	mem []byte
	fd  int
}

// resolvePath turns a region name into its backing path. Absolute names are
// used as-is so regions can also live on other tmpfs mounts.
func resolvePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join("/dev/shm", name)
}

func createMapping(path string, size int) (*mapping, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL, 0600)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Close(fd)
		_ = unix.Unlink(path)
		return nil, fmt.Errorf("ftruncate %s: %w", path, err)
	}
	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		_ = unix.Unlink(path)
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &mapping{mem: mem, fd: fd}, nil
}

func attachMapping(path string, size int) (*mapping, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if size <= 0 {
		var st unix.Stat_t
		if err := unix.Fstat(fd, &st); err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("fstat %s: %w", path, err)
		}
		size = int(st.Size)
	}
	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &mapping{mem: mem, fd: fd}, nil
}

func (m *mapping) unmap() error {
	if m.mem == nil {
		return nil
	}
	if err := unix.Munmap(m.mem); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	m.mem = nil
	if err := unix.Close(m.fd); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

func unlinkRegion(path string) error {
	if err := unix.Unlink(path); err != nil {
		return fmt.Errorf("unlink %s: %w", path, err)
	}
	return nil
}
