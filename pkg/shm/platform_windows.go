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

//go:build windows

package shm

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// mapping is a named file-mapping object backed by the system paging file.
type mapping struct {
	mem    []byte
	base   uintptr
	handle windows.Handle
}

func resolvePath(name string) string {
	return name
}

func createMapping(name string, size int) (*mapping, error) {
	namep, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("mapping name %s: %w", name, err)
	}
	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil,
		windows.PAGE_READWRITE, uint32(uint64(size)>>32), uint32(size), namep)
	if err != nil {
		return nil, fmt.Errorf("CreateFileMapping %s: %w", name, err)
	}
	return mapView(h, size)
}

func attachMapping(name string, size int) (*mapping, error) {
	if size <= 0 {
		// no fstat equivalent on a bare mapping object
		return nil, ErrSizeRequired
	}
	namep, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("mapping name %s: %w", name, err)
	}
	h, err := windows.OpenFileMapping(windows.FILE_MAP_READ|windows.FILE_MAP_WRITE, 0, namep)
	if err != nil {
		return nil, fmt.Errorf("OpenFileMapping %s: %w", name, err)
	}
	return mapView(h, size)
}

func mapView(h windows.Handle, size int) (*mapping, error) {
	base, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ|windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		_ = windows.CloseHandle(h)
		return nil, fmt.Errorf("MapViewOfFile: %w", err)
	}
	return &mapping{
		mem:    unsafe.Slice((*byte)(unsafe.Pointer(base)), size),
		base:   base,
		handle: h,
	}, nil
}

func (m *mapping) unmap() error {
	if m.mem == nil {
		return nil
	}
	m.mem = nil
	if err := windows.UnmapViewOfFile(m.base); err != nil {
		return fmt.Errorf("UnmapViewOfFile: %w", err)
	}
	if err := windows.CloseHandle(m.handle); err != nil {
		return fmt.Errorf("CloseHandle: %w", err)
	}
	return nil
}

// unlinkRegion is a no-op: a named mapping object disappears with its last
// open handle.
func unlinkRegion(string) error {
	return nil
}
