// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package gpio

import (
	"errors"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Arrays for 8 / 32 bit access to memory and a semaphore for write locking
var (
	// The memlock covers read/modify/write access to the mem block, and
	// mapping and unmapping it.
	// Individual reads and writes can skip the lock on the assumption that
	// concurrent register writes are atomic. e.g. Read, Write and Mode.
	memlock sync.Mutex
	mem     []uint32
	mem8    []uint8
)

// MemPath is the device providing the GPIO register block.
var MemPath = "/dev/gpiomem"

// Open and memory map GPIO memory range from /dev/gpiomem .
func Open() error {
	memlock.Lock()
	defer memlock.Unlock()
	if len(mem) != 0 {
		return ErrAlreadyOpen
	}
	file, err := os.OpenFile(MemPath, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return err
	}
	defer file.Close()

	// Memory map GPIO registers to byte array
	m8, err := unix.Mmap(
		int(file.Fd()),
		0,
		memLength,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED)
	if err != nil {
		return err
	}
	mem8 = m8
	// 32 bit view of the same block
	mem = unsafe.Slice((*uint32)(unsafe.Pointer(&mem8[0])), len(mem8)/4)
	chipset = detectChip()
	return nil
}

// Close unmaps GPIO memory.
//
// Any Pins created before the Close return ErrClosed from subsequent writes.
func Close() error {
	memlock.Lock()
	defer memlock.Unlock()
	if len(mem) == 0 {
		return ErrClosed
	}
	mem = nil
	m8 := mem8
	mem8 = nil
	if m8 == nil {
		// block was not mapped
		return nil
	}
	return unix.Munmap(m8)
}

func isOpen() bool {
	return len(mem) != 0
}

var (
	// ErrAlreadyOpen indicates the mem is already open.
	ErrAlreadyOpen = errors.New("already open")

	// ErrClosed indicates the mem is not open.
	ErrClosed = errors.New("gpio not open")

	// ErrInvalidPin indicates the pin number is outside the supported range.
	ErrInvalidPin = errors.New("invalid pin")
)
