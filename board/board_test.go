// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package board

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLine struct {
	values   []bool
	err      error
	released bool
}

func (l *fakeLine) Set(v bool) error {
	if l.err != nil {
		return l.err
	}
	l.values = append(l.values, v)
	return nil
}

func (l *fakeLine) Release() error {
	l.released = true
	return nil
}

type fakeBackend struct {
	openErr    error
	requestErr error
	opened     bool
	closed     bool
	pin        int
	initial    bool
	line       *fakeLine
}

func (b *fakeBackend) Open() error {
	if b.openErr != nil {
		return b.openErr
	}
	b.opened = true
	return nil
}

func (b *fakeBackend) Close() error {
	b.closed = true
	return nil
}

func (b *fakeBackend) Request(pin int, initial bool) (Line, error) {
	if b.requestErr != nil {
		return nil, b.requestErr
	}
	b.pin = pin
	b.initial = initial
	b.line = &fakeLine{}
	return b.line, nil
}

func take(t *testing.T, b Backend) *Peripherals {
	t.Helper()
	p, err := Take(b)
	require.Nil(t, err)
	t.Cleanup(func() { atomic.StoreInt32(&taken, 0) })
	return p
}

func TestTake(t *testing.T) {
	b := &fakeBackend{}
	p := take(t, b)
	assert.True(t, b.opened)
	p2, err := Take(&fakeBackend{})
	assert.ErrorIs(t, err, ErrAlreadyTaken)
	assert.Nil(t, p2)
	require.Nil(t, p.Close())
	assert.True(t, b.closed)
	assert.ErrorIs(t, p.Close(), ErrClosed)
	// returned on close
	p = take(t, &fakeBackend{})
	assert.NotNil(t, p)
}

func TestTakeOpenError(t *testing.T) {
	oerr := errors.New("no such device")
	p, err := Take(&fakeBackend{openErr: oerr})
	assert.ErrorIs(t, err, oerr)
	assert.Nil(t, p)
	// failed take doesn't hold the token
	take(t, &fakeBackend{})
}

func TestOutput(t *testing.T) {
	b := &fakeBackend{}
	p := take(t, b)
	pin, err := p.Output(8)
	require.Nil(t, err)
	assert.Equal(t, 8, b.pin)
	assert.False(t, b.initial)
	assert.Equal(t, 8, pin.Pin())
	assert.Equal(t, Low, pin.Level())

	assert.Nil(t, pin.High())
	assert.Equal(t, High, pin.Level())
	assert.Nil(t, pin.Low())
	assert.Nil(t, pin.Write(High))
	assert.Equal(t, []bool{true, false, true}, b.line.values)

	pin2, err := p.Output(9)
	assert.ErrorIs(t, err, ErrConsumed)
	assert.Nil(t, pin2)
}

func TestOutputActiveLow(t *testing.T) {
	b := &fakeBackend{}
	p := take(t, b)
	pin, err := p.Output(8, WithActiveLow())
	require.Nil(t, err)
	// logical low is electrically high
	assert.True(t, b.initial)
	assert.Nil(t, pin.High())
	assert.Nil(t, pin.Low())
	assert.Equal(t, []bool{false, true}, b.line.values)
	assert.Equal(t, Low, pin.Level())
}

func TestOutputInitial(t *testing.T) {
	b := &fakeBackend{}
	p := take(t, b)
	pin, err := p.Output(8, WithInitial(High))
	require.Nil(t, err)
	assert.True(t, b.initial)
	assert.Equal(t, High, pin.Level())
}

func TestOutputRequestError(t *testing.T) {
	b := &fakeBackend{requestErr: ErrBusy}
	p := take(t, b)
	pin, err := p.Output(8)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Nil(t, pin)
	// the attempt consumes the token
	_, err = p.Output(8)
	assert.ErrorIs(t, err, ErrConsumed)
}

func TestOutputClosed(t *testing.T) {
	p := take(t, &fakeBackend{})
	require.Nil(t, p.Close())
	pin, err := p.Output(8)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Nil(t, pin)
}

func TestWriteError(t *testing.T) {
	b := &fakeBackend{}
	p := take(t, b)
	pin, err := p.Output(8)
	require.Nil(t, err)
	require.Nil(t, pin.High())
	werr := errors.New("line fault")
	b.line.err = werr
	assert.ErrorIs(t, pin.Low(), werr)
	// level tracks the last successful write
	assert.Equal(t, High, pin.Level())
}

func TestRelease(t *testing.T) {
	b := &fakeBackend{}
	p := take(t, b)
	pin, err := p.Output(8)
	require.Nil(t, err)
	assert.Nil(t, pin.Release())
	assert.True(t, b.line.released)
	assert.ErrorIs(t, pin.Release(), ErrReleased)
	assert.ErrorIs(t, pin.High(), ErrReleased)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "high", High.String())
	assert.Equal(t, "low", Low.String())
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend("periph", "")
	assert.Nil(t, err)
	assert.IsType(t, &Periph{}, b)
	b, err = NewBackend("nosuch", "")
	assert.ErrorIs(t, err, ErrUnknownBackend)
	assert.Nil(t, b)
	assert.Contains(t, Backends(), "periph")
}

func TestRegisterDuplicate(t *testing.T) {
	assert.Panics(t, func() {
		Register("periph", func(string) Backend { return NewPeriph() })
	})
}
