// Package buffer provides a bounded frame buffer for panel replay.
package buffer

import (
	"sync"
)

// FrameBuffer is a thread-safe bounded buffer that stores the most recent
// whole frames up to a frame count and a total byte size. When a bound is
// exceeded, oldest frames are discarded whole; frames are never split.
//
// This is used to cache the frames posted to a panel page so that a page
// attaching (or re-attaching) receives the recent history as a contiguous
// suffix of the stream, in original delivery order, before live frames.
type FrameBuffer struct {
	frames    [][]byte
	maxFrames int
	maxBytes  int
	size      int
	mu        sync.RWMutex
}

// NewFrameBuffer creates a new FrameBuffer bounded by maxFrames frames and
// maxBytes total bytes. Non-positive bounds default to 1 frame and to an
// unlimited byte size respectively.
func NewFrameBuffer(maxFrames, maxBytes int) *FrameBuffer {
	if maxFrames <= 0 {
		maxFrames = 1
	}
	if maxBytes <= 0 {
		maxBytes = 0
	}
	return &FrameBuffer{
		frames:    make([][]byte, 0, maxFrames),
		maxFrames: maxFrames,
		maxBytes:  maxBytes,
	}
}

// Append stores a copy of frame, discarding oldest frames until both
// bounds hold. A single frame larger than the byte bound evicts all
// buffered frames and is kept alone, so the buffer always holds a
// contiguous suffix of the appended stream.
func (fb *FrameBuffer) Append(frame []byte) {
	if len(frame) == 0 {
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	cp := make([]byte, len(frame))
	copy(cp, frame)

	fb.frames = append(fb.frames, cp)
	fb.size += len(cp)

	for len(fb.frames) > 1 && (len(fb.frames) > fb.maxFrames || (fb.maxBytes > 0 && fb.size > fb.maxBytes)) {
		fb.size -= len(fb.frames[0])
		fb.frames[0] = nil
		fb.frames = fb.frames[1:]
	}
}

// ReadAll returns copies of all buffered frames in delivery order.
// The returned slices are safe to use without holding the lock.
func (fb *FrameBuffer) ReadAll() [][]byte {
	fb.mu.RLock()
	defer fb.mu.RUnlock()

	if len(fb.frames) == 0 {
		return nil
	}

	result := make([][]byte, len(fb.frames))
	for i, f := range fb.frames {
		cp := make([]byte, len(f))
		copy(cp, f)
		result[i] = cp
	}
	return result
}

// Clear removes all frames from the buffer.
func (fb *FrameBuffer) Clear() {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	fb.frames = fb.frames[:0]
	fb.size = 0
}

// Len returns the current number of buffered frames.
func (fb *FrameBuffer) Len() int {
	fb.mu.RLock()
	defer fb.mu.RUnlock()

	return len(fb.frames)
}

// Size returns the total byte size of buffered frames.
func (fb *FrameBuffer) Size() int {
	fb.mu.RLock()
	defer fb.mu.RUnlock()

	return fb.size
}

// Cap returns the frame-count bound of the buffer.
func (fb *FrameBuffer) Cap() int {
	return fb.maxFrames
}
