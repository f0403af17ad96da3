package buffer

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestNewFrameBuffer(t *testing.T) {
	// Test with valid bounds
	fb := NewFrameBuffer(100, 4096)
	if fb.Cap() != 100 {
		t.Errorf("expected capacity 100, got %d", fb.Cap())
	}
	if fb.Len() != 0 {
		t.Errorf("expected length 0, got %d", fb.Len())
	}

	// Test with zero frame bound (should default to 1)
	fb = NewFrameBuffer(0, 0)
	if fb.Cap() != 1 {
		t.Errorf("expected capacity 1 for zero input, got %d", fb.Cap())
	}

	// Test with negative frame bound (should default to 1)
	fb = NewFrameBuffer(-5, 0)
	if fb.Cap() != 1 {
		t.Errorf("expected capacity 1 for negative input, got %d", fb.Cap())
	}
}

func TestFrameBuffer_Append(t *testing.T) {
	fb := NewFrameBuffer(3, 0)

	fb.Append([]byte("one"))
	fb.Append([]byte("two"))
	if fb.Len() != 2 {
		t.Errorf("expected 2 frames, got %d", fb.Len())
	}
	if fb.Size() != 6 {
		t.Errorf("expected size 6, got %d", fb.Size())
	}

	frames := fb.ReadAll()
	if len(frames) != 2 || !bytes.Equal(frames[0], []byte("one")) || !bytes.Equal(frames[1], []byte("two")) {
		t.Errorf("unexpected frames: %q", frames)
	}
}

func TestFrameBuffer_AppendEvictsOldest(t *testing.T) {
	fb := NewFrameBuffer(3, 0)

	fb.Append([]byte("a"))
	fb.Append([]byte("b"))
	fb.Append([]byte("c"))
	fb.Append([]byte("d"))

	frames := fb.ReadAll()
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	want := []string{"b", "c", "d"}
	for i, w := range want {
		if string(frames[i]) != w {
			t.Errorf("frame %d = %q, want %q", i, frames[i], w)
		}
	}
}

func TestFrameBuffer_ByteBoundEvictsWholeFrames(t *testing.T) {
	fb := NewFrameBuffer(10, 10)

	fb.Append([]byte("01234"))
	fb.Append([]byte("56789"))
	// Exceeds the byte bound; the oldest frame goes whole.
	fb.Append([]byte("abc"))

	frames := fb.ReadAll()
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if !bytes.Equal(frames[0], []byte("56789")) || !bytes.Equal(frames[1], []byte("abc")) {
		t.Errorf("unexpected frames: %q", frames)
	}
	if fb.Size() != 8 {
		t.Errorf("expected size 8, got %d", fb.Size())
	}
}

func TestFrameBuffer_OversizedFrameKeptAlone(t *testing.T) {
	fb := NewFrameBuffer(10, 5)

	fb.Append([]byte("ab"))
	fb.Append([]byte("0123456789"))

	frames := fb.ReadAll()
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if !bytes.Equal(frames[0], []byte("0123456789")) {
		t.Errorf("unexpected frame: %q", frames[0])
	}
}

func TestFrameBuffer_AppendEmpty(t *testing.T) {
	fb := NewFrameBuffer(3, 0)
	fb.Append([]byte("hello"))

	fb.Append([]byte{})

	frames := fb.ReadAll()
	if len(frames) != 1 || !bytes.Equal(frames[0], []byte("hello")) {
		t.Errorf("unexpected frames: %q", frames)
	}
}

func TestFrameBuffer_ReadAllReturnsCopies(t *testing.T) {
	fb := NewFrameBuffer(3, 0)

	// ReadAll on empty buffer
	if frames := fb.ReadAll(); frames != nil {
		t.Errorf("expected nil for empty buffer, got %v", frames)
	}

	fb.Append([]byte("test"))
	frames := fb.ReadAll()
	frames[0][0] = 'X'

	frames2 := fb.ReadAll()
	if !bytes.Equal(frames2[0], []byte("test")) {
		t.Errorf("ReadAll should return copies, got %q", frames2[0])
	}
}

func TestFrameBuffer_Clear(t *testing.T) {
	fb := NewFrameBuffer(3, 0)
	fb.Append([]byte("hello"))

	fb.Clear()

	if fb.Len() != 0 {
		t.Errorf("expected length 0 after clear, got %d", fb.Len())
	}
	if fb.Size() != 0 {
		t.Errorf("expected size 0 after clear, got %d", fb.Size())
	}
	if frames := fb.ReadAll(); frames != nil {
		t.Errorf("expected nil after clear, got %v", frames)
	}

	// Should be able to append again after clear
	fb.Append([]byte("world"))
	frames := fb.ReadAll()
	if len(frames) != 1 || !bytes.Equal(frames[0], []byte("world")) {
		t.Errorf("unexpected frames after clear: %q", frames)
	}
}

// Property: whatever is appended, the buffer holds a contiguous suffix of
// the appended stream in original order, within both bounds.
func TestFrameBufferSuffixProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("buffered frames are a contiguous ordered suffix", prop.ForAll(
		func(payloads []string, maxFrames int) bool {
			fb := NewFrameBuffer(maxFrames, 0)

			var appended [][]byte
			for i, p := range payloads {
				frame := []byte(fmt.Sprintf("%d:%s", i, p))
				appended = append(appended, frame)
				fb.Append(frame)
			}

			got := fb.ReadAll()
			if len(got) > maxFrames {
				return false
			}

			// Compare against the tail of the appended stream.
			tail := appended
			if len(tail) > len(got) {
				tail = tail[len(tail)-len(got):]
			} else if len(tail) < len(got) {
				return false
			}
			for i := range got {
				if !bytes.Equal(got[i], tail[i]) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}
