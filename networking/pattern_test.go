package networking

import "testing"

// TestFieldSize covers the payload boundary and dropped remainder.
func TestFieldSize(t *testing.T) {
	cases := map[int]int{
		-1:    0,
		0:     0,
		7:     0,
		8:     1,
		15:    1,
		16:    2,
		80000: 10000,
		80007: 10000,
	}
	for payload, want := range cases {
		got := FieldSize(payload)
		if got != want {
			t.Errorf("FieldSize(%d): expected %d, got %d", payload, want, got)
		}
		if got > 0 && 8*got > payload {
			t.Errorf("FieldSize(%d): %d fields of %d exceed payload", payload, 8, got)
		}
	}
}

// TestFirstMismatch walks the pattern across chunk boundaries.
func TestFirstMismatch(t *testing.T) {
	const fieldSize = 3
	stream := make([]byte, 0, 2*8*fieldSize)
	for m := 0; m < 2; m++ {
		for f := 0; f < 8; f++ {
			for i := 0; i < fieldSize; i++ {
				stream = append(stream, PatternByte(f))
			}
		}
	}
	if stream[0] != 'A' || stream[len(stream)-1] != 'H' {
		t.Fatalf("Unexpected pattern edges %q %q", stream[0], stream[len(stream)-1])
	}

	// Split at an offset that is not field aligned.
	if at := FirstMismatch(stream[:10], fieldSize, 0); at != -1 {
		t.Errorf("Expected no mismatch in head, got %d", at)
	}
	if at := FirstMismatch(stream[10:], fieldSize, 10); at != -1 {
		t.Errorf("Expected no mismatch in tail, got %d", at)
	}

	broken := append([]byte(nil), stream...)
	broken[29] = 'Z'
	if at := FirstMismatch(broken[10:], fieldSize, 10); at != 19 {
		t.Errorf("Expected mismatch at 19, got %d", at)
	}
}
