package source

import (
	"testing"
)

func TestSpan_Slice(t *testing.T) {
	tests := []struct {
		name     string
		span     Span
		start    uint32
		length   uint32
		expected Span
	}{
		{
			name:     "inner slice",
			span:     Span{File: 1, Start: 10, End: 30},
			start:    5,
			length:   3,
			expected: Span{File: 1, Start: 15, End: 18},
		},
		{
			name:     "slice at origin",
			span:     Span{File: 1, Start: 10, End: 30},
			start:    0,
			length:   1,
			expected: Span{File: 1, Start: 10, End: 11},
		},
		{
			name:     "zero-length slice",
			span:     Span{File: 1, Start: 10, End: 30},
			start:    4,
			length:   0,
			expected: Span{File: 1, Start: 14, End: 14},
		},
		{
			name:     "length clamped to span end",
			span:     Span{File: 1, Start: 10, End: 20},
			start:    8,
			length:   100,
			expected: Span{File: 1, Start: 18, End: 20},
		},
		{
			name:     "start clamped to span end",
			span:     Span{File: 1, Start: 10, End: 20},
			start:    50,
			length:   2,
			expected: Span{File: 1, Start: 20, End: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.span.Slice(tt.start, tt.length)
			if result != tt.expected {
				t.Errorf("Slice() = %+v, want %+v", result, tt.expected)
			}
		})
	}
}

func TestSpan_Cover(t *testing.T) {
	tests := []struct {
		name     string
		span     Span
		other    Span
		expected Span
	}{
		{
			name:     "disjoint spans merge",
			span:     Span{File: 1, Start: 10, End: 20},
			other:    Span{File: 1, Start: 30, End: 40},
			expected: Span{File: 1, Start: 10, End: 40},
		},
		{
			name:     "contained span is a no-op",
			span:     Span{File: 1, Start: 10, End: 40},
			other:    Span{File: 1, Start: 20, End: 30},
			expected: Span{File: 1, Start: 10, End: 40},
		},
		{
			name:     "different file ignored",
			span:     Span{File: 1, Start: 10, End: 20},
			other:    Span{File: 2, Start: 0, End: 100},
			expected: Span{File: 1, Start: 10, End: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.span.Cover(tt.other)
			if result != tt.expected {
				t.Errorf("Cover() = %+v, want %+v", result, tt.expected)
			}
		})
	}
}

func TestSpan_EmptyAndLen(t *testing.T) {
	s := Span{File: 1, Start: 5, End: 5}
	if !s.Empty() {
		t.Errorf("expected empty span")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}

	s = Span{File: 1, Start: 5, End: 9}
	if s.Empty() {
		t.Errorf("expected non-empty span")
	}
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
	if !s.Contains(5) || !s.Contains(8) || s.Contains(9) {
		t.Errorf("Contains() boundaries wrong for %+v", s)
	}
}
