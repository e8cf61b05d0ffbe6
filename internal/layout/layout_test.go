package layout

import (
	"math"
	"testing"
)

func TestCompute_KnownCounts(t *testing.T) {
	tests := []struct {
		count int
		want  Layout
	}{
		{count: -5, want: Layout{Columns: 1, Rows: 1}},
		{count: 0, want: Layout{Columns: 1, Rows: 1}},
		{count: 1, want: Layout{Columns: 1, Rows: 1}},
		{count: 2, want: Layout{Columns: 2, Rows: 1}},
		{count: 3, want: Layout{Columns: 2, Rows: 2}},
		{count: 5, want: Layout{Columns: 3, Rows: 2}},
		{count: 10, want: Layout{Columns: 4, Rows: 3}},
		{count: 20, want: Layout{Columns: 5, Rows: 4}},
		{count: 50, want: Layout{Columns: 8, Rows: 7}},
		{count: 64, want: Layout{Columns: 8, Rows: 8}},
		{count: 100, want: Layout{Columns: 10, Rows: 9}},
		{count: 1000, want: Layout{Columns: 10, Rows: 9}},
	}

	for _, tt := range tests {
		if got := Compute(tt.count, DefaultMaxCount); got != tt.want {
			t.Errorf("Compute(%d, %d) = %+v, want %+v", tt.count, DefaultMaxCount, got, tt.want)
		}
	}
}

func TestCompute_DimensionsCappedAndCovering(t *testing.T) {
	side := SideCap(DefaultMaxCount)
	if side != 10 {
		t.Fatalf("SideCap(%d) = %d, want 10", DefaultMaxCount, side)
	}

	for count := 0; count <= 1000; count++ {
		got := Compute(count, DefaultMaxCount)
		if got.Columns < 1 || got.Rows < 1 {
			t.Fatalf("Compute(%d) = %+v, want both dimensions >= 1", count, got)
		}
		if got.Columns > side || got.Rows > side {
			t.Fatalf("Compute(%d) = %+v, want both dimensions <= %d", count, got, side)
		}
		// The side cap is kept as-is; every layout either covers the items or is flagged.
		shown := min(count, DefaultMaxCount)
		if got.Cells() < shown && !got.Underfilled(count, DefaultMaxCount) {
			t.Fatalf("Compute(%d) = %+v has %d cells for %d items but is not flagged", count, got, got.Cells(), shown)
		}
	}
}

func TestCompute_UnderfilledOnlyNearCapacity(t *testing.T) {
	for count := 1; count <= DefaultMaxCount; count++ {
		got := Compute(count, DefaultMaxCount)
		underfilled := got.Underfilled(count, DefaultMaxCount)
		wantUnderfilled := (count >= 83 && count <= 88) || count >= 91
		if underfilled != wantUnderfilled {
			t.Errorf("Compute(%d) = %+v: Underfilled = %v, want %v", count, got, underfilled, wantUnderfilled)
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	for count := 0; count <= 150; count++ {
		first := Compute(count, DefaultMaxCount)
		for i := 0; i < 3; i++ {
			if again := Compute(count, DefaultMaxCount); again != first {
				t.Fatalf("Compute(%d) not deterministic: %+v then %+v", count, first, again)
			}
		}
	}
}

func TestCompute_ClampsToMaxCount(t *testing.T) {
	if got, want := Compute(500, 9), Compute(9, 9); got != want {
		t.Fatalf("Compute(500, 9) = %+v, want %+v", got, want)
	}
	if got := Compute(9, 9); got != (Layout{Columns: 3, Rows: 3}) {
		t.Fatalf("Compute(9, 9) = %+v, want 3x3", got)
	}
}

func TestCompute_NonPositiveMaxCountUsesDefault(t *testing.T) {
	if got, want := Compute(42, 0), Compute(42, DefaultMaxCount); got != want {
		t.Fatalf("Compute(42, 0) = %+v, want %+v", got, want)
	}
}

func TestCellSize(t *testing.T) {
	l := Layout{Columns: 2, Rows: 2}
	w, h := l.CellSize(800, 600, 2)
	if w != 397 || h != 297 {
		t.Fatalf("CellSize(800, 600, 2) = %dx%d, want 397x297", w, h)
	}

	w, h = Layout{}.CellSize(0, 0, 2)
	if w != 1 || h != 1 {
		t.Fatalf("CellSize on empty board = %dx%d, want 1x1", w, h)
	}
}

func TestCompute_HugeCountsStayPositive(t *testing.T) {
	tests := []struct {
		count, maxCount int
	}{
		{math.MaxInt, math.MaxInt},
		{math.MaxInt - 1, math.MaxInt - 1},
		{math.MaxInt, 100},
		{math.MaxInt, math.MaxInt / 2},
	}
	for _, tt := range tests {
		got := Compute(tt.count, tt.maxCount)
		side := SideCap(tt.maxCount)
		if got.Columns < 1 || got.Rows < 1 || got.Columns > side || got.Rows > side {
			t.Fatalf("Compute(%d, %d) = %+v, want both sides in [1, %d]", tt.count, tt.maxCount, got, side)
		}
		if got.Cells() < 1 {
			t.Fatalf("Compute(%d, %d).Cells() = %d", tt.count, tt.maxCount, got.Cells())
		}
	}
}

func TestCeilDiv(t *testing.T) {
	tests := []struct {
		a, b, want int
	}{
		{1, 1, 1},
		{10, 4, 3},
		{12, 4, 3},
		{math.MaxInt, 1, math.MaxInt},
		{math.MaxInt, 2, math.MaxInt/2 + 1},
		{math.MaxInt - 1, math.MaxInt, 1},
	}
	for _, tt := range tests {
		if got := ceilDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("ceilDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCells_Saturates(t *testing.T) {
	l := Layout{Columns: math.MaxInt / 2, Rows: 3}
	if got := l.Cells(); got != math.MaxInt {
		t.Fatalf("Cells() = %d, want math.MaxInt", got)
	}
}
