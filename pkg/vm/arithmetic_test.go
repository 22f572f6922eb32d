package vm

import "testing"

func TestBinaryOpIntArithmetic(t *testing.T) {
	h := NewHeap()
	cases := []struct {
		op      string
		a, b    int32
		want    int32
	}{
		{"add", 2, 3, 5},
		{"sub", 5, 3, 2},
		{"mul", 4, 3, 12},
		{"div", 7, 2, 3},
		{"rem", 7, 2, 1},
		{"and", 0x6, 0x3, 0x2},
		{"or", 0x6, 0x1, 0x7},
		{"xor", 0x6, 0x3, 0x5},
		{"shl", 1, 4, 16},
		{"shr", -16, 2, -4},
	}
	for _, c := range cases {
		got, err := binaryOp(h, c.op, Int, IntValue(c.a), IntValue(c.b))
		if err != nil {
			t.Fatalf("%s: %v", c.op, err)
		}
		if got.Int32() != c.want {
			t.Errorf("%s(%d,%d) = %d, want %d", c.op, c.a, c.b, got.Int32(), c.want)
		}
	}
}

func TestBinaryOpIntOverflowWraps(t *testing.T) {
	h := NewHeap()
	got, err := binaryOp(h, "add", Int, IntValue(1<<31-1), IntValue(1))
	if err != nil {
		t.Fatal(err)
	}
	if got.Int32() != -1<<31 {
		t.Errorf("overflowed add = %d, want math.MinInt32", got.Int32())
	}
}

func TestBinaryOpDivByZeroRaisesArithmeticException(t *testing.T) {
	h := NewHeap()
	_, err := binaryOp(h, "div", Int, IntValue(1), IntValue(0))
	if err == nil {
		t.Fatal("expected an ArithmeticException")
	}
	thr, ok := err.(*thrown)
	if !ok {
		t.Fatalf("err = %T, want *thrown", err)
	}
	if thr.class != "Ljava/lang/ArithmeticException;" {
		t.Errorf("thrown class = %q", thr.class)
	}
}

func TestBinaryOpRemByZeroLongRaisesArithmeticException(t *testing.T) {
	h := NewHeap()
	_, err := binaryOp(h, "rem", Long, LongValue(1), LongValue(0))
	if err == nil {
		t.Fatal("expected an ArithmeticException")
	}
}

func TestBinaryOpUnknownOperandPropagates(t *testing.T) {
	h := NewHeap()
	got, err := binaryOp(h, "add", Int, UnknownValue(), IntValue(1))
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != Unknown {
		t.Errorf("got %+v, want Unknown", got)
	}
}

func TestUnaryOpConversions(t *testing.T) {
	if got := unaryOp("neg-int", IntValue(5)); got.Int32() != -5 {
		t.Errorf("neg-int(5) = %d", got.Int32())
	}
	if got := unaryOp("int-to-byte", IntValue(257)); got.Kind != Byte || int8(got.I64) != 1 {
		t.Errorf("int-to-byte(257) = %+v, want Byte(1)", got)
	}
	if got := unaryOp("long-to-int", LongValue(1<<32+7)); got.Int32() != 7 {
		t.Errorf("long-to-int truncation = %d, want 7", got.Int32())
	}
	if got := unaryOp("int-to-double", IntValue(3)); got.Kind != Double || got.F64 != 3 {
		t.Errorf("int-to-double(3) = %+v", got)
	}
	if got := unaryOp("neg-int", UnknownValue()); got.Kind != Unknown {
		t.Errorf("neg-int(Unknown) = %+v, want Unknown", got)
	}
}

func TestCompareValuesLong(t *testing.T) {
	if got := compareValues(Long, LongValue(1), LongValue(2), true); got.Int32() != -1 {
		t.Errorf("cmp(1,2) = %d, want -1", got.Int32())
	}
	if got := compareValues(Long, LongValue(2), LongValue(2), true); got.Int32() != 0 {
		t.Errorf("cmp(2,2) = %d, want 0", got.Int32())
	}
}

func TestCompareValuesNaNBias(t *testing.T) {
	nan := DoubleValue(nan())
	if got := compareValues(Double, nan, DoubleValue(1), true); got.Int32() != -1 {
		t.Errorf("cmpl-double NaN bias = %d, want -1", got.Int32())
	}
	if got := compareValues(Double, nan, DoubleValue(1), false); got.Int32() != 1 {
		t.Errorf("cmpg-double NaN bias = %d, want 1", got.Int32())
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}
