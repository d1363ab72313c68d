package types

import "testing"

func TestTypeEquality(t *testing.T) {
	if ArrayOf(IntType, 2) != (Type{Kind: Int, Dims: 2}) {
		t.Error("ArrayOf(int, 2) should equal int[][]")
	}
	if SetupType("Point") == SetupType("Line") {
		t.Error("setups with different names must differ")
	}
	if ArrayOf(IntType, 1) == IntType {
		t.Error("dimensions must take part in equality")
	}
}

func TestElem(t *testing.T) {
	arr := ArrayOf(DoubleType, 3)
	for want := 2; want >= 0; want-- {
		arr = arr.Elem()
		if arr.Dims != want || arr.Kind != Double {
			t.Fatalf("Elem() = %v, want double with %d dims", arr, want)
		}
	}

	defer func() {
		if recover() == nil {
			t.Error("Elem of a scalar should panic")
		}
	}()
	_ = IntType.Elem()
}

func TestAssignableTo(t *testing.T) {
	tests := []struct {
		from, to Type
		want     bool
	}{
		{IntType, IntType, true},
		{IntType, DoubleType, true},
		{DoubleType, IntType, false},
		{CharType, IntType, false},
		{NullType, StringType, true},
		{NullType, SetupType("P"), true},
		{NullType, ArrayOf(IntType, 1), true},
		{NullType, IntType, false},
		{ArrayOf(IntType, 1), ArrayOf(DoubleType, 1), false},
		{ScrapType, ScrapType, false},
		{SetupType("P"), SetupType("Q"), false},
	}
	for _, tt := range tests {
		if got := tt.from.AssignableTo(tt.to); got != tt.want {
			t.Errorf("%v.AssignableTo(%v) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestComparable(t *testing.T) {
	tests := []struct {
		a, b Type
		want bool
	}{
		{IntType, DoubleType, true},
		{StringType, StringType, true},
		{StringType, IntType, false},
		{NullType, StringType, true},
		{SetupType("P"), NullType, true},
		{BoolType, BoolType, true},
		{CharType, IntType, false},
		{ScrapType, ScrapType, false},
	}
	for _, tt := range tests {
		if got := Comparable(tt.a, tt.b); got != tt.want {
			t.Errorf("Comparable(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestArithmetic(t *testing.T) {
	if Arithmetic(IntType, IntType) != IntType {
		t.Error("int op int should be int")
	}
	if Arithmetic(IntType, DoubleType) != DoubleType || Arithmetic(DoubleType, IntType) != DoubleType {
		t.Error("mixed arithmetic should be double")
	}
}

func TestSizesAndNames(t *testing.T) {
	tests := []struct {
		typ  Type
		size int
		name string
	}{
		{IntType, 1, "int"},
		{DoubleType, 2, "double"},
		{ArrayOf(DoubleType, 1), 1, "double[]"},
		{ScrapType, 0, "scrap"},
		{ArrayOf(SetupType("Movie"), 2), 1, "Movie[][]"},
	}
	for _, tt := range tests {
		if tt.typ.Size() != tt.size {
			t.Errorf("%v.Size() = %d, want %d", tt.typ, tt.typ.Size(), tt.size)
		}
		if tt.typ.String() != tt.name {
			t.Errorf("String() = %q, want %q", tt.typ.String(), tt.name)
		}
	}
}

func TestPrimitive(t *testing.T) {
	for _, name := range []string{"int", "double", "char", "string", "bool", "scrap"} {
		typ, ok := Primitive(name)
		if !ok || typ.String() != name {
			t.Errorf("Primitive(%q) = %v, %v", name, typ, ok)
		}
	}
	if _, ok := Primitive("Point"); ok {
		t.Error("Point is not primitive")
	}
}
