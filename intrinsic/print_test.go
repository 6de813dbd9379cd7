package intrinsic

import (
	"bytes"
	"testing"
)

func TestListDirected(t *testing.T) {
	tests := []struct {
		items []any
		want  string
	}{
		{[]any{int32(42)}, "          42"},
		{[]any{int32(-7), int32(3)}, "          -7           3"},
		{[]any{"x =", int32(1)}, " x =           1"},
		{[]any{"ab", "cd"}, " abcd"},
		{[]any{true, false}, " T F"},
		{[]any{float64(3)}, "   3.0000000000000000"},
		{[]any{NewArray([]int32{1, 2}, 2)}, "           1           2"},
	}
	for _, tt := range tests {
		got := Sprint(tt.items...)
		if got != tt.want {
			t.Errorf("Sprint(%v)\ngot  %q\nwant %q", tt.items, got, tt.want)
		}
	}
}

func TestFormatterWriter(t *testing.T) {
	var buf bytes.Buffer
	f := Formatter{W: &buf}
	if err := f.Print("done"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != " done\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestUnsupportedItemPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Sprint(struct{}{})
}
