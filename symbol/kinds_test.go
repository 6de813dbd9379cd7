package symbol

import (
	"errors"
	"testing"

	"github.com/soypat/fort2go/ir"
)

func TestKindTable(t *testing.T) {
	var tests = []struct {
		ts       ir.TypeSpec
		want     string
		wantNote bool
		wantErr  bool
	}{
		{ts: ir.TypeSpec{Type: ir.TypeReal}, want: "float64", wantNote: true},
		{ts: ir.TypeSpec{Type: ir.TypeReal, Kind: 4}, want: "float32"},
		{ts: ir.TypeSpec{Type: ir.TypeReal, Kind: 8}, want: "float64"},
		{ts: ir.TypeSpec{Type: ir.TypeReal, Kind: 2}, want: "float32", wantNote: true},
		{ts: ir.TypeSpec{Type: ir.TypeReal, Kind: 10}, want: "float64", wantNote: true},
		{ts: ir.TypeSpec{Type: ir.TypeReal, Kind: 16}, want: "float64", wantNote: true},
		{ts: ir.TypeSpec{Type: ir.TypeReal, Kind: 1}, wantErr: true},
		{ts: ir.TypeSpec{Type: ir.TypeReal, Kind: 3}, wantErr: true},
		{ts: ir.TypeSpec{Type: ir.TypeInteger}, want: "int32"},
		{ts: ir.TypeSpec{Type: ir.TypeInteger, Kind: 1}, want: "int8"},
		{ts: ir.TypeSpec{Type: ir.TypeInteger, Kind: 2}, want: "int16"},
		{ts: ir.TypeSpec{Type: ir.TypeInteger, Kind: 4}, want: "int32"},
		{ts: ir.TypeSpec{Type: ir.TypeInteger, Kind: 8}, want: "int64"},
		{ts: ir.TypeSpec{Type: ir.TypeInteger, Kind: 16}, want: "int64", wantNote: true},
		{ts: ir.TypeSpec{Type: ir.TypeInteger, Kind: 3}, wantErr: true},
		{ts: ir.TypeSpec{Type: ir.TypeLogical}, want: "bool"},
		{ts: ir.TypeSpec{Type: ir.TypeLogical, Kind: 8}, want: "bool"},
		{ts: ir.TypeSpec{Type: ir.TypeLogical, Kind: 16}, wantErr: true},
		{ts: ir.TypeSpec{Type: ir.TypeCharacter, CharLen: 8}, want: "string"},
		{ts: ir.TypeSpec{Type: ir.TypeCharacter, Kind: 1}, want: "string"},
		{ts: ir.TypeSpec{Type: ir.TypeCharacter, Kind: 4}, wantErr: true},
		{ts: ir.TypeSpec{Type: ir.TypeDoublePrecision}, want: "float64"},
		{ts: ir.TypeSpec{Type: ir.TypeDoublePrecision, Kind: 8}, wantErr: true},
		{ts: ir.TypeSpec{Type: ir.TypeDerived, TypeName: "point"}, want: "point"},
		{ts: ir.TypeSpec{Type: ir.TypeComplex}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.ts.String(), func(t *testing.T) {
			got, note, err := GoType(tt.ts)
			if tt.wantErr {
				var kerr *KindError
				if !errors.As(err, &kerr) {
					t.Fatalf("want KindError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
			if (note != "") != tt.wantNote {
				t.Errorf("note %q, want note=%v", note, tt.wantNote)
			}
		})
	}
}

func TestKindDeterministic(t *testing.T) {
	for k := 0; k <= 16; k++ {
		a, _, errA := RealFromKind(k)
		b, _, errB := RealFromKind(k)
		if a != b || (errA == nil) != (errB == nil) {
			t.Fatalf("RealFromKind(%d) not deterministic", k)
		}
	}
}

func TestKindErrorMessage(t *testing.T) {
	_, _, err := IntFromKind(3)
	const want = "KIND=3 is not supported for INTEGER"
	if err == nil || err.Error() != want {
		t.Fatalf("got %v, want %q", err, want)
	}
}
