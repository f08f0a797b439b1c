package money

import "testing"

func TestDivRoundsHalfToEven(t *testing.T) {
	cases := []struct {
		a, b, want string
	}{
		{"1", "4", "0.25000000"},
		{"10", "4", "2.50000000"},
		{"0.00000001", "2", "0.00000000"}, // 0.000000005 ties to the even digit 0
	}
	for _, c := range cases {
		a := MustFromString(c.a)
		b := MustFromString(c.b)
		got := a.Div(b).String()
		if got != c.want {
			t.Errorf("%s / %s = %s, want %s", c.a, c.b, got, c.want)
		}
	}
}

func TestMarshalUnmarshalBinaryRoundTrip(t *testing.T) {
	values := []string{"0", "100.00000000", "-42.50000000", "0.00000001", "123456789.12345678"}
	for _, v := range values {
		d := MustFromString(v)
		raw, err := d.MarshalBinary()
		if err != nil {
			t.Fatalf("marshal %s: %v", v, err)
		}
		var out Decimal
		if err := out.UnmarshalBinary(raw); err != nil {
			t.Fatalf("unmarshal %s: %v", v, err)
		}
		if !out.Equal(d) {
			t.Errorf("round trip %s -> %s", d, out)
		}
	}
}

func TestMinMax(t *testing.T) {
	a := MustFromString("5")
	b := MustFromString("7")
	if Min(a, b) != a || Max(a, b) != b {
		t.Fatal("min/max mismatch")
	}
}

func TestInt64ScaledRoundTrip(t *testing.T) {
	d := FromInt64Scaled(10000000000) // 100.00000000
	if d.String() != "100.00000000" {
		t.Fatalf("got %s", d)
	}
	if d.Int64Scaled() != 10000000000 {
		t.Fatalf("got %d", d.Int64Scaled())
	}
}
