package conv

import "testing"

func TestAppendUint(t *testing.T) {
	for _, c := range []struct {
		in   uint64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{100, "100"},
		{18446744073709551615, "18446744073709551615"},
	} {
		if got := string(AppendUint([]byte("n="), c.in)); got != "n="+c.want {
			t.Fatalf("AppendUint(%d) = %q, want %q", c.in, got, "n="+c.want)
		}
	}
}
