package errcode

import (
	"errors"
	"testing"
)

func TestOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, OK},
		{"bare code", Busy, Busy},
		{"wrapped E", Wrap(InvalidConfig, "config", "period is zero"), InvalidConfig},
		{"foreign error", errors.New("boom"), Error},
	}
	for _, c := range cases {
		if got := Of(c.err); got != c.want {
			t.Fatalf("%s: Of() = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestEFormatsOpAndMsg(t *testing.T) {
	err := Wrap(AlreadyRegistered, "testmux.Register", "pid 3")
	if got, want := err.Error(), "testmux.Register: already_registered: pid 3"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	cause := errors.New("radio down")
	e := &E{C: NotifyFailed, Err: cause}
	if !errors.Is(e, cause) {
		t.Fatal("expected Unwrap to expose the cause")
	}
}
