package domainerr

import (
	"errors"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("account"), http.StatusNotFound},
		{"forbidden", Forbidden("wrong owner"), http.StatusForbidden},
		{"bad request", BadRequest("missing field", nil), http.StatusBadRequest},
		{"parse error", ParseError("invalid json"), http.StatusBadRequest},
		{"conflict", Conflict("duplicate"), http.StatusConflict},
		{"auth expired", AuthExpired("token expired"), http.StatusForbidden},
		{"unauthenticated", Unauthenticated("no credential"), http.StatusUnauthorized},
		{"rate limited", RateLimited(30), http.StatusTooManyRequests},
		{"store error falls back", StoreError("get", "db down"), http.StatusInternalServerError},
		{"plain error falls back", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HTTPStatus(tc.err); got != tc.want {
				t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := NetworkError(cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected NetworkError to wrap its cause")
	}
}

func TestAsExtractsConcreteType(t *testing.T) {
	var err error = NotFound("profile")
	e, ok := As(err)
	if !ok {
		t.Fatal("expected As to succeed on a *Error")
	}
	if e.Kind != KindNotFound {
		t.Fatalf("got kind %s, want %s", e.Kind, KindNotFound)
	}
}
