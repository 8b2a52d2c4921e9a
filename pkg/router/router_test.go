package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ErrorMapper(t *testing.T) {
	sentinel := errors.New("domain failure")
	router := New(WithErrorMapper(func(err error) Error {
		if errors.Is(err, sentinel) {
			return NewJsonError(409, err.Error())
		}
		return nil
	}))

	tcs := []struct {
		name string
		err  error
		exp  Error
	}{
		{
			name: "mapped domain error",
			err:  sentinel,
			exp:  NewJsonError(409, "domain failure"),
		},
		{
			name: "unmapped error falls back to default",
			err:  errors.New("random error"),
			exp:  router.defaultError,
		},
		{
			name: "api errors pass through untouched",
			err:  NewJsonError(400, "API Error"),
			exp:  NewJsonError(400, "API Error"),
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got := router.mapError(tc.err)
			assert.Equal(t, tc.exp, got)
		})
	}
}

func Test_ErrorMapperAbsent(t *testing.T) {
	router := New()
	got := router.mapError(errors.New("anything"))
	assert.Equal(t, router.defaultError, got)
}
