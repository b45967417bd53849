package utils

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "short", want: "*****"},
		{in: "exactly12chr", want: "************"},
		{in: "eyJhbGciOiJIUzI1NiJ9.payload", want: "eyJh********************load"},
		{in: "äöüß", want: "****"},
		{in: "ключ-доступа-секрет", want: "ключ***********крет"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got := MaskSecret(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
