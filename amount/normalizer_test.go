package amount

import (
	"testing"

	"github.com/Azurepeal/matrixswap-lib/common/errors"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no dot", "123", "123"},
		{"single dot", "1.23", "1.23"},
		{"double dot", "1.2.3", "1.23"},
		{"many dots", "1.2.3.4", "1.234"},
		{"leading dot", ".5.5", ".55"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("whole amount", func(t *testing.T) {
		v, err := Normalize("12", 18)
		require.NoError(t, err)
		require.Equal(t, "12000000000000000000", v.String())
	})

	t.Run("fractional amount", func(t *testing.T) {
		v, err := Normalize("1.5", 6)
		require.NoError(t, err)
		require.Equal(t, "1500000", v.String())
	})

	t.Run("excess fraction truncated", func(t *testing.T) {
		v, err := Normalize("1.123456789", 6)
		require.NoError(t, err)
		require.Equal(t, "1123456", v.String())
	})

	t.Run("bare dot input sanitized", func(t *testing.T) {
		v, err := Normalize("1.2.3", 2)
		require.NoError(t, err)
		require.Equal(t, "123", v.String())
	})

	t.Run("zero is valid", func(t *testing.T) {
		v, err := Normalize("0", 18)
		require.NoError(t, err)
		require.Equal(t, 0, v.Sign())
	})

	t.Run("leading dot", func(t *testing.T) {
		v, err := Normalize(".5", 2)
		require.NoError(t, err)
		require.Equal(t, "50", v.String())
	})

	t.Run("max integer digits accepted", func(t *testing.T) {
		v, err := Normalize("9999999999", 0)
		require.NoError(t, err)
		require.Equal(t, "9999999999", v.String())
	})

	t.Run("over max integer digits rejected", func(t *testing.T) {
		_, err := Normalize("12345678901", 0)
		require.Error(t, err)
		require.True(t, pkgerrors.Is(err, errors.ErrInvalidAmount))
	})

	t.Run("leading zeros do not count against the limit", func(t *testing.T) {
		v, err := Normalize("0001234567890", 0)
		require.NoError(t, err)
		require.Equal(t, "1234567890", v.String())
	})

	t.Run("empty input rejected", func(t *testing.T) {
		_, err := Normalize("", 18)
		require.True(t, pkgerrors.Is(err, errors.ErrInvalidAmount))
	})

	t.Run("non numeric rejected", func(t *testing.T) {
		_, err := Normalize("12a", 18)
		require.True(t, pkgerrors.Is(err, errors.ErrInvalidAmount))
	})

	t.Run("negative rejected", func(t *testing.T) {
		_, err := Normalize("-1", 18)
		require.True(t, pkgerrors.Is(err, errors.ErrInvalidAmount))
	})
}

func TestFromBaseUnits(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		v, err := Normalize("1234.5678", 8)
		require.NoError(t, err)
		require.Equal(t, "1234.5678", FromBaseUnits(v, 8))
	})

	t.Run("sub unit value", func(t *testing.T) {
		v, err := Normalize("0.000001", 18)
		require.NoError(t, err)
		require.Equal(t, "0.000001", FromBaseUnits(v, 18))
	})

	t.Run("nil is zero", func(t *testing.T) {
		require.Equal(t, "0", FromBaseUnits(nil, 18))
	})
}
