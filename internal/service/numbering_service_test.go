package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/enrollease/enrollease-api/pkg/errors"
)

type mockNumberSource struct {
	max string
	err error
}

func (m *mockNumberSource) MaxNumberForPrefix(ctx context.Context, prefix string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.max, nil
}

func TestNumberingServiceFirstNumber(t *testing.T) {
	svc := NewNumberingService(&mockNumberSource{err: sql.ErrNoRows}, 4, nil)

	number, err := svc.Next(context.Background(), "26-")
	require.NoError(t, err)
	assert.Equal(t, "26-0001", number)
}

func TestNumberingServiceIncrements(t *testing.T) {
	svc := NewNumberingService(&mockNumberSource{max: "26-0042"}, 4, nil)

	number, err := svc.Next(context.Background(), "26-")
	require.NoError(t, err)
	assert.Equal(t, "26-0043", number)
}

func TestNumberingServiceZeroPadding(t *testing.T) {
	svc := NewNumberingService(&mockNumberSource{max: "26-0009"}, 4, nil)

	number, err := svc.Next(context.Background(), "26-")
	require.NoError(t, err)
	assert.Equal(t, "26-0010", number)
}

func TestNumberingServiceSuffixWidth(t *testing.T) {
	svc := NewNumberingService(&mockNumberSource{max: "2026-001"}, 3, nil)

	number, err := svc.Next(context.Background(), "2026-")
	require.NoError(t, err)
	assert.Equal(t, "2026-002", number)
}

func TestNumberingServiceRejectsBadPrefix(t *testing.T) {
	svc := NewNumberingService(&mockNumberSource{}, 4, nil)

	for _, prefix := range []string{"", "26", "-26", "abc-", "26-0001"} {
		_, err := svc.Next(context.Background(), prefix)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation), "prefix %q should be rejected", prefix)
	}
}

func TestNumberingServiceSurfacesStoreFailure(t *testing.T) {
	svc := NewNumberingService(&mockNumberSource{err: errors.New("connection refused")}, 4, nil)

	_, err := svc.Next(context.Background(), "26-")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrStoreUnavailable))
}

func TestNumberingServiceMalformedStoredNumber(t *testing.T) {
	svc := NewNumberingService(&mockNumberSource{max: "26-ABCD"}, 4, nil)

	_, err := svc.Next(context.Background(), "26-")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInternal))
}
