package version

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessors(t *testing.T) {
	v := New(2, 5, 13, 7)
	assert.Equal(t, 2, v.Major())
	assert.Equal(t, 5, v.Minor())
	assert.Equal(t, 13, v.Revision())
	assert.Equal(t, 7, v.Build())
}

func TestTotalOrder(t *testing.T) {
	assert.True(t, V1_0_0.Before(V2_0_0))
	assert.True(t, V2_0_0.OnOrAfter(V1_0_0))
	assert.False(t, V1_0_0.OnOrAfter(V2_0_0))
}

func TestNamedConstants(t *testing.T) {
	cases := []struct {
		name                          string
		v                             Version
		major, minor, revision, build int
	}{
		{"V1_0_0", V1_0_0, 1, 0, 0, 0},
		{"V2_0_0", V2_0_0, 2, 0, 0, 0},
		{"V3_0_0", V3_0_0, 3, 0, 0, 0},
		{"V6_07_99_99", V6_07_99_99, 6, 7, 99, 99},
		{"V7_09_99_99", V7_09_99_99, 7, 9, 99, 99},
		{"V6_08_00_99", V6_08_00_99, 6, 8, 0, 99},
		{"V5_06_00_99", V5_06_00_99, 5, 6, 0, 99},
		{"V7_10_2", V7_10_2, 7, 10, 2, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.major, c.v.Major())
			assert.Equal(t, c.minor, c.v.Minor())
			assert.Equal(t, c.revision, c.v.Revision())
			assert.Equal(t, c.build, c.v.Build())
		})
	}
}

func TestAdvertisedMinCompatible(t *testing.T) {
	assert.Equal(t, V6_07_99_99, AdvertisedMinCompatible(New(1, 3, 0, 0)))
	assert.Equal(t, V7_09_99_99, AdvertisedMinCompatible(New(2, 5, 0, 0)))
	assert.Equal(t, V7_09_99_99, AdvertisedMinCompatible(New(2, 0, 0, 0)))
}

func TestResponseVersionLegacySignal(t *testing.T) {
	local := New(1, 3, 0, 0)
	assert.Equal(t, V7_10_2, ResponseVersion(local, V5_06_00_99))
	assert.Equal(t, V7_10_2, ResponseVersion(local, V6_08_00_99))
}

func TestResponseVersionVerbatim(t *testing.T) {
	local := New(2, 5, 0, 0)
	assert.Equal(t, local, ResponseVersion(local, V7_09_99_99))
}

func TestResponseVersionAsymmetricWindow(t *testing.T) {
	// A local version in [V2_0_0, V3_0_0) is still eligible to answer
	// with the legacy V7_10_2, even though AdvertisedMinCompatible's own
	// boundary sits at V2_0_0. This is the documented, deliberate
	// asymmetry, not a bug to fix.
	local := New(2, 9, 0, 0)
	assert.Equal(t, V7_10_2, ResponseVersion(local, V6_08_00_99))
}

func TestIsCompatibleSameVersion(t *testing.T) {
	v := New(2, 5, 0, 0)
	assert.True(t, v.IsCompatible(v))
}

func TestIsCompatibleLegacyFamily(t *testing.T) {
	local := New(1, 3, 0, 0)
	assert.True(t, local.IsCompatible(V7_10_2))
}

func TestIsCompatibleRejectsAncientPeer(t *testing.T) {
	local := V2_0_0
	ancient := New(0, 90, 0, 0)
	assert.False(t, local.IsCompatible(ancient))
}

func TestWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, V7_09_99_99))
	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, V7_09_99_99, got)
}

func TestReadTruncated(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{0x01, 0x02}))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestString(t *testing.T) {
	assert.Equal(t, "7.10.2.0", V7_10_2.String())
}
