// Package version implements the protocol-version identity exchanged during
// a transport handshake: its wire encoding, its total order, and the
// version-family rules a handshake uses to decide what to advertise and how
// to answer an older or foreign peer.
package version

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Version is an opaque protocol-version identity. Its integer value is
// ordered the same way release numbers are: major, then minor, then
// revision, then build, each packed into two decimal digits except major.
type Version uint32

// New packs a (major, minor, revision, build) tuple into a Version. minor,
// revision and build must each fit in two decimal digits; callers passing
// the named constants below never need this directly.
func New(major, minor, revision, build int) Version {
	return Version(major*1_000_000 + minor*10_000 + revision*100 + build)
}

// Major returns the version's major component.
func (v Version) Major() int { return int(v) / 1_000_000 }

// Minor returns the version's minor component.
func (v Version) Minor() int { return (int(v) / 10_000) % 100 }

// Revision returns the version's revision component.
func (v Version) Revision() int { return (int(v) / 100) % 100 }

// Build returns the version's build component.
func (v Version) Build() int { return int(v) % 100 }

// Before reports whether v orders strictly before other.
func (v Version) Before(other Version) bool { return v < other }

// OnOrAfter reports whether v orders at or after other.
func (v Version) OnOrAfter(other Version) bool { return v >= other }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major(), v.Minor(), v.Revision(), v.Build())
}

// Distinguished version identities the handshake core must know by name.
// The four "legacy signal" ids are not real releases: they are markers
// older senders (which this core never modifies) put on the wire, and the
// markers this core itself advertises to let a receiver tell version
// families apart. See the negotiation rules below for how each is used.
const (
	V1_0_0 Version = 1_000_000
	V2_0_0 Version = 2_000_000
	V3_0_0 Version = 3_000_000

	// V6_07_99_99 and V7_09_99_99 are literals this core *advertises* in
	// place of its true minimum-compatible version, so a receiver on the
	// 6.x/7.x wire can cheaply distinguish "1.x peer" / "2.x peer" from a
	// genuine 6.8.0 / 7.10.x sender, which would otherwise look identical.
	V6_07_99_99 Version = 6_079_999
	V7_09_99_99 Version = 7_099_999

	// V6_08_00_99 and V5_06_00_99 are literals this core *recognises on
	// receive* as rolling-upgrade signals from a legacy peer's wire
	// version. They are unrelated to the two advertised markers above;
	// the two tables are orthogonal by design (see ResponseVersion).
	V6_08_00_99 Version = 6_080_099
	V5_06_00_99 Version = 5_060_099

	// V7_10_2 is the fixed legacy response version sent back to a peer
	// recognised via V6_08_00_99 or V5_06_00_99, so it can decode the
	// reply in its own version universe.
	V7_10_2 = Version(7*1_000_000 + 10*10_000 + 2*100)
)

// MinimumCompatibilityVersion returns the oldest version identity v's
// family can still exchange cluster traffic with. OpenSearch-family majors
// (2.x, 3.x+) step back exactly one major boundary; the 1.x family and the
// foreign 5.x/6.x/7.x marker families it forked from share a boundary at
// V7_10_2, since 1.x is wire-compatible with the Elasticsearch 7.10 line it
// branched from.
func (v Version) MinimumCompatibilityVersion() Version {
	switch {
	case v.Major() == 1:
		return V7_10_2
	case v.Major() == 2:
		return V1_0_0
	case v.Major() == 5 || v.Major() == 6 || v.Major() == 7:
		return V1_0_0
	default: // v.Major() == 0, or v.Major() >= 3
		return V2_0_0
	}
}

// IsCompatible reports whether v and other can speak the same wire
// protocol: each must be no older than the other's minimum-compatible
// version. It is symmetric (v.IsCompatible(other) == other.IsCompatible(v)),
// though the handshake only ever calls it from the receiver's side, to
// validate a remote's reported version against the local one.
func (v Version) IsCompatible(other Version) bool {
	return other.OnOrAfter(v.MinimumCompatibilityVersion()) &&
		v.OnOrAfter(other.MinimumCompatibilityVersion())
}

// AdvertisedMinCompatible computes the minimum-compatible version a node
// running local puts on the wire in a handshake request. This is
// deliberately not always local's true MinimumCompatibilityVersion(): the
// 1.x and 2.x families lie about it so a responder can discriminate them
// from the foreign families that would otherwise report the same value.
func AdvertisedMinCompatible(local Version) Version {
	switch {
	case local.OnOrAfter(V1_0_0) && local.Before(V2_0_0):
		return V6_07_99_99
	case local.OnOrAfter(V2_0_0):
		return V7_09_99_99
	default:
		return local.MinimumCompatibilityVersion()
	}
}

// ResponseVersion computes the version a responder running local replies
// with, given the wire version the inbound request reported (not the
// decoded payload version; see the handshake package's server path).
//
// The bound here is intentionally wider than AdvertisedMinCompatible's
// (< V3_0_0 rather than < V2_0_0): a local version in [V2_0_0, V3_0_0)
// therefore both advertises V7_09_99_99 and remains eligible to answer
// with the legacy V7_10_2. This mirrors the source behaviour exactly; it
// is a rolling-upgrade window, not a bug, and must not be "fixed".
func ResponseVersion(local, remoteWire Version) Version {
	if local.OnOrAfter(V1_0_0) && local.Before(V3_0_0) &&
		(remoteWire == V6_08_00_99 || remoteWire == V5_06_00_99) {
		return V7_10_2
	}
	return local
}

// Write encodes v's integer identity to w as a 4-byte big-endian value.
func Write(w io.Writer, v Version) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

// Read decodes a Version from r's next 4 bytes.
func Read(r io.Reader) (Version, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return Version(binary.BigEndian.Uint32(buf[:])), nil
}
