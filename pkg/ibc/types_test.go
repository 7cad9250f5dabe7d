package ibc

import "testing"

func TestHeightCompare(t *testing.T) {
	cases := []struct {
		a, b Height
		want int
	}{
		{Height{1, 5}, Height{1, 5}, 0},
		{Height{1, 4}, Height{1, 5}, -1},
		{Height{1, 6}, Height{1, 5}, 1},
		{Height{1, 100}, Height{2, 0}, -1},
		{Height{2, 0}, Height{1, 100}, 1},
	}
	for _, c := range cases {
		if got := c.a.Compare(c.b); got != c.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestHeightLTAndGTE(t *testing.T) {
	if !(Height{1, 4}).LT(Height{1, 5}) {
		t.Error("expected 1-4 < 1-5")
	}
	if (Height{1, 5}).LT(Height{1, 5}) {
		t.Error("expected 1-5 not < 1-5")
	}
	if !(Height{1, 5}).GTE(Height{1, 5}) {
		t.Error("expected 1-5 >= 1-5")
	}
	if (Height{1, 4}).GTE(Height{1, 5}) {
		t.Error("expected 1-4 not >= 1-5")
	}
}

func TestHeightIsZero(t *testing.T) {
	if !ZeroHeight.IsZero() {
		t.Error("expected ZeroHeight.IsZero()")
	}
	if (Height{RevisionNumber: 1}).IsZero() {
		t.Error("expected a nonzero revision number to not be zero")
	}
}

func TestHeightIncrement(t *testing.T) {
	h := Height{RevisionNumber: 3, RevisionHeight: 9}
	got := h.Increment()
	want := Height{RevisionNumber: 3, RevisionHeight: 10}
	if got != want {
		t.Errorf("Increment() = %v, want %v", got, want)
	}
}

func TestHeightStringAndParseRoundTrip(t *testing.T) {
	h := Height{RevisionNumber: 7, RevisionHeight: 1234}
	s := h.String()
	if s != "7-1234" {
		t.Errorf("String() = %q, want %q", s, "7-1234")
	}
	parsed, err := ParseHeight(s)
	if err != nil {
		t.Fatalf("ParseHeight: %v", err)
	}
	if parsed != h {
		t.Errorf("ParseHeight(%q) = %v, want %v", s, parsed, h)
	}
}

func TestParseHeightRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "7", "a-1", "7-b", "7-1-2"} {
		if _, err := ParseHeight(s); err == nil {
			t.Errorf("ParseHeight(%q): expected an error", s)
		}
	}
}

func TestNumericID(t *testing.T) {
	n, ok := NumericID("07-tendermint-12")
	if !ok || n != 12 {
		t.Errorf("NumericID(07-tendermint-12) = (%d, %v), want (12, true)", n, ok)
	}
	if _, ok := NumericID("no-suffix-"); ok {
		t.Error("expected a trailing dash with no digits to not parse")
	}
	if _, ok := NumericID("nodash"); ok {
		t.Error("expected an identifier with no dash to not parse")
	}
}

func TestFormatNumericID(t *testing.T) {
	if got := FormatNumericID("channel", 7); got != "channel-7" {
		t.Errorf("FormatNumericID = %q, want %q", got, "channel-7")
	}
}

func TestDefaultPrefixFor(t *testing.T) {
	if p, ok := DefaultPrefixFor(IbcInterfaceIbcGoV8Native); !ok || p != DefaultPrefix {
		t.Errorf("DefaultPrefixFor(ibc-go-v8-native) = (%q, %v), want (%q, true)", p, ok, DefaultPrefix)
	}
	if _, ok := DefaultPrefixFor(IbcInterfaceIbcSolidity); ok {
		t.Error("expected no default prefix for a non-Cosmos-SDK interface")
	}
}

func TestPathHelpers(t *testing.T) {
	if got := ClientStatePath("07-tendermint-0"); got != "clients/07-tendermint-0/clientState" {
		t.Errorf("ClientStatePath = %q", got)
	}
	if got := ChannelPath("transfer", "channel-0"); got != "channelEnds/ports/transfer/channels/channel-0" {
		t.Errorf("ChannelPath = %q", got)
	}
	if got := CommitmentPath("transfer", "channel-0", 5); got != "commitments/ports/transfer/channels/channel-0/sequences/5" {
		t.Errorf("CommitmentPath = %q", got)
	}
}

func TestCommitmentHashDeterministic(t *testing.T) {
	p := Packet{Sequence: 1, Data: []byte("payload"), TimeoutHeight: Height{RevisionNumber: 1, RevisionHeight: 100}}
	h1 := CommitmentHash(p)
	h2 := CommitmentHash(p)
	if h1 != h2 {
		t.Error("expected CommitmentHash to be deterministic for the same packet")
	}
	other := p
	other.Data = []byte("different")
	if CommitmentHash(other) == h1 {
		t.Error("expected a different payload to change the commitment hash")
	}
}

func TestPacketTimedOut(t *testing.T) {
	p := Packet{TimeoutHeight: Height{RevisionNumber: 1, RevisionHeight: 100}}
	if p.TimedOut(Height{RevisionNumber: 1, RevisionHeight: 99}, 0) {
		t.Error("expected no timeout below the timeout height")
	}
	if !p.TimedOut(Height{RevisionNumber: 1, RevisionHeight: 100}, 0) {
		t.Error("expected timeout at the timeout height (inclusive)")
	}

	ts := Packet{TimeoutTimestamp: 1000}
	if ts.TimedOut(Height{}, 999) {
		t.Error("expected no timeout below the timeout timestamp")
	}
	if !ts.TimedOut(Height{}, 1000) {
		t.Error("expected timeout at the timeout timestamp (inclusive)")
	}
}
