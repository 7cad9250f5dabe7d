package ibcvm

import (
	"context"
	"testing"

	"github.com/unionlabs/voyager/pkg/ibc"
)

func TestIntersectVersionsNarrowsToSharedFeatures(t *testing.T) {
	proposed := []ibc.Version{{Identifier: "1", Features: []string{"ORDER_ORDERED", "ORDER_UNORDERED", "ORDER_EXOTIC"}}}
	got := intersectVersions(proposed, DefaultSupportedVersions())
	if len(got) != 1 {
		t.Fatalf("intersectVersions = %+v, want 1 entry", got)
	}
	if len(got[0].Features) != 2 {
		t.Fatalf("intersected features = %v, want exactly ORDER_ORDERED/ORDER_UNORDERED", got[0].Features)
	}
}

func TestIntersectVersionsDropsUnknownIdentifier(t *testing.T) {
	proposed := []ibc.Version{{Identifier: "99", Features: []string{"ORDER_ORDERED"}}}
	got := intersectVersions(proposed, DefaultSupportedVersions())
	if len(got) != 0 {
		t.Fatalf("intersectVersions = %+v, want no entries for an unknown identifier", got)
	}
}

func TestValidateVersionRejectsEmptyFeatures(t *testing.T) {
	err := validateVersion(ibc.Version{Identifier: "1"}, DefaultSupportedVersions())
	if err != ErrEmptyVersionFeatures {
		t.Fatalf("validateVersion error = %v, want ErrEmptyVersionFeatures", err)
	}
}

func TestValidateVersionRejectsUnknownIdentifier(t *testing.T) {
	err := validateVersion(ibc.Version{Identifier: "2", Features: []string{"ORDER_ORDERED"}}, DefaultSupportedVersions())
	if err != ErrVersionIdentifierMismatch {
		t.Fatalf("validateVersion error = %v, want ErrVersionIdentifierMismatch", err)
	}
}

func TestValidateVersionRejectsUnsupportedFeature(t *testing.T) {
	err := validateVersion(ibc.Version{Identifier: "1", Features: []string{"ORDER_EXOTIC"}}, DefaultSupportedVersions())
	if err != ErrUnsupportedFeatureInVersion {
		t.Fatalf("validateVersion error = %v, want ErrUnsupportedFeatureInVersion", err)
	}
}

func TestValidateVersionAcceptsSupportedFeature(t *testing.T) {
	err := validateVersion(ibc.Version{Identifier: "1", Features: []string{"ORDER_ORDERED"}}, DefaultSupportedVersions())
	if err != nil {
		t.Fatalf("validateVersion: %v", err)
	}
}

func TestConnOpenTryStateRejectsVersionsWithNoMutualSupport(t *testing.T) {
	host := newFakeHost()
	clientBytes := []byte("client-state")
	host.kv[string(ibc.ClientStatePath("07-tendermint-0"))] = clientBytes

	s := &ConnOpenTryState{
		ClientId:             "07-tendermint-0",
		CounterpartyClientId: "07-tendermint-1",
		Versions:             []ibc.Version{{Identifier: "99", Features: []string{"ORDER_ORDERED"}}},
	}
	_, err := s.Step(context.Background(), host, nil)
	if err != ErrNoSupportedVersionFound {
		t.Fatalf("Step error = %v, want ErrNoSupportedVersionFound", err)
	}
}

func TestConnOpenAckStateRejectsUnsupportedAckedVersion(t *testing.T) {
	host := newFakeHost()
	end := ibc.ConnectionEnd{
		State:        ibc.ConnectionStateInit,
		ClientId:     "07-tendermint-0",
		Counterparty: ibc.Counterparty{ClientId: "07-tendermint-1"},
		Versions:     []ibc.Version{{Identifier: "1", Features: []string{"ORDER_ORDERED", "ORDER_UNORDERED"}}},
	}
	if err := commitConnection(context.Background(), host, "connection-0", end); err != nil {
		t.Fatalf("commitConnection: %v", err)
	}

	s := &ConnOpenAckState{
		ConnectionId:             "connection-0",
		CounterpartyConnectionId: "connection-1",
		Version:                  ibc.Version{Identifier: "1", Features: []string{"ORDER_EXOTIC"}},
	}
	_, err := s.Step(context.Background(), host, nil)
	if err != ErrUnsupportedFeatureInVersion {
		t.Fatalf("Step error = %v, want ErrUnsupportedFeatureInVersion", err)
	}
}
