package txsubmit

import "testing"

func TestClassifyEVM(t *testing.T) {
	cases := []struct {
		name            string
		errMsg          string
		selector        string
		currentGasPrice uint64
		maxGasPrice     uint64
		wantAction      Action
	}{
		{"known selector is fatal", "execution reverted: IBCInvalidProof()", "IBCInvalidProof", 0, 0, ActionFatal},
		{"empty revert defers", "", "", 0, 0, ActionDefer},
		{"gas price over max defers", "anything", "", 200, 100, ActionDefer},
		{"insufficient funds for gas defers", "insufficient funds for gas * price", "", 0, 0, ActionDefer},
		{"unknown error is fatal", "execution reverted: custom panic", "", 0, 0, ActionFatal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyEVM(tc.errMsg, tc.selector, tc.currentGasPrice, tc.maxGasPrice)
			if got.Action != tc.wantAction {
				t.Errorf("Action = %v, want %v (reason: %s)", got.Action, tc.wantAction, got.Reason)
			}
		})
	}
}

func TestClassifyEVMKnownSelectorIsWellKnown(t *testing.T) {
	got := ClassifyEVM("revert", "IBCPacketTimeout", 0, 0)
	if !got.WellKnown {
		t.Error("expected a decoded selector to be marked WellKnown")
	}
}

func TestClassifyCosmos(t *testing.T) {
	cases := []struct {
		name       string
		codespace  string
		code       uint32
		rawLog     string
		wantAction Action
	}{
		{"redundant tx succeeds", "channel", channelErrRedundantTxCode, "", ActionSuccess},
		{"wrong sequence retries", "sdk", sdkErrWrongSequenceCode, "", ActionRetrySequence},
		{"simulation sequence mismatch retries", "", 0, "account sequence mismatch, expected 4, got 3", ActionRetrySequence},
		{"client not found is fatal", "client", 0, "", ActionFatal},
		{"invalid checksum is fatal", "", 0, "invalid checksum for wasm code", ActionFatal},
		{"capability error is fatal", "", 0, "capability not found", ActionFatal},
		{"unclassified error is fatal", "", 0, "some other sdk error", ActionFatal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyCosmos(tc.codespace, tc.code, tc.rawLog)
			if got.Action != tc.wantAction {
				t.Errorf("Action = %v, want %v (reason: %s)", got.Action, tc.wantAction, got.Reason)
			}
		})
	}
}
