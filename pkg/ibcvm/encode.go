package ibcvm

import (
	"encoding/json"

	"github.com/unionlabs/voyager/pkg/ibc"
)

// encodeConnection and decodeConnection give the VM a stable byte
// representation of a ConnectionEnd to store and to compare against a
// counterparty-supplied proof's expected value. The canonical wire format a
// specific counterparty speaks (protobuf for ibc-go-v8, ABI for
// ibc-solidity) is produced separately by pkg/ibc/encoding and
// pkg/txsubmit/evm when assembling the actual outbound datagram; this
// internal encoding only needs to be self-consistent within one VM.
func encodeConnection(end ibc.ConnectionEnd) ([]byte, error) {
	return json.Marshal(end)
}

func decodeConnection(raw []byte) (ibc.ConnectionEnd, error) {
	var end ibc.ConnectionEnd
	if err := json.Unmarshal(raw, &end); err != nil {
		return ibc.ConnectionEnd{}, err
	}
	return end, nil
}

func encodeChannel(end ibc.ChannelEnd) ([]byte, error) {
	return json.Marshal(end)
}

func decodeChannel(raw []byte) (ibc.ChannelEnd, error) {
	var end ibc.ChannelEnd
	if err := json.Unmarshal(raw, &end); err != nil {
		return ibc.ChannelEnd{}, err
	}
	return end, nil
}
