package ledger

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const publishMethod = "publishManuscript"

// journalContractABI is the subset of the journal contract the service calls.
const journalContractABI = `[
	{
		"type": "function",
		"name": "publishManuscript",
		"stateMutability": "nonpayable",
		"inputs": [{"name": "manuscriptJson", "type": "string"}],
		"outputs": []
	}
]`

func parseContractABI() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(journalContractABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse journal contract ABI: %w", err)
	}
	return parsed, nil
}
