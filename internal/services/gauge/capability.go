package gauge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

// ClaimCapability is the reward-claim shape a gauge contract supports
type ClaimCapability uint8

const (
	ClaimUnknown ClaimCapability = iota
	// ClaimWithReceiver: claim_rewards(address _addr, address _receiver)
	ClaimWithReceiver
	// ClaimPlain: claim_rewards() for msg.sender
	ClaimPlain
	// ClaimMinterOnly: no extra rewards, CRV is minted through the minter
	ClaimMinterOnly
)

func (c ClaimCapability) String() string {
	switch c {
	case ClaimWithReceiver:
		return "claim_rewards_receiver"
	case ClaimPlain:
		return "claim_rewards"
	case ClaimMinterOnly:
		return "minter_only"
	default:
		return "unknown"
	}
}

const gaugeABIJSON = `[
{"name":"claim_rewards","type":"function","stateMutability":"nonpayable","inputs":[
 {"name":"_addr","type":"address"},{"name":"_receiver","type":"address"}],"outputs":[]},
{"name":"claim_rewards","type":"function","stateMutability":"nonpayable","inputs":[],"outputs":[]},
{"name":"mint","type":"function","stateMutability":"nonpayable","inputs":[
 {"name":"gauge_addr","type":"address"}],"outputs":[]}
]`

var gaugeABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(gaugeABIJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid gauge abi: %v", err))
	}
	return parsed
}()

// overloads are renamed by go-ethereum in declaration order
const (
	methodClaimWithReceiver = "claim_rewards"
	methodClaimPlain        = "claim_rewards0"
	methodMint              = "mint"
)

func packClaimWithReceiver(owner, receiver common.Address) ([]byte, error) {
	return gaugeABI.Pack(methodClaimWithReceiver, owner, receiver)
}

func packClaimPlain() ([]byte, error) {
	return gaugeABI.Pack(methodClaimPlain)
}

func packMint(gauge common.Address) ([]byte, error) {
	return gaugeABI.Pack(methodMint, gauge)
}

// isRevert tells a contract-level failure apart from a transport failure
func isRevert(err error) bool {
	if err == nil {
		return false
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == 3 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "revert") || strings.Contains(msg, "invalid opcode")
}
