package state

import (
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	assetPrefix   = []byte("asset:")
	assetListKey  = ethcrypto.Keccak256([]byte("asset-list"))
	balancePrefix = []byte("balance:")
	supplyPrefix  = []byte("supply:")
	rolePrefix    = []byte("role:")
)

const (
	stakingPoolKeyFormat  = "staking/pool/%d"
	stakingStakeKeyFormat = "staking/stake/%d/%x"
	stakingPoolCountKey   = "staking/pool-count"

	exchangePoolKeyFormat = "exchange/pool/%d"
	exchangePoolCountKey  = "exchange/pool-count"
)

func assetKey(symbol string) []byte {
	buf := make([]byte, len(assetPrefix)+len(symbol))
	copy(buf, assetPrefix)
	copy(buf[len(assetPrefix):], symbol)
	return ethcrypto.Keccak256(buf)
}

func balanceKey(symbol string, addr []byte) []byte {
	buf := make([]byte, len(balancePrefix)+len(symbol)+1+len(addr))
	copy(buf, balancePrefix)
	copy(buf[len(balancePrefix):], symbol)
	buf[len(balancePrefix)+len(symbol)] = ':'
	copy(buf[len(balancePrefix)+len(symbol)+1:], addr)
	return ethcrypto.Keccak256(buf)
}

func supplyKey(symbol string) []byte {
	buf := make([]byte, len(supplyPrefix)+len(symbol))
	copy(buf, supplyPrefix)
	copy(buf[len(supplyPrefix):], symbol)
	return ethcrypto.Keccak256(buf)
}

func roleKey(role string) []byte {
	buf := make([]byte, len(rolePrefix)+len(role))
	copy(buf, rolePrefix)
	copy(buf[len(rolePrefix):], role)
	return ethcrypto.Keccak256(buf)
}

func stakingPoolKey(id uint64) []byte {
	return ethcrypto.Keccak256([]byte(fmt.Sprintf(stakingPoolKeyFormat, id)))
}

func stakingStakeKey(id uint64, addr []byte) []byte {
	return ethcrypto.Keccak256([]byte(fmt.Sprintf(stakingStakeKeyFormat, id, addr)))
}

func exchangePoolKey(id uint64) []byte {
	return ethcrypto.Keccak256([]byte(fmt.Sprintf(exchangePoolKeyFormat, id)))
}

func counterKey(name string) []byte {
	return ethcrypto.Keccak256([]byte(name))
}
