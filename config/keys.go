package config

import "time"

const (
	DefaultConfigPath   = "./config.toml"
	DefaultKeystorePath = "./keys"
	DefaultAddressBook  = "./addressbook"
	DefaultStepTimeout  = 2 * time.Minute
	DefaultServiceName  = "nativecoin"
)

// link sides, used as env key prefixes and chain aliases
const (
	SideSrc = "SRC"
	SideDst = "DST"
)

// env key suffixes, combined with a side by EnvKey
const (
	NetworkSuffix        = "NETWORK"
	BmcAddressSuffix     = "BMC_ADDRESS"
	BmvAddressSuffix     = "BMV_ADDRESS"
	BshAddressSuffix     = "BSH_ADDRESS"
	RelayerAddressSuffix = "RELAYER_ADDRESS"
	CoinNameSuffix       = "COIN_NAME"
	CoinSymbolSuffix     = "COIN_SYMBOL"
	CoinDecimalsSuffix   = "COIN_DECIMALS"
	BalanceAccountSuffix = "BALANCE_ACCOUNT"
	MinBalanceSuffix     = "MIN_BALANCE"

	ServiceNameKey = "SERVICE_NAME"
)

// chain Opts keys
const (
	ChainIdKey      = "chainId"
	GasLimitKey     = "gasLimit"
	MaxGasPriceKey  = "maxGasPrice"
	ArtifactsDirKey = "artifactsDir"
	ReceiptWaitKey  = "receiptWaitSeconds"
)

// logical contract names
const (
	ContractBMC = "bmc"
	ContractBMV = "bmv"
	ContractBSH = "bsh"
)

// BMC methods
const (
	MethodAddVerifier      = "addVerifier"
	MethodAddService       = "addService"
	MethodAddLink          = "addLink"
	MethodAddRelay         = "addRelay"
	MethodGetVerifiers     = "getVerifiers"
	MethodGetServices      = "getServices"
	MethodGetLinks         = "getLinks"
	MethodGetRelays        = "getRelays"
	MethodGetStatus        = "getStatus"
	MethodGetBmcBtpAddress = "getBmcBtpAddress"
)

// BSH methods
const (
	MethodRegister     = "register"
	MethodCoinNames    = "coinNames"
	MethodGetBalanceOf = "getBalanceOf"
)

func EnvKey(side, suffix string) string {
	return side + "_" + suffix
}
