package domain

const (
	// DefaultTokenURI is the metadata URI minted into every test token
	DefaultTokenURI = "ipfs://bafybeihkoviema7g3gxyt6la7vd5ho32ictqbilu3wnlo3rs7ewhnp7lly/"

	// ERC998MagicValue prefixes bytes32 root owner results per ERC-998
	ERC998MagicValue uint32 = 0xcd740db5
)
