package contract

// CollectionBuiltin is the ID of the base NFT collection ABI, used whenever a
// project is served without one.
//
// Function selectors:
//
//	isPublicSaleActive()              → 0x1e84c413
//	isPreSaleActive()                 → 0x9d044ed3
//	MAX_TOTAL_MINT()                  → 0xcf9e8e69
//	MAX_TOTAL_MINT_PER_ADDRESS()      → 0x66cfb1f3
//	PRICE()                           → 0x8d859f3e
//	totalSupply()                     → 0x18160ddd
//	balanceOf(address)                → 0x70a08231
//	purchase(uint256)                 → 0xefef39a1
//	earlyPurchase(uint256,bytes32[])  → 0xe2ab10ce
//	onEarlyPurchaseList(a,bytes32[])  → 0x7b96a3b2
const CollectionBuiltin = "collection"

func init() {
	RegisterBuiltin(BuiltinKind{
		ID:          CollectionBuiltin,
		Name:        "Base Collection (ERC-721A presale/public sale)",
		Description: "Payable purchase/earlyPurchase with a Merkle presale list and per-address cap.",
		ABI:         collectionABI,
	})
}

const collectionABI = `[
  {"anonymous":false,"inputs":[{"indexed":true,"name":"from","type":"address"},{"indexed":true,"name":"to","type":"address"},{"indexed":true,"name":"tokenId","type":"uint256"}],"name":"Transfer","type":"event"},
  {"anonymous":false,"inputs":[{"indexed":true,"name":"addr","type":"address"},{"indexed":true,"name":"atPrice","type":"uint256"},{"indexed":true,"name":"count","type":"uint256"}],"name":"Purchase","type":"event"},
  {"anonymous":false,"inputs":[{"indexed":true,"name":"addr","type":"address"},{"indexed":true,"name":"atPrice","type":"uint256"},{"indexed":true,"name":"count","type":"uint256"}],"name":"EarlyPurchase","type":"event"},
  {"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"tokenId","type":"uint256"}],"name":"ownerOf","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"tokenId","type":"uint256"}],"name":"tokenURI","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"paused","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"_merkleRoot","outputs":[{"name":"","type":"bytes32"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"_presalePrice","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"count","type":"uint256"}],"name":"purchase","outputs":[],"stateMutability":"payable","type":"function"},
  {"inputs":[{"name":"count","type":"uint256"},{"name":"merkleProof","type":"bytes32[]"}],"name":"earlyPurchase","outputs":[],"stateMutability":"payable","type":"function"},
  {"inputs":[],"name":"isPublicSaleActive","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"isPreSaleActive","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"addr","type":"address"},{"name":"merkleProof","type":"bytes32[]"}],"name":"onEarlyPurchaseList","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"MAX_TOTAL_MINT","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"PRICE","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"MAX_TOTAL_MINT_PER_ADDRESS","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"to","type":"address"},{"name":"count","type":"uint256"}],"name":"mint","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[],"name":"pause","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[],"name":"unpause","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`
