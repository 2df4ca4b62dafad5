package ledger

// ERC20 ABI for the token service surface used by the desks
const ERC20ABI = `[
	{
		"constant": true,
		"inputs": [],
		"name": "decimals",
		"outputs": [{"name": "", "type": "uint8"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [{"name": "_owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "balance", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [
			{"name": "_owner", "type": "address"},
			{"name": "_spender", "type": "address"}
		],
		"name": "allowance",
		"outputs": [{"name": "remaining", "type": "uint256"}],
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "spender", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// SimpleVault ABI
const VaultABI = `[
	{
		"inputs": [],
		"name": "token",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "account", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "uint256", "name": "amount", "type": "uint256"}],
		"name": "deposit",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "uint256", "name": "amount", "type": "uint256"}],
		"name": "withdraw",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// OrderBook ABI
const OrderBookABI = `[
	{
		"inputs": [],
		"name": "nextOrderId",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "uint256", "name": "id", "type": "uint256"}],
		"name": "orders",
		"outputs": [
			{"internalType": "address", "name": "buyer", "type": "address"},
			{"internalType": "address", "name": "seller", "type": "address"},
			{"internalType": "address", "name": "payToken", "type": "address"},
			{"internalType": "uint256", "name": "payAmount", "type": "uint256"},
			{"internalType": "address", "name": "assetToken", "type": "address"},
			{"internalType": "uint256", "name": "assetAmount", "type": "uint256"},
			{"internalType": "bool", "name": "filled", "type": "bool"},
			{"internalType": "bool", "name": "canceled", "type": "bool"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "seller", "type": "address"},
			{"internalType": "address", "name": "payToken", "type": "address"},
			{"internalType": "uint256", "name": "payAmount", "type": "uint256"},
			{"internalType": "address", "name": "assetToken", "type": "address"},
			{"internalType": "uint256", "name": "assetAmount", "type": "uint256"}
		],
		"name": "createOrder",
		"outputs": [{"internalType": "uint256", "name": "id", "type": "uint256"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "uint256", "name": "id", "type": "uint256"}],
		"name": "cancelOrder",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "uint256", "name": "id", "type": "uint256"}],
		"name": "fillOrder",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// DocumentRegistry ABI
const DocRegistryABI = `[
	{
		"inputs": [
			{"internalType": "uint256", "name": "orderId", "type": "uint256"},
			{"internalType": "uint8", "name": "docType", "type": "uint8"},
			{"internalType": "bytes32", "name": "sha256Hash", "type": "bytes32"},
			{"internalType": "string", "name": "uri", "type": "string"}
		],
		"name": "registerDocument",
		"outputs": [{"internalType": "uint256", "name": "index", "type": "uint256"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "orderId", "type": "uint256"},
			{"internalType": "uint256", "name": "index", "type": "uint256"}
		],
		"name": "acceptDocument",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "orderId", "type": "uint256"},
			{"internalType": "uint256", "name": "index", "type": "uint256"}
		],
		"name": "rejectDocument",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "uint256", "name": "orderId", "type": "uint256"}],
		"name": "getDocsCount",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "orderId", "type": "uint256"},
			{"internalType": "uint256", "name": "index", "type": "uint256"}
		],
		"name": "getDoc",
		"outputs": [
			{"internalType": "uint8", "name": "docType", "type": "uint8"},
			{"internalType": "bytes32", "name": "sha256Hash", "type": "bytes32"},
			{"internalType": "string", "name": "uri", "type": "string"},
			{"internalType": "address", "name": "uploader", "type": "address"},
			{"internalType": "uint64", "name": "uploadedAt", "type": "uint64"},
			{"internalType": "bool", "name": "accepted", "type": "bool"},
			{"internalType": "address", "name": "acceptedBy", "type": "address"},
			{"internalType": "bool", "name": "rejected", "type": "bool"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "orderId", "type": "uint256"},
			{"internalType": "uint8", "name": "docType", "type": "uint8"}
		],
		"name": "isAccepted",
		"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
		"stateMutability": "view",
		"type": "function"
	}
]`
