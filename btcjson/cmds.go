// Package btcjson defines the JSON-RPC command and result types shared
// by the daemon and wallet RPC clients, using a Cmd-struct plus
// NewXCmd-constructor shape for each method.
package btcjson

// GetInfoCmd defines the get_info JSON-RPC command, issued against the
// daemon. It takes no parameters.
type GetInfoCmd struct{}

// NewGetInfoCmd returns a new instance of GetInfoCmd.
func NewGetInfoCmd() *GetInfoCmd { return &GetInfoCmd{} }

// Method returns the RPC method name.
func (c *GetInfoCmd) Method() string { return "get_info" }

// GetVersionCmd defines the get_version JSON-RPC command, used by the
// readiness probe as a fallback when get_info is not yet answering
// usefully.
type GetVersionCmd struct{}

// NewGetVersionCmd returns a new instance of GetVersionCmd.
func NewGetVersionCmd() *GetVersionCmd { return &GetVersionCmd{} }

// Method returns the RPC method name.
func (c *GetVersionCmd) Method() string { return "get_version" }

// GetHeightCmd defines the get_height JSON-RPC command.
type GetHeightCmd struct{}

// NewGetHeightCmd returns a new instance of GetHeightCmd.
func NewGetHeightCmd() *GetHeightCmd { return &GetHeightCmd{} }

// Method returns the RPC method name.
func (c *GetHeightCmd) Method() string { return "get_height" }

// GetAddressCmd defines the get_address wallet JSON-RPC command.
type GetAddressCmd struct {
	AccountIndex uint32 `json:"account_index"`
}

// NewGetAddressCmd returns a new instance of GetAddressCmd.
func NewGetAddressCmd() *GetAddressCmd { return &GetAddressCmd{} }

// Method returns the RPC method name.
func (c *GetAddressCmd) Method() string { return "get_address" }

// GetBalanceCmd defines the get_balance wallet JSON-RPC command.
type GetBalanceCmd struct {
	AccountIndex uint32 `json:"account_index"`
}

// NewGetBalanceCmd returns a new instance of GetBalanceCmd.
func NewGetBalanceCmd() *GetBalanceCmd { return &GetBalanceCmd{} }

// Method returns the RPC method name.
func (c *GetBalanceCmd) Method() string { return "get_balance" }

// GetTransfersCmd defines the get_transfers wallet JSON-RPC command.
type GetTransfersCmd struct {
	In  bool `json:"in"`
	Out bool `json:"out"`
}

// NewGetTransfersCmd returns a new instance of GetTransfersCmd.
func NewGetTransfersCmd(in, out bool) *GetTransfersCmd {
	return &GetTransfersCmd{In: in, Out: out}
}

// Method returns the RPC method name.
func (c *GetTransfersCmd) Method() string { return "get_transfers" }

// OpenWalletCmd defines the open_wallet wallet JSON-RPC command.
type OpenWalletCmd struct {
	Filename string `json:"filename"`
	Password string `json:"password"`
}

// NewOpenWalletCmd returns a new instance of OpenWalletCmd.
func NewOpenWalletCmd(filename, password string) *OpenWalletCmd {
	return &OpenWalletCmd{Filename: filename, Password: password}
}

// Method returns the RPC method name.
func (c *OpenWalletCmd) Method() string { return "open_wallet" }

// CreateWalletCmd defines the create_wallet wallet JSON-RPC command.
type CreateWalletCmd struct {
	Filename string `json:"filename"`
	Password string `json:"password"`
	Language string `json:"language"`
}

// NewCreateWalletCmd returns a new instance of CreateWalletCmd.
func NewCreateWalletCmd(filename, password, language string) *CreateWalletCmd {
	if language == "" {
		language = "English"
	}
	return &CreateWalletCmd{Filename: filename, Password: password, Language: language}
}

// Method returns the RPC method name.
func (c *CreateWalletCmd) Method() string { return "create_wallet" }

// GenerateBlocksCmd defines the generateblocks daemon JSON-RPC command,
// used by the autonomous miner's generate-block step. It mints
// AmountOfBlocks blocks (always 1 for the autonomous miner) to
// WalletAddress in regression mode.
type GenerateBlocksCmd struct {
	AmountOfBlocks uint32 `json:"amount_of_blocks"`
	WalletAddress  string `json:"wallet_address"`
}

// NewGenerateBlocksCmd returns a new instance of GenerateBlocksCmd.
func NewGenerateBlocksCmd(amountOfBlocks uint32, walletAddress string) *GenerateBlocksCmd {
	return &GenerateBlocksCmd{AmountOfBlocks: amountOfBlocks, WalletAddress: walletAddress}
}

// Method returns the RPC method name.
func (c *GenerateBlocksCmd) Method() string { return "generateblocks" }

// Destination is one output of a TransferCmd.
type Destination struct {
	Amount  uint64 `json:"amount"`
	Address string `json:"address"`
}

// TransferCmd defines the transfer wallet JSON-RPC command: a list of
// destinations, a priority, whether to request the tx key back, and
// whether to relay on submit.
type TransferCmd struct {
	Destinations []Destination `json:"destinations"`
	Priority     uint32        `json:"priority"`
	GetTxKey     bool          `json:"get_tx_key"`
	DoNotRelay   bool          `json:"do_not_relay"`
}

// NewTransferCmd returns a new instance of TransferCmd. Priority is
// fixed at 1 and the transaction is always relayed.
func NewTransferCmd(destinations []Destination) *TransferCmd {
	return &TransferCmd{
		Destinations: destinations,
		Priority:     1,
		GetTxKey:     true,
		DoNotRelay:   false,
	}
}

// Method returns the RPC method name.
func (c *TransferCmd) Method() string { return "transfer" }
