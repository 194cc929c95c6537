package fireblocks

// Wire shapes for the subset of the Fireblocks API this layer exercises.

type supportedAsset struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Decimals    int    `json:"decimals"`
	NativeAsset string `json:"nativeAsset"`
}

type vaultAccountRequest struct {
	Name          string `json:"name"`
	CustomerRefId string `json:"customerRefId,omitempty"`
}

type wireAssetBalance struct {
	Id        string `json:"id"`
	Total     string `json:"total"`
	Available string `json:"available"`
	Pending   string `json:"pending"`
	Frozen    string `json:"frozen"`
}

type vaultAccountResponse struct {
	Id            string             `json:"id"`
	Name          string             `json:"name"`
	HiddenOnUI    bool               `json:"hiddenOnUI"`
	CustomerRefId string             `json:"customerRefId"`
	AutoFuel      bool               `json:"autoFuel"`
	Assets        []wireAssetBalance `json:"assets"`
}

type createAddressResponse struct {
	Address       string `json:"address"`
	LegacyAddress string `json:"legacyAddress"`
	Tag           string `json:"tag"`
}

// estimateFeePeer is the endpoint shape of the fee-estimation request; the
// address of a one-time destination rides in the id field here, unlike the
// create-transaction request.
type estimateFeePeer struct {
	Type string `json:"type"`
	Id   string `json:"id,omitempty"`
}

type estimateFeeRequest struct {
	AssetId     string          `json:"assetId"`
	Amount      string          `json:"amount"`
	Source      estimateFeePeer `json:"source"`
	Destination estimateFeePeer `json:"destination"`
	Operation   string          `json:"operation"`
}

type wireFeeEstimate struct {
	GasPrice             string `json:"gasPrice,omitempty"`
	MaxFeePerGas         string `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas,omitempty"`
	NetworkFee           string `json:"networkFee"`
}

type feeEstimateResponse struct {
	Low    wireFeeEstimate `json:"low"`
	Medium wireFeeEstimate `json:"medium"`
	High   wireFeeEstimate `json:"high"`
}

type oneTimeAddress struct {
	Address string `json:"address"`
	Tag     string `json:"tag,omitempty"`
}

// txEndpoint is the endpoint shape of the create-transaction request. A
// one-time destination's address and tag fold into the nested oneTimeAddress
// object; every other endpoint type carries an id.
type txEndpoint struct {
	Type           string          `json:"type"`
	Id             string          `json:"id,omitempty"`
	OneTimeAddress *oneTimeAddress `json:"oneTimeAddress,omitempty"`
}

type ownershipProof struct {
	Type  string `json:"type,omitempty"`
	Proof string `json:"proof,omitempty"`
}

type travelRuleMessage struct {
	OriginatorVASPDid   string          `json:"originatorVASPdid,omitempty"`
	BeneficiaryVASPDid  string          `json:"beneficiaryVASPdid,omitempty"`
	OriginatorVASPName  string          `json:"originatorVASPname,omitempty"`
	BeneficiaryVASPName string          `json:"beneficiaryVASPname,omitempty"`
	OriginatorRef       string          `json:"originatorRef,omitempty"`
	BeneficiaryRef      string          `json:"beneficiaryRef,omitempty"`
	TravelRuleBehavior  bool            `json:"travelRuleBehavior,omitempty"`
	OriginatorProof     *ownershipProof `json:"originatorProof,omitempty"`
	BeneficiaryProof    *ownershipProof `json:"beneficiaryProof,omitempty"`
}

type createTransactionRequest struct {
	AssetId            string             `json:"assetId"`
	Amount             string             `json:"amount"`
	Source             txEndpoint         `json:"source"`
	Destination        txEndpoint         `json:"destination"`
	Operation          string             `json:"operation"`
	Note               string             `json:"note,omitempty"`
	ExternalTxId       string             `json:"externalTxId,omitempty"`
	FeeLevel           string             `json:"feeLevel,omitempty"`
	TreatAsGrossAmount *bool              `json:"treatAsGrossAmount,omitempty"`
	ForceSweep         *bool              `json:"forceSweep,omitempty"`
	UseGasless         *bool              `json:"useGasless,omitempty"`
	FailOnLowFee       *bool              `json:"failOnLowFee,omitempty"`
	TravelRuleMessage  *travelRuleMessage `json:"travelRuleMessage,omitempty"`
}

type systemMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type createTransactionResponse struct {
	Id             string          `json:"id"`
	Status         string          `json:"status"`
	SystemMessages []systemMessage `json:"systemMessages"`
}

type wirePeer struct {
	Type string `json:"type"`
	Id   string `json:"id"`
	Name string `json:"name"`
}

type wireAmountInfo struct {
	Amount          string `json:"amount"`
	RequestedAmount string `json:"requestedAmount"`
	NetAmount       string `json:"netAmount"`
	AmountUSD       string `json:"amountUSD"`
}

type wireFeeInfo struct {
	NetworkFee string `json:"networkFee"`
	ServiceFee string `json:"serviceFee"`
	GasPrice   string `json:"gasPrice"`
}

type wireTransaction struct {
	Id                 string         `json:"id"`
	ExternalTxId       string         `json:"externalTxId"`
	Status             string         `json:"status"`
	SubStatus          string         `json:"subStatus"`
	Operation          string         `json:"operation"`
	AssetId            string         `json:"assetId"`
	Source             wirePeer       `json:"source"`
	Destination        *wirePeer      `json:"destination"`
	SourceAddress      string         `json:"sourceAddress"`
	DestinationAddress string         `json:"destinationAddress"`
	DestinationTag     string         `json:"destinationTag"`
	AmountInfo         wireAmountInfo `json:"amountInfo"`
	FeeInfo            *wireFeeInfo   `json:"feeInfo"`
	TxHash             string         `json:"txHash"`
	CreatedAt          int64          `json:"createdAt"`
	LastUpdated        int64          `json:"lastUpdated"`
	CreatedBy          string         `json:"createdBy"`
}

type transactionsPageResponse struct {
	Transactions   []wireTransaction `json:"transactions"`
	NextPageCursor string            `json:"nextPageCursor"`
}

type resendWebhooksRequest struct {
	ResendCreated       bool `json:"resendCreated"`
	ResendStatusUpdated bool `json:"resendStatusUpdated"`
}

type resendWebhooksResponse struct {
	Success       *bool  `json:"success,omitempty"`
	MessagesCount *int   `json:"messagesCount,omitempty"`
	Message       string `json:"message,omitempty"`
}
