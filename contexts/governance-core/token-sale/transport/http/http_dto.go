package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PurchaseRequest struct {
	Amount string `json:"amount"`
}

type PurchaseResponse struct {
	Account       string `json:"account"`
	PaymentAmount string `json:"payment_amount"`
	PowerCredited string `json:"power_credited"`
}

type WithdrawRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type PowerBalanceResponse struct {
	Account    string `json:"account"`
	Power      string `json:"power"`
	TotalPower string `json:"total_power"`
}
