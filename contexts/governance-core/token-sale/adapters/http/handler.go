package httpadapter

import (
	"context"
	"log/slog"
	"math/big"
	"strings"

	"agora/contexts/governance-core/token-sale/application/commands"
	domainerrors "agora/contexts/governance-core/token-sale/domain/errors"
	"agora/contexts/governance-core/token-sale/ports"
	httptransport "agora/contexts/governance-core/token-sale/transport/http"
)

type Handler struct {
	Sale   commands.SaleUseCase
	Reader ports.PowerReader
	Logger *slog.Logger
}

func (h Handler) PurchaseHandler(
	ctx context.Context,
	account string,
	req httptransport.PurchaseRequest,
) (httptransport.PurchaseResponse, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(req.Amount), 10)
	if !ok {
		return httptransport.PurchaseResponse{}, domainerrors.ErrZeroAmount
	}
	result, err := h.Sale.Purchase(ctx, commands.PurchaseCommand{
		Account:       account,
		PaymentAmount: amount,
	})
	if err != nil {
		return httptransport.PurchaseResponse{}, err
	}
	return httptransport.PurchaseResponse{
		Account:       result.Account,
		PaymentAmount: result.PaymentAmount.String(),
		PowerCredited: result.PowerCredited.String(),
	}, nil
}

func (h Handler) WithdrawHandler(ctx context.Context, caller string, req httptransport.WithdrawRequest) error {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(req.Amount), 10)
	if !ok {
		return domainerrors.ErrZeroAmount
	}
	return h.Sale.Withdraw(ctx, commands.WithdrawCommand{
		Caller: caller,
		To:     req.To,
		Amount: amount,
	})
}

func (h Handler) PowerBalanceHandler(ctx context.Context, account string) (httptransport.PowerBalanceResponse, error) {
	power, err := h.Reader.PowerOf(ctx, account)
	if err != nil {
		return httptransport.PowerBalanceResponse{}, err
	}
	total, err := h.Reader.TotalPower(ctx)
	if err != nil {
		return httptransport.PowerBalanceResponse{}, err
	}
	return httptransport.PowerBalanceResponse{
		Account:    strings.TrimSpace(account),
		Power:      power.String(),
		TotalPower: total.String(),
	}, nil
}
