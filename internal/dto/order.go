package dto

import (
	"context"
	"time"

	"github.com/Additional-Code/depot/internal/entity"
)

// OrderInput is the writable part of an order. Every field defaults to an
// empty string when omitted.
type OrderInput struct {
	Supplier string `json:"supplier" validate:"max=4"`
	Retailer string `json:"retailer" validate:"max=4"`
	OrderNum string `json:"ordernum" validate:"max=20"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID       int64     `json:"id"`
	Owner    string    `json:"owner"`
	Received time.Time `json:"received"`
	Supplier string    `json:"supplier"`
	Retailer string    `json:"retailer"`
	OrderNum string    `json:"ordernum"`
}

// OrderCodec maps orders.
type OrderCodec struct{}

func (OrderCodec) Decode(ctx context.Context, body []byte, dst *entity.Order, partial bool, _ References) error {
	var in OrderInput
	if partial {
		in = OrderInput{Supplier: dst.Supplier, Retailer: dst.Retailer, OrderNum: dst.OrderNum}
	}

	var b binding
	if err := b.decode(body, &in); err != nil {
		return err
	}
	b.validate(in)
	if err := b.err(); err != nil {
		return err
	}

	dst.Supplier = in.Supplier
	dst.Retailer = in.Retailer
	dst.OrderNum = in.OrderNum
	return nil
}

func (OrderCodec) Encode(o *entity.Order) any {
	return OrderResponse{
		ID:       o.ID,
		Owner:    ownerName(o.Owner),
		Received: o.Received,
		Supplier: o.Supplier,
		Retailer: o.Retailer,
		OrderNum: o.OrderNum,
	}
}
