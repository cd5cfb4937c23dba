package dto

import (
	"context"

	"github.com/Additional-Code/depot/internal/entity"
)

// ManualOrderInput is the writable part of a manual order. Attachment is an
// opaque reference into blob storage.
type ManualOrderInput struct {
	Retailer   int64   `json:"retailer" validate:"required"`
	Supplier   int64   `json:"supplier" validate:"required"`
	Processing *string `json:"processing" validate:"omitempty,datetime=2006-01-02"`
	Details    string  `json:"details" validate:"required,max=500"`
	Attachment string  `json:"attachment" validate:"required,max=255"`
}

// ManualOrderResponse is the wire form of a manual order.
type ManualOrderResponse struct {
	ID         int64   `json:"id"`
	Owner      string  `json:"owner"`
	Retailer   int64   `json:"retailer"`
	Supplier   int64   `json:"supplier"`
	Processing *string `json:"processing"`
	Details    string  `json:"details"`
	Attachment string  `json:"attachment"`
}

// ManualOrderCodec maps manual orders.
type ManualOrderCodec struct{}

func (ManualOrderCodec) Decode(ctx context.Context, body []byte, dst *entity.ManualOrder, partial bool, refs References) error {
	var in ManualOrderInput
	if partial {
		in = ManualOrderInput{
			Retailer:   dst.RetailerID,
			Supplier:   dst.SupplierID,
			Processing: formatDate(dst.Processing),
			Details:    dst.Details,
			Attachment: dst.Attachment,
		}
	}

	var b binding
	if err := b.decode(body, &in); err != nil {
		return err
	}
	b.validate(in)
	if err := b.exists(ctx, refs, "retailer", (*entity.Retailer)(nil), in.Retailer); err != nil {
		return err
	}
	if err := b.exists(ctx, refs, "supplier", (*entity.Supplier)(nil), in.Supplier); err != nil {
		return err
	}
	if err := b.err(); err != nil {
		return err
	}

	dst.RetailerID = in.Retailer
	dst.SupplierID = in.Supplier
	dst.Processing = parseDate(in.Processing)
	dst.Details = in.Details
	dst.Attachment = in.Attachment
	return nil
}

func (ManualOrderCodec) Encode(m *entity.ManualOrder) any {
	return ManualOrderResponse{
		ID:         m.ID,
		Owner:      ownerName(m.Owner),
		Retailer:   m.RetailerID,
		Supplier:   m.SupplierID,
		Processing: formatDate(m.Processing),
		Details:    m.Details,
		Attachment: m.Attachment,
	}
}
