package dto

import (
	"context"

	"github.com/Additional-Code/depot/internal/entity"
)

// MemoInput is the writable part of a memo. Both dates are required.
type MemoInput struct {
	Retailer  int64   `json:"retailer" validate:"required"`
	Supplier  int64   `json:"supplier" validate:"required"`
	StartDate *string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   *string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Content   string  `json:"content" validate:"required"`
}

// MemoResponse is the wire form of a memo.
type MemoResponse struct {
	ID        int64  `json:"id"`
	Owner     string `json:"owner"`
	Retailer  int64  `json:"retailer"`
	Supplier  int64  `json:"supplier"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Content   string `json:"content"`
}

// MemoCodec maps memos.
type MemoCodec struct{}

func (MemoCodec) Decode(ctx context.Context, body []byte, dst *entity.Memo, partial bool, refs References) error {
	var in MemoInput
	if partial {
		in = MemoInput{
			Retailer:  dst.RetailerID,
			Supplier:  dst.SupplierID,
			StartDate: formatDate(&dst.StartDate),
			EndDate:   formatDate(&dst.EndDate),
			Content:   dst.Content,
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
	dst.StartDate = *parseDate(in.StartDate)
	dst.EndDate = *parseDate(in.EndDate)
	dst.Content = in.Content
	return nil
}

func (MemoCodec) Encode(m *entity.Memo) any {
	return MemoResponse{
		ID:        m.ID,
		Owner:     ownerName(m.Owner),
		Retailer:  m.RetailerID,
		Supplier:  m.SupplierID,
		StartDate: m.StartDate.Format(entity.DateLayout),
		EndDate:   m.EndDate.Format(entity.DateLayout),
		Content:   m.Content,
	}
}
