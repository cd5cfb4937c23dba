package dto

import (
	"context"

	"github.com/Additional-Code/depot/internal/entity"
)

// ConcessionInput is the writable part of a concession.
type ConcessionInput struct {
	Retailer    int64   `json:"retailer" validate:"required"`
	Supplier    int64   `json:"supplier" validate:"required"`
	Product     string  `json:"product" validate:"required,max=20"`
	Description string  `json:"description" validate:"required,max=100"`
	BestBefore  *string `json:"best_before" validate:"omitempty,datetime=2006-01-02"`
	StartDate   *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// ConcessionResponse is the wire form of a concession.
type ConcessionResponse struct {
	ID          int64   `json:"id"`
	Owner       string  `json:"owner"`
	Retailer    int64   `json:"retailer"`
	Supplier    int64   `json:"supplier"`
	Product     string  `json:"product"`
	Description string  `json:"description"`
	BestBefore  *string `json:"best_before"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

// ConcessionCodec maps concessions.
type ConcessionCodec struct{}

func (ConcessionCodec) Decode(ctx context.Context, body []byte, dst *entity.Concession, partial bool, refs References) error {
	var in ConcessionInput
	if partial {
		in = ConcessionInput{
			Retailer:    dst.RetailerID,
			Supplier:    dst.SupplierID,
			Product:     dst.Product,
			Description: dst.Description,
			BestBefore:  formatDate(dst.BestBefore),
			StartDate:   formatDate(dst.StartDate),
			EndDate:     formatDate(dst.EndDate),
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
	dst.Product = in.Product
	dst.Description = in.Description
	dst.BestBefore = parseDate(in.BestBefore)
	dst.StartDate = parseDate(in.StartDate)
	dst.EndDate = parseDate(in.EndDate)
	return nil
}

func (ConcessionCodec) Encode(c *entity.Concession) any {
	return ConcessionResponse{
		ID:          c.ID,
		Owner:       ownerName(c.Owner),
		Retailer:    c.RetailerID,
		Supplier:    c.SupplierID,
		Product:     c.Product,
		Description: c.Description,
		BestBefore:  formatDate(c.BestBefore),
		StartDate:   formatDate(c.StartDate),
		EndDate:     formatDate(c.EndDate),
	}
}
