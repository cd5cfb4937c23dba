package dto

import (
	"context"
	"slices"

	"github.com/Additional-Code/depot/internal/entity"
)

// RetailerInput is the writable part of a retailer. Checklist holds supplier
// identifiers and must name at least one.
type RetailerInput struct {
	Code      string  `json:"code" validate:"required,max=4"`
	Name      string  `json:"name" validate:"required,max=100"`
	Checklist []int64 `json:"checklist"`
}

// RetailerResponse is the wire form of a retailer.
type RetailerResponse struct {
	ID        int64   `json:"id"`
	Owner     string  `json:"owner"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Checklist []int64 `json:"checklist"`
}

// RetailerCodec maps retailers and their supplier checklist.
type RetailerCodec struct{}

func (RetailerCodec) Decode(ctx context.Context, body []byte, dst *entity.Retailer, partial bool, refs References) error {
	var in RetailerInput
	if partial {
		in = RetailerInput{Code: dst.Code, Name: dst.Name, Checklist: dst.ChecklistIDs()}
	}

	var b binding
	if err := b.decode(body, &in); err != nil {
		return err
	}
	b.validate(in)
	if !partial || b.provided("checklist") {
		b.requireList("checklist", in.Checklist)
	}

	checklist := uniqueIDs(in.Checklist)
	if err := b.exists(ctx, refs, "checklist", (*entity.Supplier)(nil), checklist...); err != nil {
		return err
	}
	if err := b.err(); err != nil {
		return err
	}

	dst.Code = in.Code
	dst.Name = in.Name
	dst.SupplierIDs = checklist
	return nil
}

func (RetailerCodec) Encode(r *entity.Retailer) any {
	return RetailerResponse{
		ID:        r.ID,
		Owner:     ownerName(r.Owner),
		Code:      r.Code,
		Name:      r.Name,
		Checklist: uniqueIDs(r.ChecklistIDs()),
	}
}

// uniqueIDs returns ids sorted without duplicates, never nil.
func uniqueIDs(ids []int64) []int64 {
	out := append(make([]int64, 0, len(ids)), ids...)
	slices.Sort(out)
	return slices.Compact(out)
}
