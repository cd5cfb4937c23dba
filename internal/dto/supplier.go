package dto

import (
	"context"

	"github.com/Additional-Code/depot/internal/entity"
)

// SupplierInput is the writable part of a supplier.
type SupplierInput struct {
	Code string `json:"code" validate:"required,max=4"`
	Name string `json:"name" validate:"required,max=100"`
}

// SupplierResponse is the wire form of a supplier.
type SupplierResponse struct {
	ID    int64  `json:"id"`
	Owner string `json:"owner"`
	Code  string `json:"code"`
	Name  string `json:"name"`
}

// SupplierCodec maps suppliers.
type SupplierCodec struct{}

func (SupplierCodec) Decode(ctx context.Context, body []byte, dst *entity.Supplier, partial bool, _ References) error {
	var in SupplierInput
	if partial {
		in = SupplierInput{Code: dst.Code, Name: dst.Name}
	}

	var b binding
	if err := b.decode(body, &in); err != nil {
		return err
	}
	b.validate(in)
	if err := b.err(); err != nil {
		return err
	}

	dst.Code = in.Code
	dst.Name = in.Name
	return nil
}

func (SupplierCodec) Encode(s *entity.Supplier) any {
	return SupplierResponse{
		ID:    s.ID,
		Owner: ownerName(s.Owner),
		Code:  s.Code,
		Name:  s.Name,
	}
}
