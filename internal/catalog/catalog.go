// Package catalog converts the stored product and sales documents to and
// from domain values. A catalog document is either one product object or a
// list of them, and it is always written back in the form it was read.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"kasirinaja/shopbot/internal/domain"
)

// ErrMalformed means a stored document exists but does not have the
// expected shape. It is never coerced into an empty catalog.
var ErrMalformed = errors.New("malformed record")

var validate = validator.New()

// maxStock keeps decoded stock within the platform int used by Product.
const maxStock = math.MaxInt

// productFields is the managed part of a product object.
type productFields struct {
	Name  string   `validate:"required"`
	Price *float64 `validate:"required,gte=0"`
	Stock *int64   `validate:"required,gte=0"`
}

// Default returns the catalog written on first run.
func Default() domain.CatalogShape {
	return domain.SingleCatalog(domain.DefaultProduct())
}

// DecodeCatalog reads a catalog document. An object yields a single-product
// catalog, an array a multi-product one and null an empty list. A blank
// document is malformed.
func DecodeCatalog(raw json.RawMessage) (domain.CatalogShape, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return domain.CatalogShape{}, fmt.Errorf("%w: catalog is empty", ErrMalformed)
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return domain.MultipleCatalog(nil), nil
	}

	switch trimmed[0] {
	case '{':
		p, err := decodeProduct(trimmed)
		if err != nil {
			return domain.CatalogShape{}, err
		}
		return domain.SingleCatalog(p), nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return domain.CatalogShape{}, fmt.Errorf("%w: catalog: %v", ErrMalformed, err)
		}
		products := make([]*domain.Product, 0, len(items))
		for i, item := range items {
			p, err := decodeProduct(item)
			if err != nil {
				return domain.CatalogShape{}, fmt.Errorf("product %d: %w", i, err)
			}
			products = append(products, p)
		}
		return domain.MultipleCatalog(products), nil
	default:
		return domain.CatalogShape{}, fmt.Errorf("%w: catalog must be an object or a list", ErrMalformed)
	}
}

func decodeProduct(raw json.RawMessage) (*domain.Product, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("%w: product must be an object", ErrMalformed)
	}

	var fields productFields
	var price decimal.Decimal
	if v, ok := obj["name"]; ok {
		if err := json.Unmarshal(v, &fields.Name); err != nil {
			return nil, fmt.Errorf("%w: name must be a string", ErrMalformed)
		}
	}
	if v, ok := obj["price"]; ok {
		d, err := decimal.NewFromString(string(bytes.TrimSpace(v)))
		if err != nil {
			return nil, fmt.Errorf("%w: price must be a number", ErrMalformed)
		}
		price = d
		f := d.InexactFloat64()
		fields.Price = &f
	}
	if v, ok := obj["stock"]; ok {
		d, err := decimal.NewFromString(string(bytes.TrimSpace(v)))
		if err != nil || !d.IsInteger() {
			return nil, fmt.Errorf("%w: stock must be a whole number", ErrMalformed)
		}
		n := d.IntPart()
		if !d.Equal(decimal.NewFromInt(n)) || n > int64(maxStock) {
			return nil, fmt.Errorf("%w: stock %s is out of range", ErrMalformed, d.String())
		}
		fields.Stock = &n
	}

	if err := validate.Struct(fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	delete(obj, "name")
	delete(obj, "price")
	delete(obj, "stock")
	if len(obj) == 0 {
		obj = nil
	}

	return &domain.Product{
		Name:  fields.Name,
		Price: price,
		Stock: int(*fields.Stock),
		Extra: obj,
	}, nil
}

// EncodeCatalog writes the catalog back in its original shape, keeping any
// unmanaged fields of each product.
func EncodeCatalog(shape domain.CatalogShape) (json.RawMessage, error) {
	if shape.Kind == domain.ShapeSingle {
		if len(shape.Products) != 1 {
			return nil, fmt.Errorf("single catalog holds %d products", len(shape.Products))
		}
		return encodeProduct(shape.Products[0])
	}

	items := make([]json.RawMessage, 0, len(shape.Products))
	for _, p := range shape.Products {
		item, err := encodeProduct(p)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return json.Marshal(items)
}

func encodeProduct(p *domain.Product) (json.RawMessage, error) {
	obj := make(map[string]json.RawMessage, len(p.Extra)+3)
	for k, v := range p.Extra {
		obj[k] = v
	}

	name, err := json.Marshal(p.Name)
	if err != nil {
		return nil, err
	}
	obj["name"] = name
	obj["price"] = json.RawMessage(p.Price.String())
	obj["stock"] = json.RawMessage(strconv.Itoa(p.Stock))

	return json.Marshal(obj)
}
