package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// EncodeItems serializes the item list for the durable store. Only items are
// persisted; derived totals and the visibility flag are recomputed or reset
// on reload.
func EncodeItems(items []Item) []byte {
	e := &jx.Encoder{}
	e.ArrStart()
	for _, it := range items {
		encodeItem(e, it)
	}
	e.ArrEnd()
	return e.Bytes()
}

func encodeItem(e *jx.Encoder, it Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(it.ID)
	e.FieldStart("productId")
	e.Str(it.ProductID)
	e.FieldStart("name")
	e.Str(it.Name)
	e.FieldStart("slug")
	e.Str(it.Slug)
	e.FieldStart("price")
	e.Num(jx.Num(it.Price.String()))
	if !it.CompareAtPrice.IsZero() {
		e.FieldStart("compareAtPrice")
		e.Num(jx.Num(it.CompareAtPrice.String()))
	}
	e.FieldStart("quantity")
	e.Int(it.Quantity)
	e.FieldStart("maxQuantity")
	e.Int(it.MaxQuantity)
	if it.Image != "" {
		e.FieldStart("image")
		e.Str(it.Image)
	}
	e.FieldStart("seller")
	e.ObjStart()
	e.FieldStart("id")
	e.Str(it.Seller.ID)
	e.FieldStart("businessName")
	e.Str(it.Seller.BusinessName)
	e.ObjEnd()
	if it.Variant != nil {
		e.FieldStart("variant")
		e.ObjStart()
		e.FieldStart("id")
		e.Str(it.Variant.ID)
		e.FieldStart("name")
		e.Str(it.Variant.Name)
		e.FieldStart("value")
		e.Str(it.Variant.Value)
		e.ObjEnd()
	}
	e.ObjEnd()
}

// DecodeItems parses a persisted item list. Any malformed record (not an
// array, an item missing its identity, a negative price) fails the whole
// decode so the caller can discard the record and start from an empty cart.
func DecodeItems(data []byte) ([]Item, error) {
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Array {
		return nil, errors.New("persisted cart is not an array")
	}

	var items []Item
	if err := d.Arr(func(d *jx.Decoder) error {
		it, err := decodeItem(d)
		if err != nil {
			return err
		}
		items = append(items, it)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode items")
	}

	for i := range items {
		if err := validateItem(&items[i]); err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
	}
	return items, nil
}

func decodeItem(d *jx.Decoder) (Item, error) {
	var it Item
	if d.Next() != jx.Object {
		return it, errors.New("item is not an object")
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			it.ID, err = d.Str()
		case "productId":
			it.ProductID, err = d.Str()
		case "name":
			it.Name, err = d.Str()
		case "slug":
			it.Slug, err = d.Str()
		case "price":
			it.Price, err = decodeDecimal(d)
		case "compareAtPrice":
			it.CompareAtPrice, err = decodeDecimal(d)
		case "quantity":
			it.Quantity, err = d.Int()
		case "maxQuantity":
			it.MaxQuantity, err = d.Int()
		case "image":
			it.Image, err = d.Str()
		case "seller":
			err = d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "id":
					it.Seller.ID, err = d.Str()
				case "businessName":
					it.Seller.BusinessName, err = d.Str()
				default:
					err = d.Skip()
				}
				return err
			})
		case "variant":
			v := &Variant{}
			err = d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "id":
					v.ID, err = d.Str()
				case "name":
					v.Name, err = d.Str()
				case "value":
					v.Value, err = d.Str()
				default:
					err = d.Skip()
				}
				return err
			})
			it.Variant = v
		default:
			err = d.Skip()
		}
		return err
	})
	return it, err
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	n, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(n.String())
}

// validateItem enforces the line invariants on restored items: identity must
// be present, MaxQuantity at least one, and quantity clamped into
// [1, MaxQuantity]. Negative prices are rejected outright.
func validateItem(it *Item) error {
	if it.ID == "" || it.ProductID == "" {
		return errors.New("missing line identity")
	}
	if it.Price.IsNegative() {
		return errors.New("negative price")
	}
	if it.MaxQuantity < 1 {
		it.MaxQuantity = 1
	}
	if it.Quantity < 1 {
		it.Quantity = 1
	}
	if it.Quantity > it.MaxQuantity {
		it.Quantity = it.MaxQuantity
	}
	return nil
}
