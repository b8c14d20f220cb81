package catalog

import (
	"io"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
)

// LoadFile reads a catalog from a gzip-compressed JSON array of products and
// returns a seeded MemoryRepository.
func LoadFile(path string) (*MemoryRepository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	products, err := decodeProducts(gz)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return NewMemoryRepository(products...), nil
}

func decodeProducts(r io.Reader) ([]Product, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}

	var products []Product
	d := jx.DecodeBytes(data)
	if err := d.Arr(func(d *jx.Decoder) error {
		p, err := decodeProduct(d)
		if err != nil {
			return err
		}
		if p.ID == "" {
			return errors.New("product missing id")
		}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}

func decodeProduct(d *jx.Decoder) (Product, error) {
	var p Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Str()
		case "name":
			p.Name, err = d.Str()
		case "slug":
			p.Slug, err = d.Str()
		case "price":
			p.Price, err = decodeDecimal(d)
		case "compareAtPrice":
			p.CompareAtPrice, err = decodeDecimal(d)
		case "stock":
			p.Stock, err = d.Int()
		case "image":
			p.Image, err = d.Str()
		case "seller":
			err = d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "id":
					p.Seller.ID, err = d.Str()
				case "businessName":
					p.Seller.BusinessName, err = d.Str()
				default:
					err = d.Skip()
				}
				return err
			})
		default:
			err = d.Skip()
		}
		return err
	})
	return p, err
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	n, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(n.String())
}
