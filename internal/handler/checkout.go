package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/kart-checkout/internal/domain/cart"
	"github.com/xenking/kart-checkout/internal/domain/order"
)

type checkoutRequest struct {
	User       cart.User
	Items      []cart.Item
	Instrument string
}

// Checkout handles POST /api/checkout.
//
// 201 returns the placed order, 402 means the payment was not accepted and
// nothing was stored, 400 reports malformed input.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCheckoutRequest(jx.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes), 4096))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.checkout.ProcessOrder(r.Context(), cart.New(req.User, req.Items...), req.Instrument)
	if err != nil {
		zctx.From(r.Context()).Error("Checkout failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "order could not be saved")
		return
	}
	if o == nil {
		writeError(w, http.StatusPaymentRequired, "payment declined")
		return
	}

	writeJSON(w, http.StatusCreated, encodeOrder(o))
}

func decodeCheckoutRequest(d *jx.Decoder) (checkoutRequest, error) {
	var req checkoutRequest
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "user":
			if err := decodeUser(d, &req.User); err != nil {
				return errors.Wrap(err, "user")
			}
			return nil
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				item, err := decodeItem(d)
				if err != nil {
					return errors.Wrapf(err, "items[%d]", len(req.Items))
				}
				req.Items = append(req.Items, item)
				return nil
			})
		case "instrument":
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "instrument")
			}
			req.Instrument = s
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return req, err
	}
	if err := d.Skip(); !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return req, errors.New("unexpected data after request object")
	}

	switch {
	case req.Instrument == "":
		return req, errors.New("instrument is required")
	case req.User.Email == "":
		return req, errors.New("user email is required")
	}
	return req, nil
}

func decodeUser(d *jx.Decoder, u *cart.User) error {
	u.Tier = cart.TierStandard
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			u.ID, err = d.Int64()
		case "name":
			u.Name, err = d.Str()
		case "email":
			u.Email, err = d.Str()
		case "tier":
			var s string
			if s, err = d.Str(); err == nil {
				u.Tier, err = cart.ParseTier(s)
			}
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
}

func decodeItem(d *jx.Decoder) (cart.Item, error) {
	var (
		name  string
		price decimal.Decimal
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			name, err = d.Str()
		case "price":
			price, err = decodeDecimal(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	if err != nil {
		return cart.Item{}, err
	}
	return cart.NewItem(name, price)
}

// decodeDecimal accepts both JSON numbers and numeric strings.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = s
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = n.String()
	default:
		return decimal.Zero, errors.New("expected number")
	}
	return decimal.NewFromString(raw)
}

func encodeOrder(o *order.Order) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("finalTotal")
	e.Float64(o.FinalTotal.InexactFloat64())
	if !o.CreatedAt.IsZero() {
		e.FieldStart("createdAt")
		e.Str(o.CreatedAt.Format(time.RFC3339))
	}
	if o.Cart != nil {
		e.FieldStart("total")
		e.Float64(o.Cart.Total().InexactFloat64())
		e.FieldStart("items")
		e.ArrStart()
		for _, item := range o.Cart.Items {
			e.ObjStart()
			e.FieldStart("name")
			e.Str(item.Name)
			e.FieldStart("price")
			e.Float64(item.Price.InexactFloat64())
			e.ObjEnd()
		}
		e.ArrEnd()
	}
	e.ObjEnd()

	// The pooled encoder is reused after return.
	return append([]byte(nil), e.Bytes()...)
}
