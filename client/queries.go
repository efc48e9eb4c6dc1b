package client

import (
	"github.com/jrsteele09/go-albis-sdk/mapping"
	"github.com/shopspring/decimal"
)

// RateQuery holds the parameters of a rate calculation.
type RateQuery struct {
	ContractType  int
	DownPayment   decimal.Decimal
	Object        string
	PaymentMethod int
	ProductGroup  int
	PurchasePrice decimal.Decimal
	Provision     int
}

func (q RateQuery) Mapping() mapping.Map {
	return mapping.Map{
		"contractType":  q.ContractType,
		"downPayment":   q.DownPayment.String(),
		"object":        q.Object,
		"paymentMethod": q.PaymentMethod,
		"productGroup":  q.ProductGroup,
		"purchasePrice": q.PurchasePrice.String(),
		"provision":     q.Provision,
	}
}

// DocumentQuery selects the generated contract PDF of an application.
type DocumentQuery struct {
	ApplicationID int64
	PurchasePrice decimal.Decimal
	IBAN          string
	Rate          decimal.Decimal
}

func (q DocumentQuery) Mapping() mapping.Map {
	return mapping.Map{
		"applicationId": q.ApplicationID,
		"purchasePrice": q.PurchasePrice.String(),
		"iban":          q.IBAN,
		"rate":          q.Rate.String(),
	}
}
