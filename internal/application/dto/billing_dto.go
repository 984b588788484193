package dto

import "github.com/shopspring/decimal"

// CreateInvoiceRequest factura con sus líneas; se crea completa en una sola
// transacción del gateway. Cualquier organization_id que venga en el payload
// se ignora: el gateway lo fuerza del lado servidor.
type CreateInvoiceRequest struct {
	ClientID string                     `json:"client_id"`
	Number   string                     `json:"number"`
	Notes    string                     `json:"notes"`
	Items    []CreateInvoiceItemRequest `json:"items"`
}

// CreateInvoiceItemRequest línea de factura.
type CreateInvoiceItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Total importe de la línea.
func (i CreateInvoiceItemRequest) Total() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// CreateEstimateRequest presupuesto para un cliente.
type CreateEstimateRequest struct {
	ClientID string          `json:"client_id"`
	Number   string          `json:"number"`
	Amount   decimal.Decimal `json:"amount"`
	Notes    string          `json:"notes"`
}
