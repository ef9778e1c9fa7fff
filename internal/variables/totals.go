package variables

// Line is a priced service line.
type Line struct {
	Name        string
	Description string
	Quantity    float64
	UnitPrice   float64
	Total       float64
}

// Totals are the aggregate amounts derived from the services and the
// proposal's discount and surcharge percentages.
type Totals struct {
	Lines            []Line
	Subtotal         float64
	DiscountPercent  float64
	SurchargePercent float64
	Discount         float64
	Surcharge        float64
	Total            float64
}

// ComputeTotals prices every service line and applies the proposal's
// discount and surcharge to the subtotal.
func ComputeTotals(ctx *DataContext) Totals {
	var t Totals
	if ctx == nil {
		return t
	}
	for _, s := range ctx.Services {
		qty := finite(s.Quantidade.Float())
		price := finite(s.UnitPrice())
		line := Line{
			Name:        s.Nome,
			Description: s.Descricao,
			Quantity:    qty,
			UnitPrice:   price,
			Total:       qty * price,
		}
		t.Lines = append(t.Lines, line)
		t.Subtotal += line.Total
	}
	if ctx.Proposal != nil {
		t.DiscountPercent = finite(ctx.Proposal.Desconto.Float())
		t.SurchargePercent = finite(ctx.Proposal.Acrescimo.Float())
	}
	t.Discount = t.Subtotal * t.DiscountPercent / 100
	t.Surcharge = t.Subtotal * t.SurchargePercent / 100
	t.Total = t.Subtotal - t.Discount + t.Surcharge
	return t
}
