package domain

// Position is the inventory state for one symbol. Quantity never goes
// negative: a sell larger than the open quantity flattens the position and
// resets the average entry ("no-short" policy). AvgEntryPrice is meaningful
// only while Quantity > 0.
type Position struct {
	Quantity      float64
	AvgEntryPrice float64
	RealizedPnL   float64
}

// Apply folds one fill into the position. Buys blend the fill into the
// average entry price by notional weight; sells reduce quantity and realize
// PnL against the average entry for the covered portion.
func (p *Position) Apply(side OrderSide, qty, price float64) {
	switch side {
	case OrderSideBuy:
		totalCost := p.AvgEntryPrice*p.Quantity + price*qty
		p.Quantity += qty
		if p.Quantity > 0 {
			p.AvgEntryPrice = totalCost / p.Quantity
		}
	case OrderSideSell:
		covered := qty
		if covered > p.Quantity {
			covered = p.Quantity
		}
		p.RealizedPnL += (price - p.AvgEntryPrice) * covered
		p.Quantity -= qty
		if p.Quantity <= 0 {
			p.Quantity = 0
			p.AvgEntryPrice = 0
		}
	}
}

// UnrealizedPnL values the open quantity at the given mark price.
// It is zero whenever the position is flat.
func (p Position) UnrealizedPnL(markPrice float64) float64 {
	return (markPrice - p.AvgEntryPrice) * p.Quantity
}

// Flat reports whether there is no open inventory.
func (p Position) Flat() bool {
	return p.Quantity == 0
}
