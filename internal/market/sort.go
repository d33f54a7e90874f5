package market

import "sort"

// SortOffers orders offers for best-offer selection: highest price first.
func SortOffers(offers []Offer) {
	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].Price.Cmp(offers[j].Price) > 0
	})
}

// SortListings orders listings cheapest first.
func SortListings(listings []Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].Price.Cmp(listings[j].Price) < 0
	})
}

// SortSalesForDisplay orders sales most recent first.
func SortSalesForDisplay(sales []Sale) {
	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].OccurredAt > sales[j].OccurredAt
	})
}

// SalesSeries converts sales into chart points, ascending by timestamp.
func SalesSeries(sales []Sale) []Point {
	points := make([]Point, 0, len(sales))
	for _, s := range sales {
		points = append(points, Point{
			Timestamp: s.OccurredAt,
			Price:     s.Price,
			Source:    PointSourceSale,
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})
	return points
}

// BestOffer returns the highest-priced offer, or nil for an empty slice.
func BestOffer(offers []Offer) *Offer {
	if len(offers) == 0 {
		return nil
	}
	best := offers[0]
	for _, o := range offers[1:] {
		if o.Price.Cmp(best.Price) > 0 {
			best = o
		}
	}
	return &best
}
