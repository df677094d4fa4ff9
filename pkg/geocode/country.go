package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/kass/go-geo-label/pkg/models"
)

// CountryFilter decides country membership from the formatted address.
// It is coarser than polygon containment and only meant as a prefilter.
type CountryFilter struct {
	client  *Client
	country string
}

// NewCountryFilter matches addresses containing country, e.g. "Spain"
func NewCountryFilter(client *Client, country string) *CountryFilter {
	return &CountryFilter{client: client, country: country}
}

// Matches reports whether the coordinate's address names the country.
// A lookup that keeps timing out counts as not matched.
func (f *CountryFilter) Matches(ctx context.Context, coord models.Coordinate) (bool, error) {
	place, err := f.client.ReverseWithRetry(ctx, coord)
	if errors.Is(err, ErrTimeout) {
		f.client.logger.Warn("giving up on coordinate", "coordinate", coord.String())
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return place != nil && strings.Contains(place.DisplayName, f.country), nil
}
