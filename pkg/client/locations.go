package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cuaca/cuaca-go/pkg/request"
)

// ID is a service-assigned identifier. The API sends identifiers as
// strings ("LOCATION:237") but some endpoints use bare numbers; both decode
// to their textual form.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Location is a named geographic entity.
type Location struct {
	ID                 ID       `json:"id"`
	Name               string   `json:"name"`
	LocationCategoryID string   `json:"locationcategoryid"`
	LocationRootID     ID       `json:"locationrootid"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
}

// Locations returns one page of locations of type lt. Page 0 is the first.
func (c *Client) Locations(ctx context.Context, lt request.LocationType, page int) ([]Location, error) {
	req, err := c.builder.Locations(lt, page)
	if err != nil {
		return nil, err
	}

	resp, err := c.Call(ctx, req, ViewResults)
	if err != nil {
		return nil, err
	}
	if err := resp.expect(KindResults); err != nil {
		return nil, err
	}

	var locations []Location
	if err := resp.Decode(&locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// Location resolves name to a location identifier by scanning the first
// page of locations of type lt. The match is an exact comparison against
// the upper-cased name; the first match wins. found is false when nothing
// matches.
func (c *Client) Location(ctx context.Context, name string, lt request.LocationType) (id string, found bool, err error) {
	locations, err := c.Locations(ctx, lt, 0)
	if err != nil {
		return "", false, err
	}

	want := strings.ToUpper(name)
	for _, loc := range locations {
		if strings.ToUpper(loc.Name) == want {
			return string(loc.ID), true, nil
		}
	}

	c.logger.Debug().
		Str("name", name).
		Str("location_type", string(lt)).
		Int("candidates", len(locations)).
		Msg("Location not found")
	return "", false, nil
}

// State resolves a state name to its identifier.
func (c *Client) State(ctx context.Context, name string) (string, bool, error) {
	return c.Location(ctx, name, request.LocationState)
}

// District resolves a district name to its identifier.
func (c *Client) District(ctx context.Context, name string) (string, bool, error) {
	return c.Location(ctx, name, request.LocationDistrict)
}

// Town resolves a town name to its identifier.
func (c *Client) Town(ctx context.Context, name string) (string, bool, error) {
	return c.Location(ctx, name, request.LocationTown)
}

// TouristAttraction resolves a tourist destination name to its identifier.
func (c *Client) TouristAttraction(ctx context.Context, name string) (string, bool, error) {
	return c.Location(ctx, name, request.LocationTouristDest)
}

// Water resolves a body of water to its identifier.
func (c *Client) Water(ctx context.Context, name string) (string, bool, error) {
	return c.Location(ctx, name, request.LocationWaters)
}

// States lists the first page of states.
func (c *Client) States(ctx context.Context) ([]Location, error) {
	return c.Locations(ctx, request.LocationState, 0)
}

// Districts lists the first page of districts.
func (c *Client) Districts(ctx context.Context) ([]Location, error) {
	return c.Locations(ctx, request.LocationDistrict, 0)
}

// Towns lists the first page of towns.
func (c *Client) Towns(ctx context.Context) ([]Location, error) {
	return c.Locations(ctx, request.LocationTown, 0)
}

// TouristAttractions lists the first page of tourist destinations.
func (c *Client) TouristAttractions(ctx context.Context) ([]Location, error) {
	return c.Locations(ctx, request.LocationTouristDest, 0)
}

// Waters lists the first page of bodies of water.
func (c *Client) Waters(ctx context.Context) ([]Location, error) {
	return c.Locations(ctx, request.LocationWaters, 0)
}
