package client

import (
	"context"
	"encoding/json"

	"github.com/cuaca/cuaca-go/pkg/request"
)

// Observation is one forecast datum for a location and date.
type Observation struct {
	LocationID   ID              `json:"locationid"`
	LocationName string          `json:"locationname"`
	Date         string          `json:"date"`
	DatasetID    string          `json:"datasetid"`
	DataType     string          `json:"datatype"`
	Value        json.RawMessage `json:"value"`
	Attributes   json.RawMessage `json:"attributes,omitempty"`
	Latitude     *float64        `json:"latitude"`
	Longitude    *float64        `json:"longitude"`
}

// Forecast fetches forecast data for a location between two yyyy-mm-dd dates.
func (c *Client) Forecast(ctx context.Context, locationID, startDate, endDate string, ft request.ForecastType) ([]Observation, error) {
	req, err := c.builder.Forecast(locationID, startDate, endDate, ft)
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

	var observations []Observation
	if err := resp.Decode(&observations); err != nil {
		return nil, err
	}
	return observations, nil
}

// DataTypes lists the data types used to interpret /data results.
// The raw response is returned; callers switch on its Kind.
func (c *Client) DataTypes(ctx context.Context) (*Response, error) {
	return c.Call(ctx, c.builder.DataTypes(), ViewResults)
}

// Stations lists weather stations.
// The raw response is returned; callers switch on its Kind.
func (c *Client) Stations(ctx context.Context) (*Response, error) {
	return c.Call(ctx, c.builder.Stations(), ViewResults)
}

// Metadata returns the "metadata" member (result set counts, offsets) of req.
func (c *Client) Metadata(ctx context.Context, req request.Request) (*Response, error) {
	return c.Call(ctx, req, ViewMetadata)
}
