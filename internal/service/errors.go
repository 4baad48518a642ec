// Package service composes the fetch clients and the analytics engine into
// cached, observable bond and options endpoints.
package service

import "errors"

var (
	// ErrTickerNotAllowed is returned for an options ticker outside the allow-list
	ErrTickerNotAllowed = errors.New("ticker not allowed")

	// ErrNoData is returned when a refresh produces nothing to serve
	ErrNoData = errors.New("no data available")
)
