// Package domain models addresses, coordinates and the contracts the
// geocoding core depends on.
//
// # Data Source
//
// Coordinates come from the Yandex Geocoder HTTP API (version 1.x), queried
// with format=json. The adapter in internal/adapter/yandex reduces each
// response to the list of positional strings found under
//
//	response.GeoObjectCollection.featureMember[].GeoObject.Point.pos
//
// in the order the service ranks them. Everything past that point is handled
// here and in internal/geocoder.
//
// # Positional Strings
//
// A position is two space-separated decimals, longitude first:
//
//	"50.101783 53.195538"  →  lat 53.195538, lon 50.101783 (Samara)
//
// Decimals always use a dot separator regardless of locale. No range check is
// applied; swapped or out-of-range values are the data owner's concern.
// See [ParsePos].
//
// # Results
//
// A resolution result is an ordered, possibly empty []Coordinate. Empty means
// the service matched nothing. The first element is the service's best match
// and is what single-point queries return.
//
// # Failure Kinds
//
// Three failure kinds exist: [ErrTransport] (the call could not complete),
// [ErrParse] (the payload could not be read as coordinates) and
// [ErrEmptyResult] (nothing matched, a failure only under [ReturnError]).
// Under [ReturnError] every kind surfaces as a [ResolveError], which reports
// as a parse failure and keeps the original cause for errors.Is.
// Context cancellation is never converted and always reaches the caller.
package domain
