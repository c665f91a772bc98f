// Package main is the entry point of the Traveloop web service.
//
// The service gates the dashboard behind a cookie based session, serves the
// sign-in and sign-up pages and a small JSON API for trips, bookings, profiles
// and notifications. Identity and data are either the hosted REST services or
// a local database with a self-hosted identity backend:
//
//	traveloop start --config ./etc/ [--dev]
//	traveloop config dump [--json]
package main
