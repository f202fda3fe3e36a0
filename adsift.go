// Package adsift keeps verified-publisher cards hidden on a news feed and
// exports the feed's ad cards, with their resolved click-through
// destinations, to a tabular file.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, rod/, sqlite/).
package adsift
