// Package feed implements the feed heuristics and their reactive upkeep:
// classifying cards, hiding verified-publisher cards, collecting ad cards,
// and the observation loop that keeps all of it applied while the page
// re-renders.
//
// Everything here works against the adsift.Node capability set, so the
// same rules run on parsed snapshots and on live browser pages.
package feed
