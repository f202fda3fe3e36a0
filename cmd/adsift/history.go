package main

import (
	"fmt"

	"github.com/fwojciec/adsift"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	ads, err := deps.Ads.FindAds(deps.Ctx, adsift.AdFilter{PageURL: c.Page, Limit: c.Limit})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", adsift.ErrorMessage(err))
		return err
	}

	if len(ads) == 0 {
		fmt.Fprintln(deps.Stdout, "No ads archived yet. Use 'adsift watch' or 'adsift scan' to export some.")
		return nil
	}

	for _, ad := range ads {
		fmt.Fprintf(deps.Stdout, "%s  %dx  %s  %s\n",
			ad.LastSeen.UTC().Format("2006-01-02 15:04"),
			ad.SeenCount,
			ad.Headline,
			ad.Destination,
		)
	}

	return nil
}
