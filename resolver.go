package adsift

import "context"

// MessageResolveURL is the request type understood by resolvers.
const MessageResolveURL = "RESOLVE_URL"

// ResolveRequest asks a resolver for the final destination of URL.
type ResolveRequest struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// ResolveResponse carries the resolved URL. On failure OK is false, URL
// echoes the original and Error describes the failure.
type ResolveResponse struct {
	OK    bool   `json:"ok"`
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
}

// Validate returns an error if the request is not a resolve request.
func (r *ResolveRequest) Validate() error {
	if r.Type != MessageResolveURL {
		return Errorf(EINVALID, "unsupported message type %q", r.Type)
	}
	if r.URL == "" {
		return Errorf(EINVALID, "url required")
	}
	return nil
}

// Resolver follows a link to its final redirect target.
type Resolver interface {
	Resolve(ctx context.Context, req ResolveRequest) (*ResolveResponse, error)
}

// Destination picks the exported destination for link from a resolver
// outcome. Anything other than a successful response with a URL yields
// link unchanged.
func Destination(link string, resp *ResolveResponse, err error) string {
	if err != nil || resp == nil || !resp.OK || resp.URL == "" {
		return link
	}
	return resp.URL
}
