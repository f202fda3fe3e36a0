package mock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/adsift"
	"github.com/fwojciec/adsift/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("delegates to ResolveFn", func(t *testing.T) {
		t.Parallel()

		var got adsift.ResolveRequest
		r := &mock.Resolver{
			ResolveFn: func(_ context.Context, req adsift.ResolveRequest) (*adsift.ResolveResponse, error) {
				got = req
				return &adsift.ResolveResponse{OK: true, URL: "https://dest.test/"}, nil
			},
		}

		resp, err := r.Resolve(context.Background(), adsift.ResolveRequest{Type: adsift.MessageResolveURL, URL: "https://click.test/"})

		require.NoError(t, err)
		assert.Equal(t, "https://click.test/", got.URL)
		assert.Equal(t, "https://dest.test/", resp.URL)
	})

	t.Run("propagates errors", func(t *testing.T) {
		t.Parallel()

		want := errors.New("boom")
		r := &mock.Resolver{
			ResolveFn: func(context.Context, adsift.ResolveRequest) (*adsift.ResolveResponse, error) {
				return nil, want
			},
		}

		_, err := r.Resolve(context.Background(), adsift.ResolveRequest{})

		assert.ErrorIs(t, err, want)
	})
}
