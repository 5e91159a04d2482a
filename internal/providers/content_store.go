package providers

import (
	"context"
	"errors"
	"io"
	"strings"
)

var ErrContentNotFound = errors.New("content not found")

// ContentStore is a content addressed store such as IPFS.
type ContentStore interface {
	Get(ctx context.Context, cid string) ([]byte, error)
	PutJSON(ctx context.Context, v interface{}) (string, error)
	PutFile(ctx context.Context, name string, r io.Reader) (string, error)
	// URL returns a locator a browser can load for cid.
	URL(cid string) string
	HealthCheck(ctx context.Context) error
}

var qualifiedPrefixes = []string{"http://", "https://", "ipfs://", "data:"}

// ResolveURL expands a bare content address against gateway. Fully
// qualified locators and the empty string are returned unchanged.
func ResolveURL(gateway, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	lower := strings.ToLower(ref)
	for _, prefix := range qualifiedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return ref
		}
	}
	ref = strings.TrimPrefix(strings.TrimPrefix(ref, "/"), "ipfs/")
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return gateway + ref
}
