package search

import (
	"fmt"
	"time"

	"github.com/typesense/typesense-go/v3/typesense"
)

// Fields a scoped key may read. Everything else in the index stays hidden
// from portal clients.
const includeFields = "id,uid,cid,title,description,company,people,gated,duration,created,billing,score,ranking"

// KeyIssuer derives per-tenant, restricted-capability search credentials from
// the administrative search key. The scoping algorithm itself is the engine's;
// this only supplies per-tenant parameters.
type KeyIssuer struct {
	client    *typesense.Client
	searchKey string
}

// NewKeyIssuer builds the issuer against the search engine host. The admin
// and search keys come from configuration and have no fallback.
func NewKeyIssuer(host, adminKey, searchKey string) (*KeyIssuer, error) {
	if host == "" || adminKey == "" || searchKey == "" {
		return nil, fmt.Errorf("search keys: host or keys not configured")
	}
	client := typesense.NewClient(
		typesense.WithServer(fmt.Sprintf("https://%s:443", host)),
		typesense.WithAPIKey(adminKey),
		typesense.WithConnectionTimeout(2*time.Second),
	)
	return &KeyIssuer{client: client, searchKey: searchKey}, nil
}

// ScopedKey binds the fixed field projection plus the tenant's filter/sort
// policy into an opaque credential.
func (k *KeyIssuer) ScopedKey(filterBy, sortBy string) (string, error) {
	scoped, err := k.client.Keys().GenerateScopedSearchKey(k.searchKey, map[string]interface{}{
		"filter_by":      filterBy,
		"sort_by":        sortBy,
		"include_fields": includeFields,
	})
	if err != nil {
		return "", fmt.Errorf("generate scoped search key: %w", err)
	}
	return scoped, nil
}
