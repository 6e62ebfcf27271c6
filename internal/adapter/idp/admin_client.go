package idp

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/machinebox/graphql"

	"github.com/streamly/portal/internal/domain"
)

// IdPUser is the identity provider's view of a user: the opaque node id plus
// the standard/custom attribute buckets.
type IdPUser struct {
	ID                 string         `json:"id"`
	StandardAttributes map[string]any `json:"standardAttributes"`
	CustomAttributes   map[string]any `json:"customAttributes"`
}

// AdminClient wraps the identity provider's admin GraphQL API. Every call
// authenticates with a fresh assertion from the shared source; an assertion
// failure fails the whole call.
type AdminClient struct {
	gql        *graphql.Client
	assertions *AssertionSource
}

// NewAdminClient constructs the GraphQL gateway.
func NewAdminClient(endpoint string, assertions *AssertionSource, httpClient *http.Client) *AdminClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &AdminClient{
		gql:        graphql.NewClient(endpoint, graphql.WithHTTPClient(httpClient)),
		assertions: assertions,
	}
}

const fetchUserByIDQuery = `
query ($id: ID!) {
  node(id: $id) {
    id
    ... on User {
      standardAttributes
      customAttributes
    }
  }
}`

// FetchUserByID resolves a user by opaque id. The provider addresses users by
// node id, the base64url encoding of "User:<id>". Returns nil when the
// provider reports no node.
func (c *AdminClient) FetchUserByID(ctx context.Context, userID string) (*IdPUser, error) {
	req := graphql.NewRequest(fetchUserByIDQuery)
	req.Var("id", NodeID(userID))
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	var resp struct {
		Node *IdPUser `json:"node"`
	}
	if err := c.gql.Run(ctx, req, &resp); err != nil {
		return nil, &domain.UpstreamError{Op: "fetch user", Err: err}
	}
	return resp.Node, nil
}

const fetchUserByEmailQuery = `
query ($email: String!) {
  users(first: 1, searchKeyword: $email) {
    edges {
      node {
        id
        standardAttributes
        customAttributes
      }
    }
  }
}`

// FetchUserByEmail looks a user up by verified email attribute.
func (c *AdminClient) FetchUserByEmail(ctx context.Context, email string) (*IdPUser, error) {
	req := graphql.NewRequest(fetchUserByEmailQuery)
	req.Var("email", strings.ToLower(strings.TrimSpace(email)))
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	var resp struct {
		Users struct {
			Edges []struct {
				Node IdPUser `json:"node"`
			} `json:"edges"`
		} `json:"users"`
	}
	if err := c.gql.Run(ctx, req, &resp); err != nil {
		return nil, &domain.UpstreamError{Op: "fetch user by email", Err: err}
	}
	if len(resp.Users.Edges) == 0 {
		return nil, nil
	}
	user := resp.Users.Edges[0].Node
	return &user, nil
}

const pushAttributesMutation = `
mutation UpdateUser(
  $userID: ID!
  $standardAttributes: UserStandardAttributes
  $customAttributes: UserCustomAttributes
) {
  updateUser(
    input: {
      userID: $userID
      standardAttributes: $standardAttributes
      customAttributes: $customAttributes
    }
  ) {
    user { id }
  }
}`

// PushAttributes replaces both attribute buckets on the provider record. This
// is a full replacement, not a patch; callers merge first.
func (c *AdminClient) PushAttributes(ctx context.Context, nodeID string, standard, custom map[string]any) error {
	req := graphql.NewRequest(pushAttributesMutation)
	req.Var("userID", nodeID)
	req.Var("standardAttributes", standard)
	req.Var("customAttributes", custom)
	if err := c.authorize(req); err != nil {
		return err
	}

	var resp struct {
		UpdateUser struct {
			User struct {
				ID string `json:"id"`
			} `json:"user"`
		} `json:"updateUser"`
	}
	if err := c.gql.Run(ctx, req, &resp); err != nil {
		return &domain.UpstreamError{Op: "push attributes", Err: err}
	}
	return nil
}

func (c *AdminClient) authorize(req *graphql.Request) error {
	token, err := c.assertions.Token()
	if err != nil {
		return fmt.Errorf("admin request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// NodeID derives the provider's opaque node identifier for a user id.
func NodeID(userID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte("User:" + userID))
}
