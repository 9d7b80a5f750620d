package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func TestResourceNames(t *testing.T) {
	c := &Client{projectID: "proj"}

	if got := c.topicResourceName("sf-order-events"); got != "projects/proj/topics/sf-order-events" {
		t.Fatalf("unexpected topic name %q", got)
	}
	if got := c.subscriptionResourceName(" notif-sub "); got != "projects/proj/subscriptions/notif-sub" {
		t.Fatalf("unexpected subscription name %q", got)
	}
	full := "projects/other/topics/x"
	if got := c.topicResourceName(full); got != full {
		t.Fatalf("full resource name should pass through, got %q", got)
	}
	if got := c.topicResourceName(""); got != "" {
		t.Fatalf("empty name should resolve to empty, got %q", got)
	}
	if got := (&Client{}).topicResourceName("x"); got != "" {
		t.Fatalf("missing project should resolve to empty, got %q", got)
	}
}

func TestSubscriptionNames(t *testing.T) {
	if names := subscriptionNames(config.PubSubConfig{}); len(names) != 0 {
		t.Fatalf("expected no names, got %v", names)
	}
	names := subscriptionNames(config.PubSubConfig{NotificationSubscription: "notif-sub"})
	if len(names) != 1 || names[0] != "notif-sub" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	if c.Publisher("topic") != nil {
		t.Fatal("nil client must not return a publisher")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client should be a no-op: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("ping on nil client should fail")
	}
}

func TestClientOptionsPreferInlineCredentials(t *testing.T) {
	if opts := clientOptions(config.GCPConfig{}); len(opts) != 0 {
		t.Fatalf("expected default credentials, got %d options", len(opts))
	}
	opts := clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`, ApplicationCredentials: "/tmp/key.json"})
	if len(opts) != 1 {
		t.Fatalf("expected a single credentials option, got %d", len(opts))
	}
	if opts := clientOptions(config.GCPConfig{ApplicationCredentials: "/tmp/key.json"}); len(opts) != 1 {
		t.Fatalf("expected file credentials option, got %d", len(opts))
	}
}
