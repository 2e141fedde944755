package redis

import (
	"testing"

	"github.com/marketmaster/marketmaster-backend/pkg/config"
)

func TestKeyBuilders(t *testing.T) {
	t.Parallel()

	c := &Client{}
	if got := c.CartSlotKey("sess-1"); got != "mm:cart:sess-1" {
		t.Fatalf("unexpected cart slot key: %q", got)
	}
	if got := c.AccessSessionKey("abc"); got != "mm:session:access:abc" {
		t.Fatalf("unexpected session key: %q", got)
	}
	if got := c.RateLimitKey("login:ip:1.2.3.4"); got != "mm:rate_limit:login:ip:1.2.3.4" {
		t.Fatalf("unexpected rate limit key: %q", got)
	}
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	t.Parallel()

	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when neither url nor address provided")
	}

	opts, err := optionsFromConfig(config.RedisConfig{Address: "localhost:6379", PoolSize: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.PoolSize != 5 {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestOptionsFromConfigParsesURL(t *testing.T) {
	t.Parallel()

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:pw@example.com:6380/2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "example.com:6380" || opts.DB != 2 {
		t.Fatalf("unexpected options: %+v", opts)
	}
}
