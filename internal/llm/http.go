package llm

import (
	"net/http"
	"time"

	"github.com/ppiankov/newstag/internal/model"
	"github.com/ppiankov/newstag/internal/util"
)

func requestTimeout(cfg Config, fallback time.Duration) time.Duration {
	if cfg.Timeout > 0 {
		return time.Duration(cfg.Timeout) * time.Second
	}
	return fallback
}

// newHTTPClient builds a proxy-aware client. A zero fallback leaves the
// client without its own timeout; callers then bound requests by context.
func newHTTPClient(cfg Config, fallback time.Duration) *http.Client {
	timeout := time.Duration(0)
	if fallback > 0 {
		timeout = requestTimeout(cfg, fallback)
	}
	return util.NewHTTPClient(model.HTTPConfig{
		Timeout:    timeout,
		HTTPProxy:  cfg.HTTPProxy,
		HTTPSProxy: cfg.HTTPSProxy,
		NoProxy:    cfg.NoProxy,
	})
}
