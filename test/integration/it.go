//go:build integration

package integration

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/NordCoder/Linkbio/internal/app"
	config "github.com/NordCoder/Linkbio/internal/config/linkctl"
	"github.com/stretchr/testify/require"
)

/********** ENV CONFIG **********/

type Cfg struct {
	APIBase    string
	MailhogAPI string
}

func LoadCfg() Cfg {
	return Cfg{
		APIBase:    getenv("IT_API_BASE", "http://127.0.0.1:8000"),
		MailhogAPI: os.Getenv("IT_MAILHOG_API"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func WaitHealth(t *testing.T, base string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	url := strings.TrimRight(base, "/") + "/health"
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				t.Logf("[it] api healthy: %s", url)
				return
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Skipf("[it] api not reachable at %s", url)
}

// NewApp builds a client whose cookies live in dir.
func NewApp(t *testing.T, cfg Cfg, dir string) *app.App {
	t.Helper()
	a, err := app.New(&config.Config{
		App:     config.App{Name: "linkctl-it", Env: "it"},
		API:     config.API{BaseURL: cfg.APIBase, Timeout: 10 * time.Second},
		Session: config.Session{RefreshTimeout: 5 * time.Second, CookieFile: filepath.Join(dir, "cookies.json")},
	}, nil)
	require.NoError(t, err)
	return a
}

func RandSuffix() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

func Ctx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

/********** MAILHOG **********/

type MHResp struct {
	Total int
	Items []struct {
		Content struct {
			Headers map[string][]string `json:"Headers"`
			Body    string              `json:"Body"`
		} `json:"Content"`
	}
}

var tokenRe = regexp.MustCompile(`token=([A-Za-z0-9_-]+)`)

func mailhogMessages(api string) (MHResp, error) {
	url := strings.TrimRight(api, "/") + "/api/v2/messages"
	resp, err := http.Get(url)
	if err != nil {
		return MHResp{}, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return MHResp{}, fmt.Errorf("mailhog http %d: %s", resp.StatusCode, string(b))
	}
	var out MHResp
	if err := json.Unmarshal(b, &out); err != nil {
		return MHResp{}, err
	}
	return out, nil
}

// WaitMailToken returns the token of the newest mail to rcpt whose path
// contains pathPart.
func WaitMailToken(t *testing.T, api, rcpt, pathPart string, timeout time.Duration) string {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		r, err := mailhogMessages(api)
		if err == nil {
			for _, it := range r.Items {
				to := strings.Join(it.Content.Headers["To"], ",")
				body := strings.ReplaceAll(it.Content.Body, "=\r\n", "")
				if !strings.Contains(to, rcpt) || !strings.Contains(body, pathPart) {
					continue
				}
				if m := tokenRe.FindStringSubmatch(body); m != nil {
					return m[1]
				}
			}
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("[mailhog] no %s mail for %s", pathPart, rcpt)
	return ""
}
