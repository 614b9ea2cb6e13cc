package notifsvc

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core"
)

// barkChannel pushes notifications to the user's iPhone via the Bark app
// (https://github.com/Finb/Bark). Bark delivers through Apple's APNs; it only
// needs the free app installed and a device key configured.
type barkChannel struct {
	key    string
	server string
	group  string
	hc     *http.Client
}

var _ Channel = (*barkChannel)(nil)

func NewBarkChannel(conf *core.Config) Channel {
	return &barkChannel{
		key:    conf.Bark.Key,
		server: strings.TrimRight(conf.Bark.Server, "/"),
		group:  conf.AppName,
		hc:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (ch barkChannel) Name() string { return "bark" }

func (ch barkChannel) Deliver(title, body string) error {
	params := url.Values{"sound": {"default"}, "group": {ch.group}}
	pushURL := fmt.Sprintf("%s/%s/%s/%s?%s",
		ch.server, ch.key, url.PathEscape(title), url.PathEscape(body), params.Encode())

	resp, err := ch.hc.Get(pushURL)
	if err != nil {
		return errors.Wrap(err, "pushing to bark")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("bark HTTP %d", resp.StatusCode)
	}
	return nil
}
