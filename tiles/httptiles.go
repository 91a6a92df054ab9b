package tiles

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const DefaultUserAgent = "gio-maps/0.1 (+https://github.com/olablt/gio-maps)"

// HTTPTileProvider fetches tiles from a {z}/{x}/{y} URL template.
type HTTPTileProvider struct {
	client    *http.Client
	template  string
	userAgent string
	log       logrus.FieldLogger
}

func NewHTTPTileProvider(client *http.Client, template string, log logrus.FieldLogger) *HTTPTileProvider {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &HTTPTileProvider{
		client:    client,
		template:  template,
		userAgent: DefaultUserAgent,
		log:       log.WithField("component", "tiles"),
	}
}

// WithUserAgent sets the User-Agent header sent with tile requests.
func (p *HTTPTileProvider) WithUserAgent(ua string) *HTTPTileProvider {
	if ua != "" {
		p.userAgent = ua
	}
	return p
}

func (p *HTTPTileProvider) GetTile(ctx context.Context, tile Tile) (image.Image, error) {
	url := p.GetTileURL(tile)
	p.log.Debugf("requesting tile %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "image/png,image/jpeg,*/*")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tile %s: %w", GetTileKey(tile), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch tile %s: unexpected status code: %d", GetTileKey(tile), resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode tile %s: %w", GetTileKey(tile), err)
	}
	return img, nil
}

// GetTileURL returns the URL for downloading the map tile
func (p *HTTPTileProvider) GetTileURL(tile Tile) string {
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(tile.Zoom),
		"{x}", strconv.Itoa(tile.X),
		"{y}", strconv.Itoa(tile.Y),
	)
	return r.Replace(p.template)
}
