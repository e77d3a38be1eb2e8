package storage

import (
	"fmt"
	"path"
	"strings"
)

// URLBuilder derives delivery URLs for UGC clips.
type URLBuilder struct {
	BaseURL string
	Account string
}

// NewURLBuilder returns a builder for account under baseURL.
func NewURLBuilder(baseURL, account string) URLBuilder {
	return URLBuilder{BaseURL: strings.TrimRight(baseURL, "/"), Account: account}
}

// HLSURL is the adaptive streaming playlist for publicID.
func (b URLBuilder) HLSURL(publicID string) string {
	return fmt.Sprintf("%s/%s/video/upload/sp_hd/%s.m3u8", b.BaseURL, b.Account, stripExt(publicID))
}

// ThumbnailURL is a 400x711 first-frame poster for publicID.
func (b URLBuilder) ThumbnailURL(publicID string) string {
	return fmt.Sprintf("%s/%s/video/upload/so_0,w_400,h_711,c_fill/%s.jpg", b.BaseURL, b.Account, stripExt(publicID))
}

func stripExt(id string) string {
	return strings.TrimSuffix(id, path.Ext(path.Base(id)))
}
